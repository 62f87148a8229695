package pipeline

import "time"

// Interest is a club's response to an open match.
type Interest string

const (
	InterestInterested    Interest = "interested"
	InterestNotInterested Interest = "not_interested"
	InterestNeedInfo      Interest = "need_info"
)

// FieldInterestStatus is the wire name of the interest field.
const FieldInterestStatus = "interestStatus"

var interests = []string{
	string(InterestInterested),
	string(InterestNotInterested),
	string(InterestNeedInfo),
}

// ParseInterest validates a nullable interest value. A nil raw clears interest.
func ParseInterest(raw *string) (*Interest, error) {
	if raw == nil {
		return nil, nil
	}
	for _, v := range interests {
		if v == *raw {
			i := Interest(v)
			return &i, nil
		}
	}
	return nil, invalid(FieldInterestStatus, *raw, append(interests, "null"), ErrInvalidInterest)
}

// InterestChange is a validated interest update.
type InterestChange struct {
	Value *Interest
}

// SubmittedAt returns the timestamp to store alongside the change: now when
// interest is set, nil when it is cleared.
func (c InterestChange) SubmittedAt(now time.Time) *time.Time {
	if c.Value == nil {
		return nil
	}
	t := now.UTC()
	return &t
}

// Label is a human description used in activity feeds.
func (i Interest) Label() string {
	switch i {
	case InterestInterested:
		return "interested"
	case InterestNotInterested:
		return "not interested"
	case InterestNeedInfo:
		return "need info"
	}
	return string(i)
}
