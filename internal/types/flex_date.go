package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexDate is a calendar date that can be unmarshaled from either a
// "2006-01-02" JSON string or an RFC 3339 timestamp. The date is kept as
// midnight UTC.
type FlexDate time.Time

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("FlexDate: expected a date string")
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	*f = FlexDate(t)
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (f FlexDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(f).Format(time.DateOnly))
}

// Time converts FlexDate back to time.Time.
func (f FlexDate) Time() time.Time {
	return time.Time(f)
}

// Ptr returns the date as a *time.Time, nil for a nil receiver.
func (f *FlexDate) Ptr() *time.Time {
	if f == nil {
		return nil
	}
	t := time.Time(*f)
	return &t
}

// ParseDate reads a date or RFC 3339 timestamp as a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("FlexDate: invalid date %q", s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
