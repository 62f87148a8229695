package notify

import (
	"context"

	"github.com/localnerve/grants-portal/internal/logger"
)

// LogNotifier writes events to the service log.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	fields := map[string]interface{}{
		"event":       string(e.Type),
		"occurred_at": e.OccurredAt,
	}
	if e.ClubID != "" {
		fields["club_id"] = e.ClubID
	}
	if e.ApplicationID != "" {
		fields["application_id"] = e.ApplicationID
	}
	for k, v := range e.Data {
		fields[k] = v
	}
	n.log.Info(e.Subject(), fields)
	return nil
}
