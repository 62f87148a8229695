// notify.go
//
// Grant pipeline and club portal data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of grants-portal.
// grants-portal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// grants-portal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with grants-portal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package notify delivers post-commit domain events to clubs and staff
// channels. Delivery is best effort: failures are logged and counted, and
// never surface to the request that produced the event.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/localnerve/grants-portal/internal/config"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/metrics"
)

// EventType names a domain event.
type EventType string

const (
	EventItemsAdded        EventType = "pending_items.added"
	EventItemResponded     EventType = "pending_item.responded"
	EventStageChanged      EventType = "application.stage_changed"
	EventInterestRecorded  EventType = "application.interest_recorded"
	EventInvoiceCreated    EventType = "invoice.created"
	EventGrantsSweptClosed EventType = "grants.swept_closed"
)

// Event is a committed change worth telling someone about.
type Event struct {
	Type          EventType              `json:"type"`
	ClubID        string                 `json:"clubId,omitempty"`
	ApplicationID string                 `json:"applicationId,omitempty"`
	Recipient     string                 `json:"recipient,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	OccurredAt    time.Time              `json:"occurredAt"`
}

// Subject is a one line summary used for email subjects and log lines.
func (e Event) Subject() string {
	switch e.Type {
	case EventItemsAdded:
		return "New information requested for your grant application"
	case EventItemResponded:
		return "A club responded to a pending item"
	case EventStageChanged:
		return "Grant application status updated"
	case EventInterestRecorded:
		return "A club responded to a grant match"
	case EventInvoiceCreated:
		return "Success fee invoice issued"
	case EventGrantsSweptClosed:
		return "Grants closed after their close date"
	}
	return string(e.Type)
}

// Body renders the event data as key: value lines in a stable order.
func (e Event) Body() string {
	var b strings.Builder
	b.WriteString(e.Subject())
	b.WriteString("\n")
	for _, k := range sortedKeys(e.Data) {
		fmt.Fprintf(&b, "\n%s: %v", k, e.Data[k])
	}
	return b.String()
}

// Notifier delivers events.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, e Event) error
}

// Multi fans an event out to every notifier. Each failure is counted against
// its channel; the joined error is returned.
type Multi struct {
	notifiers []Notifier
	log       logger.Logger
}

// NewMulti builds a fan-out over ns.
func NewMulti(log logger.Logger, ns ...Notifier) *Multi {
	return &Multi{notifiers: ns, log: log}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, e); err != nil {
			metrics.NotificationFailures.WithLabelValues(n.Name()).Inc()
			m.log.WithError(err).Warn("Notification delivery failed", map[string]interface{}{
				"channel": n.Name(),
				"event":   string(e.Type),
			})
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Drivers lists the channel names behind the fan-out.
func (m *Multi) Drivers() []string {
	out := make([]string, len(m.notifiers))
	for i, n := range m.notifiers {
		out[i] = n.Name()
	}
	return out
}

// Dispatch hands e to n and swallows the outcome, stamping OccurredAt when
// unset. Handlers call it after commit.
func Dispatch(ctx context.Context, n Notifier, log logger.Logger, e Event) {
	if n == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := n.Notify(ctx, e); err != nil {
		log.WithError(err).Debug("Event not fully delivered", map[string]interface{}{
			"event": string(e.Type),
		})
	}
}

// New builds the notifier chain named by cfg.NotifyDrivers.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Multi, error) {
	var ns []Notifier
	for _, driver := range cfg.NotifyDrivers {
		switch driver {
		case "log":
			ns = append(ns, NewLogNotifier(log))
		case "ses":
			client, err := NewSESClient(ctx, cfg.AWSRegion)
			if err != nil {
				return nil, fmt.Errorf("ses client: %w", err)
			}
			ns = append(ns, NewSESNotifier(client, cfg.NotifyFromEmail))
		case "sns":
			client, err := NewSNSClient(ctx, cfg.AWSRegion)
			if err != nil {
				return nil, fmt.Errorf("sns client: %w", err)
			}
			ns = append(ns, NewSNSNotifier(client, cfg.NotifyTopicARN))
		default:
			return nil, fmt.Errorf("unknown notify driver: %s", driver)
		}
	}
	return NewMulti(log, ns...), nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
