// Package dashboard computes the staff dashboard and catalogue statistics from
// a snapshot of current rows. Every function here is a pure function of its
// snapshot and the supplied now; nothing is cached between reads.
package dashboard

import (
	"time"

	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/shopspring/decimal"
)

// Display limits.
const (
	ClosingSoonWindowDays = 14
	ClosingSoonLimit      = 10
	AttentionLimit        = 8
	ActivityLimit         = 8
)

// ClubRecord is the club data the dashboard reads.
type ClubRecord struct {
	ID              string
	LegalEntityName string
	ShortenedName   string
	PlanCode        string
	UpdatedAt       time.Time
}

// Name prefers the shortened name.
func (c ClubRecord) Name() string {
	if c.ShortenedName != "" {
		return c.ShortenedName
	}
	return c.LegalEntityName
}

// GrantRecord is the grant data the dashboard reads.
type GrantRecord struct {
	ID        string
	Name      string
	Provider  string
	Status    models.GrantStatus
	IsActive  bool
	CloseDate *time.Time
}

// ApplicationRecord is the application data the dashboard reads.
// PendingItems counts items in status pending.
type ApplicationRecord struct {
	ID           string
	ClubID       string
	GrantID      string
	Stage        pipeline.Stage
	Interest     *pipeline.Interest
	AmountWon    decimal.Decimal
	OutcomeDate  *time.Time
	UpdatedAt    time.Time
	PendingItems int
}

// Snapshot is the full input of a dashboard read.
type Snapshot struct {
	Clubs        []ClubRecord
	Grants       []GrantRecord
	Applications []ApplicationRecord
}

// Today is the calendar date of now, in now's location, as a UTC midnight
// comparable with stored date columns.
func Today(now time.Time) time.Time {
	return civil(now)
}

// civil truncates t to its calendar date, read in t's own location, as a UTC
// midnight so that dates compare by day.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateOnly reads a stored date column, which carries its day in UTC.
func dateOnly(t time.Time) time.Time {
	return civil(t.UTC())
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
