// compute.go
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

package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/localnerve/grants-portal/internal/format"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/shopspring/decimal"
)

// PipelineCount is one bar of the funnel.
type PipelineCount struct {
	Stage      pipeline.Stage `json:"stage"`
	Label      string         `json:"label"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

// PipelineCounts groups non-terminal applications by stage, in pipeline order.
// Every non-terminal stage is present, including empty ones.
func PipelineCounts(apps []ApplicationRecord) []PipelineCount {
	counts := make(map[pipeline.Stage]int)
	total := 0
	for _, a := range apps {
		if !a.Stage.Valid() || a.Stage.IsTerminal() {
			continue
		}
		counts[a.Stage]++
		total++
	}

	out := make([]PipelineCount, 0, len(pipeline.ActiveStages()))
	for _, s := range pipeline.ActiveStages() {
		pc := PipelineCount{Stage: s, Label: s.Label(), Count: counts[s]}
		if total > 0 {
			pc.Percentage = math.Round(float64(pc.Count)*1000/float64(total)) / 10
		}
		out = append(out, pc)
	}
	return out
}

// ClosingGrant is one row of the closing soon panel.
type ClosingGrant struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Provider           string    `json:"provider"`
	CloseDate          time.Time `json:"closeDate"`
	CloseDateFormatted string    `json:"closeDateFormatted"`
	DaysLeft           int       `json:"daysLeft"`
	ApplicationCount   int       `json:"applicationCount"`
}

// IsClosingSoon reports whether an open grant closes within
// [today, today+14] in now's calendar.
func IsClosingSoon(g GrantRecord, now time.Time) bool {
	if g.Status != models.GrantOpen || g.CloseDate == nil {
		return false
	}
	days := daysBetween(civil(now), dateOnly(*g.CloseDate))
	return days >= 0 && days <= ClosingSoonWindowDays
}

func closingSoon(s Snapshot, now time.Time) []ClosingGrant {
	appCounts := make(map[string]int)
	for _, a := range s.Applications {
		appCounts[a.GrantID]++
	}

	var out []ClosingGrant
	for _, g := range s.Grants {
		if !IsClosingSoon(g, now) {
			continue
		}
		closeDate := dateOnly(*g.CloseDate)
		out = append(out, ClosingGrant{
			ID:                 g.ID,
			Name:               g.Name,
			Provider:           g.Provider,
			CloseDate:          closeDate,
			CloseDateFormatted: format.ShortDate(closeDate),
			DaysLeft:           daysBetween(civil(now), closeDate),
			ApplicationCount:   appCounts[g.ID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CloseDate.Equal(out[j].CloseDate) {
			return out[i].CloseDate.Before(out[j].CloseDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ClosingSoon returns open grants closing within the window, soonest first,
// capped at ClosingSoonLimit.
func ClosingSoon(s Snapshot, now time.Time) []ClosingGrant {
	out := closingSoon(s, now)
	if len(out) > ClosingSoonLimit {
		out = out[:ClosingSoonLimit]
	}
	return out
}

// AttentionClub is a club with outstanding pending items.
type AttentionClub struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ShortName    string `json:"shortName"`
	Initials     string `json:"initials"`
	Plan         string `json:"plan"`
	PendingItems int    `json:"pendingItems"`
	ActiveApps   int    `json:"activeApps"`
	LastActive   string `json:"lastActive"`
}

// ClubsNeedingAttention lists clubs with at least one pending item, most
// pending first and then by name, capped at AttentionLimit.
func ClubsNeedingAttention(s Snapshot, now time.Time) []AttentionClub {
	pending := make(map[string]int)
	active := make(map[string]int)
	for _, a := range s.Applications {
		pending[a.ClubID] += a.PendingItems
		if a.Stage.Valid() && !a.Stage.IsTerminal() {
			active[a.ClubID]++
		}
	}

	var out []AttentionClub
	for _, c := range s.Clubs {
		if pending[c.ID] == 0 {
			continue
		}
		plan := c.PlanCode
		if plan == "" {
			plan = models.DefaultPlanCode
		}
		out = append(out, AttentionClub{
			ID:           c.ID,
			Name:         c.LegalEntityName,
			ShortName:    c.Name(),
			Initials:     format.Initials(c.Name()),
			Plan:         plan,
			PendingItems: pending[c.ID],
			ActiveApps:   active[c.ID],
			LastActive:   format.LastActive(c.UpdatedAt, now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PendingItems != out[j].PendingItems {
			return out[i].PendingItems > out[j].PendingItems
		}
		if out[i].ShortName != out[j].ShortName {
			return out[i].ShortName < out[j].ShortName
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > AttentionLimit {
		out = out[:AttentionLimit]
	}
	return out
}

// ActivityKind classifies a recent activity entry.
type ActivityKind string

const (
	ActivityStatusChange ActivityKind = "status_change"
	ActivityInterest     ActivityKind = "interest"
	ActivityOutcome      ActivityKind = "outcome"
)

// Activity is one entry of the recent activity feed.
type Activity struct {
	ID           string       `json:"id"`
	Type         ActivityKind `json:"type"`
	ClubName     string       `json:"clubName"`
	ClubInitials string       `json:"clubInitials"`
	GrantName    string       `json:"grantName"`
	Description  string       `json:"description"`
	Timestamp    time.Time    `json:"timestamp"`
	TimeAgo      string       `json:"timeAgo"`
}

// Classify picks the activity kind: an outcome beats expressed interest, which
// beats a plain status change.
func Classify(stage pipeline.Stage, interest *pipeline.Interest) (ActivityKind, string) {
	switch {
	case stage == pipeline.StageWon:
		return ActivityOutcome, "Grant application won!"
	case stage == pipeline.StageLost:
		return ActivityOutcome, "Grant application unsuccessful"
	case interest != nil:
		return ActivityInterest, "Club expressed: " + interest.Label()
	}
	return ActivityStatusChange, "Status: " + stage.Label()
}

// RecentActivity renders the most recently updated applications, newest first
// with ties broken by id, capped at ActivityLimit.
func RecentActivity(s Snapshot, now time.Time) []Activity {
	clubs := make(map[string]ClubRecord, len(s.Clubs))
	for _, c := range s.Clubs {
		clubs[c.ID] = c
	}
	grants := make(map[string]GrantRecord, len(s.Grants))
	for _, g := range s.Grants {
		grants[g.ID] = g
	}

	apps := make([]ApplicationRecord, len(s.Applications))
	copy(apps, s.Applications)
	sort.SliceStable(apps, func(i, j int) bool {
		if !apps[i].UpdatedAt.Equal(apps[j].UpdatedAt) {
			return apps[i].UpdatedAt.After(apps[j].UpdatedAt)
		}
		return apps[i].ID < apps[j].ID
	})
	if len(apps) > ActivityLimit {
		apps = apps[:ActivityLimit]
	}

	out := make([]Activity, 0, len(apps))
	for _, a := range apps {
		clubName := "Unknown Club"
		if c, ok := clubs[a.ClubID]; ok {
			clubName = c.Name()
		}
		grantName := "Unknown Grant"
		if g, ok := grants[a.GrantID]; ok {
			grantName = g.Name
		}
		kind, desc := Classify(a.Stage, a.Interest)
		out = append(out, Activity{
			ID:           a.ID,
			Type:         kind,
			ClubName:     clubName,
			ClubInitials: format.Initials(clubName),
			GrantName:    grantName,
			Description:  desc,
			Timestamp:    a.UpdatedAt,
			TimeAgo:      format.TimeAgo(a.UpdatedAt, now),
		})
	}
	return out
}

// Outcomes tallies decided applications whose outcome date falls in now's
// calendar year.
type Outcomes struct {
	Won       int
	Lost      int
	WonAmount decimal.Decimal
}

func outcomesThisYear(apps []ApplicationRecord, now time.Time) Outcomes {
	var o Outcomes
	year := now.Year()
	for _, a := range apps {
		if a.OutcomeDate == nil || dateOnly(*a.OutcomeDate).Year() != year {
			continue
		}
		switch a.Stage {
		case pipeline.StageWon:
			o.Won++
			o.WonAmount = o.WonAmount.Add(a.AmountWon)
		case pipeline.StageLost:
			o.Lost++
		}
	}
	return o
}

// WinRate is won / (won + lost) for this calendar year, or nil with no
// decided applications.
func WinRate(apps []ApplicationRecord, now time.Time) *float64 {
	o := outcomesThisYear(apps, now)
	decided := o.Won + o.Lost
	if decided == 0 {
		return nil
	}
	rate := float64(o.Won) / float64(decided)
	return &rate
}

// Stats is the staff dashboard.
type Stats struct {
	TotalClubs            int             `json:"totalClubs"`
	ActiveGrants          int             `json:"activeGrants"`
	ClosingSoon           int             `json:"closingSoon"`
	TotalApplications     int             `json:"totalApplications"`
	PendingItems          int             `json:"pendingItems"`
	WonThisYear           int             `json:"wonThisYear"`
	LostThisYear          int             `json:"lostThisYear"`
	TotalWonAmount        string          `json:"totalWonAmount"`
	WinRate               *float64        `json:"winRate"`
	PipelineCounts        []PipelineCount `json:"pipelineCounts"`
	ClosingSoonGrants     []ClosingGrant  `json:"closingSoonGrants"`
	ClubsNeedingAttention []AttentionClub `json:"clubsNeedingAttention"`
	RecentActivity        []Activity      `json:"recentActivity"`
}

// Compute builds the dashboard. now should be in the business timezone;
// calendar comparisons use now's location.
func Compute(s Snapshot, now time.Time) Stats {
	today := civil(now)

	active := 0
	for _, g := range s.Grants {
		if g.Status == models.GrantOpen && g.CloseDate != nil && !dateOnly(*g.CloseDate).Before(today) {
			active++
		}
	}

	activeApps, pendingItems := 0, 0
	for _, a := range s.Applications {
		if a.Stage.Valid() && !a.Stage.IsTerminal() {
			activeApps++
		}
		pendingItems += a.PendingItems
	}

	outcomes := outcomesThisYear(s.Applications, now)
	closing := closingSoon(s, now)
	soonest := closing
	if len(soonest) > ClosingSoonLimit {
		soonest = soonest[:ClosingSoonLimit]
	}

	return Stats{
		TotalClubs:            len(s.Clubs),
		ActiveGrants:          active,
		ClosingSoon:           len(closing),
		TotalApplications:     activeApps,
		PendingItems:          pendingItems,
		WonThisYear:           outcomes.Won,
		LostThisYear:          outcomes.Lost,
		TotalWonAmount:        format.KiloAmount(outcomes.WonAmount),
		WinRate:               WinRate(s.Applications, now),
		PipelineCounts:        PipelineCounts(s.Applications),
		ClosingSoonGrants:     nonNil(soonest),
		ClubsNeedingAttention: nonNil(ClubsNeedingAttention(s, now)),
		RecentActivity:        RecentActivity(s, now),
	}
}

// CatalogueStats are the grant catalogue stat cards.
type CatalogueStats struct {
	OpenGrants        int `json:"openGrants"`
	TotalApplications int `json:"totalApplications"`
	ClosingSoon       int `json:"closingSoon"`
	ClubsInterested   int `json:"clubsInterested"`
}

// Catalogue counts open active grants, all applications, open active grants
// closing soon and distinct clubs with any application.
func Catalogue(s Snapshot, now time.Time) CatalogueStats {
	var cs CatalogueStats
	for _, g := range s.Grants {
		if g.Status != models.GrantOpen || !g.IsActive {
			continue
		}
		cs.OpenGrants++
		if IsClosingSoon(g, now) {
			cs.ClosingSoon++
		}
	}
	clubs := make(map[string]struct{})
	for _, a := range s.Applications {
		clubs[a.ClubID] = struct{}{}
	}
	cs.TotalApplications = len(s.Applications)
	cs.ClubsInterested = len(clubs)
	return cs
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
