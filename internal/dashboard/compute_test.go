package dashboard

import (
	"testing"
	"time"

	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sydney, _ = time.LoadLocation("Australia/Sydney")

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func interest(i pipeline.Interest) *pipeline.Interest { return &i }

func fixture(now time.Time) Snapshot {
	return Snapshot{
		Clubs: []ClubRecord{
			{ID: "c1", LegalEntityName: "Riverside Football Club Inc", ShortenedName: "Riverside FC", PlanCode: "GRP", UpdatedAt: now.Add(-2 * time.Hour)},
			{ID: "c2", LegalEntityName: "Hilltop Netball Association", UpdatedAt: now.AddDate(0, 0, -3)},
			{ID: "c3", LegalEntityName: "Quiet Bowls Club", ShortenedName: "Quiet Bowls"},
		},
		Grants: []GrantRecord{
			{ID: "g1", Name: "Community Facilities", Provider: "State", Status: models.GrantOpen, IsActive: true, CloseDate: day(2026, 3, 2)},
			{ID: "g2", Name: "Sport Equipment", Status: models.GrantOpen, IsActive: true, CloseDate: day(2026, 3, 16)},
			{ID: "g3", Name: "Later Grant", Status: models.GrantOpen, IsActive: true, CloseDate: day(2026, 3, 17)},
			{ID: "g4", Name: "Expired", Status: models.GrantOpen, IsActive: true, CloseDate: day(2026, 3, 1)},
			{ID: "g5", Name: "Closed", Status: models.GrantClosed, IsActive: true, CloseDate: day(2026, 3, 5)},
			{ID: "g6", Name: "Hidden", Status: models.GrantOpen, IsActive: false, CloseDate: day(2026, 3, 3)},
		},
		Applications: []ApplicationRecord{
			{ID: "a1", ClubID: "c1", GrantID: "g1", Stage: pipeline.StageDrafting, PendingItems: 2, UpdatedAt: now.Add(-time.Minute)},
			{ID: "a2", ClubID: "c1", GrantID: "g2", Stage: pipeline.StageOpenMatch, Interest: interest(pipeline.InterestInterested), UpdatedAt: now.Add(-time.Hour)},
			{ID: "a3", ClubID: "c2", GrantID: "g1", Stage: pipeline.StageWon, AmountWon: decimal.NewFromInt(12500), OutcomeDate: day(2026, 2, 10), PendingItems: 3, UpdatedAt: now.Add(-time.Hour)},
			{ID: "a4", ClubID: "c2", GrantID: "g3", Stage: pipeline.StageLost, OutcomeDate: day(2026, 1, 5), UpdatedAt: now.AddDate(0, 0, -1)},
			{ID: "a5", ClubID: "c3", GrantID: "g5", Stage: pipeline.StageWon, AmountWon: decimal.NewFromInt(5000), OutcomeDate: day(2025, 12, 20), UpdatedAt: now.AddDate(0, 0, -10)},
			{ID: "a6", ClubID: "c3", GrantID: "g2", Stage: pipeline.StageDNL, UpdatedAt: now.AddDate(0, 0, -20)},
		},
	}
}

func testNow() time.Time {
	return time.Date(2026, 3, 2, 10, 30, 0, 0, sydney)
}

func TestPipelineCountsCoverNonTerminalApplications(t *testing.T) {
	s := fixture(testNow())
	counts := PipelineCounts(s.Applications)
	require.Len(t, counts, len(pipeline.ActiveStages()))

	total := 0
	for i, c := range counts {
		assert.Equal(t, pipeline.ActiveStages()[i], c.Stage)
		total += c.Count
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, pipeline.StageOpenMatch, counts[0].Stage)
	assert.Equal(t, 1, counts[0].Count)
	assert.Equal(t, 50.0, counts[0].Percentage)
	assert.Equal(t, "Drafting", counts[3].Label)
}

func TestPipelineCountsEmpty(t *testing.T) {
	for _, c := range PipelineCounts(nil) {
		assert.Zero(t, c.Count)
		assert.Zero(t, c.Percentage)
	}
}

func TestClosingSoonWindowEdges(t *testing.T) {
	now := testNow()
	assert.True(t, IsClosingSoon(GrantRecord{Status: models.GrantOpen, CloseDate: day(2026, 3, 2)}, now), "today")
	assert.True(t, IsClosingSoon(GrantRecord{Status: models.GrantOpen, CloseDate: day(2026, 3, 16)}, now), "today+14")
	assert.False(t, IsClosingSoon(GrantRecord{Status: models.GrantOpen, CloseDate: day(2026, 3, 17)}, now), "today+15")
	assert.False(t, IsClosingSoon(GrantRecord{Status: models.GrantOpen, CloseDate: day(2026, 3, 1)}, now), "yesterday")
	assert.False(t, IsClosingSoon(GrantRecord{Status: models.GrantClosed, CloseDate: day(2026, 3, 3)}, now))
	assert.False(t, IsClosingSoon(GrantRecord{Status: models.GrantOpen}, now))
}

func TestClosingSoonUsesBusinessCalendar(t *testing.T) {
	// 23:30 UTC on 1 March is already 2 March in Sydney
	now := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC).In(sydney)
	assert.False(t, IsClosingSoon(GrantRecord{Status: models.GrantOpen, CloseDate: day(2026, 3, 1)}, now))
	assert.True(t, IsClosingSoon(GrantRecord{Status: models.GrantOpen, CloseDate: day(2026, 3, 16)}, now))
}

func TestClosingSoonOrderingAndLimit(t *testing.T) {
	now := testNow()
	got := ClosingSoon(fixture(now), now)
	require.Len(t, got, 3)
	// inactive grants still count while open
	assert.Equal(t, []string{"g1", "g6", "g2"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, 0, got[0].DaysLeft)
	assert.Equal(t, 2, got[0].ApplicationCount)
	assert.Equal(t, "2 Mar", got[0].CloseDateFormatted)

	s := Snapshot{}
	for i := 0; i < 15; i++ {
		s.Grants = append(s.Grants, GrantRecord{ID: string(rune('a' + i)), Status: models.GrantOpen, CloseDate: day(2026, 3, 3)})
	}
	assert.Len(t, ClosingSoon(s, now), ClosingSoonLimit)
	assert.Equal(t, 15, Compute(s, now).ClosingSoon)
}

func TestClubsNeedingAttention(t *testing.T) {
	now := testNow()
	got := ClubsNeedingAttention(fixture(now), now)
	require.Len(t, got, 2)

	assert.Equal(t, "c2", got[0].ID)
	assert.Equal(t, 3, got[0].PendingItems)
	assert.Equal(t, 0, got[0].ActiveApps)
	assert.Equal(t, "GRP", got[0].Plan)
	assert.Equal(t, "HA", got[0].Initials)
	assert.Equal(t, "3d ago", got[0].LastActive)

	assert.Equal(t, "c1", got[1].ID)
	assert.Equal(t, "Riverside FC", got[1].ShortName)
	assert.Equal(t, 2, got[1].ActiveApps)
	assert.Equal(t, "today", got[1].LastActive)
}

func TestClassify(t *testing.T) {
	kind, desc := Classify(pipeline.StageWon, interest(pipeline.InterestInterested))
	assert.Equal(t, ActivityOutcome, kind)
	assert.Equal(t, "Grant application won!", desc)

	kind, desc = Classify(pipeline.StageLost, nil)
	assert.Equal(t, ActivityOutcome, kind)
	assert.Equal(t, "Grant application unsuccessful", desc)

	kind, desc = Classify(pipeline.StageOpenMatch, interest(pipeline.InterestNeedInfo))
	assert.Equal(t, ActivityInterest, kind)
	assert.Contains(t, desc, "Club expressed: ")

	kind, desc = Classify(pipeline.StageReview, nil)
	assert.Equal(t, ActivityStatusChange, kind)
	assert.Equal(t, "Status: Review", desc)
}

func TestRecentActivityOrder(t *testing.T) {
	now := testNow()
	got := RecentActivity(fixture(now), now)
	require.Len(t, got, 6)

	ids := make([]string, len(got))
	for i, a := range got {
		ids[i] = a.ID
	}
	// a2 and a3 share a timestamp and fall back to id order
	assert.Equal(t, []string{"a1", "a2", "a3", "a4", "a5", "a6"}, ids)
	assert.Equal(t, "1m ago", got[0].TimeAgo)
	assert.Equal(t, "Riverside FC", got[0].ClubName)
	assert.Equal(t, "Community Facilities", got[0].GrantName)
	assert.Equal(t, ActivityInterest, got[1].Type)
	assert.Equal(t, ActivityOutcome, got[2].Type)
}

func TestWinRate(t *testing.T) {
	now := testNow()
	assert.Nil(t, WinRate(nil, now))

	rate := WinRate(fixture(now).Applications, now)
	require.NotNil(t, rate)
	// a5 was decided last year
	assert.InDelta(t, 0.5, *rate, 1e-9)
}

func TestComputeHeadlines(t *testing.T) {
	now := testNow()
	stats := Compute(fixture(now), now)

	assert.Equal(t, 3, stats.TotalClubs)
	assert.Equal(t, 4, stats.ActiveGrants)
	assert.Equal(t, 3, stats.ClosingSoon)
	assert.Equal(t, 2, stats.TotalApplications)
	assert.Equal(t, 5, stats.PendingItems)
	assert.Equal(t, 1, stats.WonThisYear)
	assert.Equal(t, 1, stats.LostThisYear)
	assert.Equal(t, "$12.5k", stats.TotalWonAmount)
	require.NotNil(t, stats.WinRate)
	assert.NotNil(t, stats.ClosingSoonGrants)
	assert.NotNil(t, stats.ClubsNeedingAttention)
}

func TestComputeIsIdempotent(t *testing.T) {
	now := testNow()
	s := fixture(now)
	assert.Equal(t, Compute(s, now), Compute(s, now))
}

func TestComputeEmptySnapshot(t *testing.T) {
	stats := Compute(Snapshot{}, testNow())
	assert.Nil(t, stats.WinRate)
	assert.Empty(t, stats.ClosingSoonGrants)
	assert.NotNil(t, stats.ClosingSoonGrants)
	assert.Empty(t, stats.RecentActivity)
	assert.Equal(t, "$0", stats.TotalWonAmount)
}

func TestCatalogue(t *testing.T) {
	now := testNow()
	cs := Catalogue(fixture(now), now)
	assert.Equal(t, 4, cs.OpenGrants)
	assert.Equal(t, 6, cs.TotalApplications)
	assert.Equal(t, 2, cs.ClosingSoon)
	assert.Equal(t, 3, cs.ClubsInterested)
}
