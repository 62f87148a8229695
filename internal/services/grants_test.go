package services

import (
	"testing"

	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGrantValidation(t *testing.T) {
	db := testDB(t)

	_, err := CreateGrant(db, GrantInput{
		AmountMin: amount("20000"),
		AmountMax: amount("5000"),
		OpenDate:  date(2026, 5, 1),
		CloseDate: date(2026, 4, 1),
		Status:    "closed",
	})
	require.Error(t, err)
	assert.Equal(t, []string{"name", "amountMax", "closeDate", "status"}, pipeline.AsValidationErrors(err).Fields())

	g, err := CreateGrant(db, GrantInput{Name: "  Local Sport Grant ", EligibleStates: []string{"vic", " VIC", ""}})
	require.NoError(t, err)
	assert.Equal(t, "Local Sport Grant", g.Name)
	assert.Equal(t, models.GrantDraft, g.Status)
	assert.True(t, g.IsActive)
	assert.Equal(t, []string{"VIC"}, g.States())
}

func TestGrantTransitions(t *testing.T) {
	cases := []struct {
		from, to   models.GrantStatus
		correction bool
		ok         bool
	}{
		{models.GrantDraft, models.GrantOpen, false, true},
		{models.GrantOpen, models.GrantClosed, false, true},
		{models.GrantDraft, models.GrantClosed, false, true},
		{models.GrantOpen, models.GrantOpen, false, true},
		{models.GrantOpen, models.GrantDraft, false, false},
		{models.GrantClosed, models.GrantOpen, false, false},
		{models.GrantClosed, models.GrantOpen, true, true},
	}
	for _, c := range cases {
		err := CheckGrantTransition(c.from, c.to, c.correction)
		if c.ok {
			assert.NoError(t, err, "%s -> %s", c.from, c.to)
		} else {
			assert.ErrorIs(t, err, pipeline.ErrConflict, "%s -> %s", c.from, c.to)
		}
	}
}

func TestSetGrantStatus(t *testing.T) {
	f := newFixture(t)

	_, err := SetGrantStatus(f.db, f.grant.ID, "archived", false)
	assert.ErrorIs(t, err, ErrInvalidGrantStatus)

	g, err := SetGrantStatus(f.db, f.grant.ID, "closed", false)
	require.NoError(t, err)
	assert.Equal(t, models.GrantClosed, g.Status)

	_, err = SetGrantStatus(f.db, f.grant.ID, "open", false)
	assert.ErrorIs(t, err, pipeline.ErrConflict)

	g, err = SetGrantStatus(f.db, f.grant.ID, "open", true)
	require.NoError(t, err)
	assert.Equal(t, models.GrantOpen, g.Status)

	_, err = SetGrantStatus(f.db, "missing", "open", false)
	assert.ErrorIs(t, err, pipeline.ErrNotFound)
}

func TestCloseExpiredGrants(t *testing.T) {
	f := newFixture(t)
	past, err := CreateGrant(f.db, GrantInput{Name: "Winter Sport", Status: "open", CloseDate: date(2026, 3, 1)})
	require.NoError(t, err)
	today, err := CreateGrant(f.db, GrantInput{Name: "Autumn Sport", Status: "open", CloseDate: date(2026, 3, 2)})
	require.NoError(t, err)
	draft, err := CreateGrant(f.db, GrantInput{Name: "Draft Sport", CloseDate: date(2026, 1, 1)})
	require.NoError(t, err)

	n, err := CloseExpiredGrants(f.db, date(2026, 3, 2).Time())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for id, want := range map[string]models.GrantStatus{
		past.ID:    models.GrantClosed,
		today.ID:   models.GrantOpen,
		draft.ID:   models.GrantDraft,
		f.grant.ID: models.GrantOpen,
	} {
		g, err := GetGrant(f.db, id, testNow)
		require.NoError(t, err)
		assert.Equal(t, want, g.Status, g.Name)
	}

	n, err = CloseExpiredGrants(f.db, date(2026, 3, 2).Time())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMatchClubs(t *testing.T) {
	f := newFixture(t)

	_, err := MatchClubs(f.db, f.grant.ID, nil)
	assert.ErrorIs(t, err, ErrRequired)

	res, err := MatchClubs(f.db, f.grant.ID, []string{f.club.ID, f.other.ID, f.other.ID, "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{f.other.ID}, res.Created)
	assert.Equal(t, []string{f.club.ID}, res.Skipped)
	assert.Equal(t, []string{"ghost"}, res.Unknown)

	rows, err := ListGrantApplications(f.db, f.grant.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = SetGrantStatus(f.db, f.grant.ID, "closed", false)
	require.NoError(t, err)
	_, err = MatchClubs(f.db, f.grant.ID, []string{f.other.ID})
	assert.ErrorIs(t, err, pipeline.ErrConflict)
}

func TestListGrants(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"Alpha Fund", "Beta Fund", "Gamma Program"} {
		_, err := CreateGrant(f.db, GrantInput{Name: name, Provider: "Council", Status: "open"})
		require.NoError(t, err)
	}
	_, err := CreateGrant(f.db, GrantInput{Name: "Hidden Fund", IsActive: ptr(false)})
	require.NoError(t, err)

	page, err := ListGrants(f.db, GrantQuery{Search: "FUND", Sort: "name", Order: "asc"}, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	names := make([]string, 0, len(page.Grants))
	for _, g := range page.Grants {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Alpha Fund", "Beta Fund", "Community Facilities Fund"}, names)

	page, err = ListGrants(f.db, GrantQuery{Sort: "name", Order: "asc", Page: Page{Page: 2, PerPage: 3}}, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Grants, 1)
	assert.Equal(t, "Gamma Program", page.Grants[0].Name)

	page, err = ListGrants(f.db, GrantQuery{Search: "community"}, testNow)
	require.NoError(t, err)
	require.Len(t, page.Grants, 1)
	row := page.Grants[0]
	assert.Equal(t, "$5K – $20K", row.Amount)
	assert.True(t, row.ClosingSoon)
	assert.Equal(t, "sport.nsw.gov.au", row.LinkDomain)
	assert.Equal(t, []string{"ACT", "NSW"}, row.States)
	assert.Equal(t, int64(1), row.ApplicationCount)
}

func TestNewPageClamps(t *testing.T) {
	assert.Equal(t, Page{Page: 1, PerPage: DefaultPerPage}, NewPage(0, 0))
	assert.Equal(t, Page{Page: 3, PerPage: MaxPerPage}, NewPage(3, 500))
	p := NewPage(2, 10)
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, 3, p.TotalPages(21))
	assert.Equal(t, 0, p.TotalPages(0))
}
