package services

import (
	"testing"
	"time"

	"github.com/localnerve/grants-portal/internal/database"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var sydney, _ = time.LoadLocation("Australia/Sydney")

// testNow is Monday 2 March 2026, mid morning in Sydney.
var testNow = time.Date(2026, 3, 2, 10, 30, 0, 0, sydney)

func ptr[T any](v T) *T {
	return &v
}

func date(y int, m time.Month, d int) *types.FlexDate {
	f := types.FlexDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	return &f
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

type fixture struct {
	db    *gorm.DB
	club  *models.Club
	other *models.Club
	grant *models.Grant
	app   *models.GrantApplication
}

// newFixture seeds two clubs, one open grant closing in a week and an
// application of the first club in review.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)

	club, err := CreateClub(db, ClubInput{
		LegalEntityName: ptr("Riverside Football Club Incorporated"),
		ShortenedName:   ptr("Riverside FC"),
		ABN:             ptr("12 345 678 901"),
		About:           ptr("Community football since 1962."),
		Addresses: map[string]AddressInput{
			models.AddressOrganisation: {Street: "1 Oval Rd", Suburb: "Riverside", State: "nsw", Postcode: "2000"},
		},
	})
	require.NoError(t, err)

	other, err := CreateClub(db, ClubInput{
		LegalEntityName: ptr("Harbour Athletics Club"),
		ABN:             ptr("98765432109"),
	})
	require.NoError(t, err)

	grant, err := CreateGrant(db, GrantInput{
		Name:           "Community Facilities Fund",
		Provider:       "Office of Sport",
		GrantType:      "facilities",
		AmountMin:      amount("5000"),
		AmountMax:      amount("20000"),
		OpenDate:       date(2026, 2, 1),
		CloseDate:      date(2026, 3, 9),
		Status:         "open",
		ApplicationURL: "https://www.sport.nsw.gov.au/grants/cff",
		EligibleStates: []string{"nsw", "NSW", "act"},
	})
	require.NoError(t, err)

	app, err := CreateApplication(db, club.ID, grant.ID, "proceeding")
	require.NoError(t, err)
	_, err = SetStage(db, club.ID, app.ID, "review", testNow)
	require.NoError(t, err)
	app, err = GetApplication(db, club.ID, app.ID)
	require.NoError(t, err)

	return &fixture{db: db, club: club, other: other, grant: grant, app: app}
}

func (f *fixture) reload(t *testing.T) *models.GrantApplication {
	t.Helper()
	app, err := GetApplication(f.db, f.club.ID, f.app.ID)
	require.NoError(t, err)
	return app
}

func decimalOf(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
