package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nd(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(v))
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "$12,500", Currency(d("12500")))
	assert.Equal(t, "$1,234.5", Currency(d("1234.50")))
	assert.Equal(t, "$0", Currency(decimal.Zero))
}

func TestShortAndKiloAmounts(t *testing.T) {
	assert.Equal(t, "$20K", ShortCurrency(d("20000")))
	assert.Equal(t, "$2.5K", ShortCurrency(d("2500")))
	assert.Equal(t, "$1.5M", ShortCurrency(d("1500000")))
	assert.Equal(t, "$950", ShortCurrency(d("950")))

	assert.Equal(t, "$12.5k", KiloAmount(d("12500")))
	assert.Equal(t, "$40k", KiloAmount(d("40000")))
	assert.Equal(t, "$800", KiloAmount(d("800")))
}

func TestAmountRange(t *testing.T) {
	none := decimal.NullDecimal{}
	assert.Equal(t, "$5K – $20K", AmountRange(nd("5000"), nd("20000")))
	assert.Equal(t, "$20K", AmountRange(nd("20000"), nd("20000")))
	assert.Equal(t, "Up to $50K", AmountRange(none, nd("50000")))
	assert.Equal(t, "From $1K", AmountRange(nd("1000"), none))
	assert.Equal(t, Placeholder, AmountRange(none, none))
}

func TestRelativeTimes(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "5m ago", TimeAgo(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", TimeAgo(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", TimeAgo(now.Add(-50*time.Hour), now))
	assert.Equal(t, "0m ago", TimeAgo(now.Add(time.Minute), now))

	assert.Equal(t, "today", LastActive(now.Add(-2*time.Hour), now))
	assert.Equal(t, "yesterday", LastActive(now.Add(-30*time.Hour), now))
	assert.Equal(t, "4d ago", LastActive(now.Add(-4*24*time.Hour), now))
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "RC", Initials("Riverside Football Club"))
	assert.Equal(t, "SA", Initials("st albans"))
	assert.Equal(t, "UN", Initials("Unicorns"))
	assert.Equal(t, "A", Initials("a"))
	assert.Equal(t, "", Initials("  "))
}

func TestDatesAndHosts(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2 Mar 2026", Date(&day))
	assert.Equal(t, Placeholder, Date(nil))
	assert.Equal(t, "2 Mar", ShortDate(day))

	assert.Equal(t, "sport.vic.gov.au", Hostname("https://www.sport.vic.gov.au/grants?x=1"))
	assert.Equal(t, "example.org", Hostname("http://example.org:8080/path"))
	assert.Equal(t, "", Hostname(""))
}
