// Package format renders amounts, dates and relative times for API projections.
package format

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Placeholder is rendered where a display value is absent.
const Placeholder = "—"

var (
	thousand = decimal.NewFromInt(1000)
	million  = decimal.NewFromInt(1000000)
)

// Currency renders d as whole dollars with up to two decimals, e.g. $12,500.5.
func Currency(d decimal.Decimal) string {
	f, _ := d.Float64()
	return "$" + humanize.CommafWithDigits(f, 2)
}

// ShortCurrency renders catalogue amounts as $1.5M, $20K or $950.
func ShortCurrency(d decimal.Decimal) string {
	switch {
	case d.GreaterThanOrEqual(million):
		return "$" + scaled(d, million) + "M"
	case d.GreaterThanOrEqual(thousand):
		return "$" + scaled(d, thousand) + "K"
	}
	return Currency(d)
}

// KiloAmount renders dashboard totals as $12.5k, or whole dollars below $1,000.
func KiloAmount(d decimal.Decimal) string {
	if d.GreaterThanOrEqual(thousand) {
		return "$" + scaled(d, thousand) + "k"
	}
	return Currency(d)
}

func scaled(d, unit decimal.Decimal) string {
	if d.Mod(unit).IsZero() {
		return d.Div(unit).StringFixed(0)
	}
	return d.Div(unit).StringFixed(1)
}

// AmountRange renders a grant amount range.
func AmountRange(lo, hi decimal.NullDecimal) string {
	switch {
	case lo.Valid && hi.Valid && !lo.Decimal.IsZero():
		if lo.Decimal.Equal(hi.Decimal) {
			return ShortCurrency(hi.Decimal)
		}
		return ShortCurrency(lo.Decimal) + " – " + ShortCurrency(hi.Decimal)
	case hi.Valid:
		return "Up to " + ShortCurrency(hi.Decimal)
	case lo.Valid:
		return "From " + ShortCurrency(lo.Decimal)
	}
	return Placeholder
}

// Date renders a civil date as 2 Jan 2006, or the placeholder.
func Date(t *time.Time) string {
	if t == nil {
		return Placeholder
	}
	return t.UTC().Format("2 Jan 2006")
}

// ShortDate renders a civil date as 2 Jan.
func ShortDate(t time.Time) string {
	return t.UTC().Format("2 Jan")
}

// TimeAgo renders the time between t and now as Nm, Nh or Nd ago.
func TimeAgo(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	}
	return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
}

// LastActive renders t relative to now as today, yesterday or Nd ago.
func LastActive(t, now time.Time) string {
	days := int(now.Sub(t) / (24 * time.Hour))
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	}
	return fmt.Sprintf("%dd ago", days)
}

// Initials takes the first letter of the first and last words of name, or the
// first two letters of a single word, upper cased.
func Initials(name string) string {
	words := strings.Fields(name)
	switch len(words) {
	case 0:
		return ""
	case 1:
		w := words[0]
		if utf8.RuneCountInString(w) <= 2 {
			return strings.ToUpper(w)
		}
		return strings.ToUpper(string([]rune(w)[:2]))
	}
	first, _ := utf8.DecodeRuneInString(words[0])
	last, _ := utf8.DecodeRuneInString(words[len(words)-1])
	return strings.ToUpper(string([]rune{first, last}))
}

// Hostname extracts the bare host of an application link. An unparseable
// link is returned as is.
func Hostname(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
