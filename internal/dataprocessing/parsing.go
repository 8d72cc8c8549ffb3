package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"projectpulse/pkg/contracts/domain"
)

// spanishMonths maps the three-letter Spanish month abbreviations used in
// the sheet to calendar months.
var spanishMonths = map[string]time.Month{
	"ene": time.January,
	"feb": time.February,
	"mar": time.March,
	"abr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dic": time.December,
}

// statusKeywords is checked in order; the first keyword found in the
// lower-cased raw status decides the canonical value.
var statusKeywords = []struct {
	keywords  []string
	canonical string
}{
	{[]string{"curso"}, domain.StatusInProgress},
	{[]string{"completado"}, domain.StatusCompleted},
	{[]string{"pendiente"}, domain.StatusPending},
	{[]string{"producción", "produccion"}, domain.StatusProduction},
	{[]string{"diseño"}, domain.StatusDesign},
}

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// CanonicalStatus maps a free-text status to one of the canonical statuses.
// Unrecognized values are returned trimmed; empty values become "N/A".
func CanonicalStatus(raw string) string {
	lower := strings.ToLower(raw)
	for _, entry := range statusKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.canonical
			}
		}
	}
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		return trimmed
	}
	return domain.StatusUnknown
}

// ParseSpanishDate parses "DD-mon" (e.g. "15-mar") in the year and location of
// now. It returns nil for anything it cannot read.
//
// Days 1..31 are accepted for every month; a day past the end of a short
// month rolls into the next month ("31-feb" is 3 March in a common year).
func ParseSpanishDate(s string, now time.Time) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return nil
	}

	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || day < 1 || day > 31 {
		return nil
	}
	month, ok := spanishMonths[strings.ToLower(strings.TrimSpace(parts[1]))]
	if !ok {
		return nil
	}

	t := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	return &t
}

// ParseAmount parses a European formatted currency amount such as
// "1.234,56 €". Thousands dots are dropped and the decimal comma becomes a
// dot. Only the leading numeric part is read; anything unreadable is 0.
func ParseAmount(s string) float64 {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '€', r == '.':
			continue
		case r == ',':
			b.WriteByte('.')
		case unicode.IsSpace(r):
			continue
		default:
			b.WriteRune(r)
		}
	}

	match := leadingFloat.FindString(b.String())
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
