package exporter

import (
	"fmt"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Formatter renders numbers for one locale and currency.
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	printer *message.Printer
	symbol  string
}

// NewFormatter parses a BCP 47 locale and an ISO 4217 currency code.
func NewFormatter(locale, currencyCode string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", currencyCode, err)
	}

	p := message.NewPrinter(tag)
	return &Formatter{
		tag:     tag,
		unit:    unit,
		printer: p,
		symbol:  p.Sprint(currency.Symbol(unit)),
	}, nil
}

// Locale returns the formatter's language tag.
func (f *Formatter) Locale() language.Tag { return f.tag }

// Currency returns the ISO code, e.g. "EUR".
func (f *Formatter) Currency() string { return f.unit.String() }

// Number formats v with two decimals and locale grouping.
func (f *Formatter) Number(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.Scale(2)))
}

// Money formats v followed by the currency symbol, e.g. "12.000,00 €".
func (f *Formatter) Money(v float64) string {
	return f.Number(v) + " " + f.symbol
}

// Percent formats a 0..100 value with one decimal, e.g. "45,5 %".
func (f *Formatter) Percent(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.Scale(1))) + " %"
}

// MonthLabel turns a "YYYY-MM" key into "marzo 2026" when the locale is
// Spanish. Other locales, and keys that do not parse, get the key unchanged.
// A nil Formatter uses Spanish.
func (f *Formatter) MonthLabel(key string) string {
	if f != nil {
		if base, _ := f.tag.Base(); base.String() != "es" {
			return key
		}
	}
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return spanishMonths[t.Month()-1] + " " + t.Format("2006")
}

// Date formats an optional date as DD/MM/YYYY.
func Date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func formatBool(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
