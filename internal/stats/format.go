package stats

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder is rendered for missing or non-finite numbers.
const Placeholder = "—"

var locale = language.EuropeanPortuguese

// Money formats an amount in euros without decimals, e.g. "950 €".
func Money(v *float64) string {
	if !finite(v) {
		return Placeholder
	}
	// message.Printer is not safe for concurrent use
	p := message.NewPrinter(locale)
	return p.Sprintf("%v €", number.Decimal(*v, number.MaxFractionDigits(0)))
}

// Number formats v with at most two decimals, e.g. "12,5".
func Number(v *float64) string {
	if !finite(v) {
		return Placeholder
	}
	p := message.NewPrinter(locale)
	return p.Sprintf("%v", number.Decimal(*v, number.MaxFractionDigits(2)))
}

// Percent formats a ratio (0.052) as "5,2 %".
func Percent(v *float64) string {
	if !finite(v) {
		return Placeholder
	}
	p := message.NewPrinter(locale)
	return p.Sprintf("%v %%", number.Decimal(*v*100, number.MaxFractionDigits(1)))
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
