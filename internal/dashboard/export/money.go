package export

import (
	"fmt"
	"strconv"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money formats amounts for a locale, prefixed by the locale's currency code.
type Money struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewMoney builds a formatter for a BCP 47 locale such as "pt-BR".
func NewMoney(locale string) (Money, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return Money{}, fmt.Errorf("export: locale %q: %w", locale, err)
	}
	unit, conf := currency.FromTag(tag)
	if conf == language.No {
		return Money{}, fmt.Errorf("export: no currency for locale %q", locale)
	}
	return Money{printer: message.NewPrinter(tag), unit: unit}, nil
}

// Format renders v with two decimals and locale grouping.
func (m Money) Format(v float64) string {
	if m.printer == nil {
		return formatFloat(v)
	}
	return m.printer.Sprintf("%s %.2f", m.unit, v)
}

// Percent renders a margin with one decimal.
func (m Money) Percent(v float64) string {
	if m.printer == nil {
		return strconv.FormatFloat(v, 'f', 1, 64) + "%"
	}
	return m.printer.Sprintf("%.1f%%", v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
