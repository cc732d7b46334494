// Package costs renders job costs for user-facing messages.
package costs

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatFunc renders a non-negative, currency-agnostic cost as display text.
// Implementations must be pure.
type FormatFunc func(cost float64) string

// Config selects the locale and currency used for display.
type Config struct {
	// Locale is a BCP 47 tag such as "en-US".
	Locale string `yaml:"locale"`

	// Currency is an ISO 4217 code such as "USD".
	Currency string `yaml:"currency"`
}

// DefaultConfig returns en-US / USD.
func DefaultConfig() Config {
	return Config{Locale: "en-US", Currency: "USD"}
}

// Formatter formats costs with a locale-aware currency symbol and the
// currency's standard number of decimals.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
	scale   int
}

// New creates a formatter for cfg.
func New(cfg Config) (*Formatter, error) {
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", cfg.Locale, err)
	}

	unit, err := currency.ParseISO(strings.ToUpper(cfg.Currency))
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", cfg.Currency, err)
	}

	scale, _ := currency.Standard.Rounding(unit)

	return &Formatter{
		printer: message.NewPrinter(tag),
		unit:    unit,
		scale:   scale,
	}, nil
}

// Format renders cost, e.g. "$4.50" for en-US / USD.
func (f *Formatter) Format(cost float64) string {
	return f.printer.Sprintf("%v%v", currency.Symbol(f.unit), number.Decimal(cost, number.Scale(f.scale)))
}

// Func returns Format as a FormatFunc.
func (f *Formatter) Func() FormatFunc {
	return f.Format
}

// Plain formats a cost with two decimals and no currency symbol.
func Plain(cost float64) string {
	return fmt.Sprintf("%.2f", cost)
}
