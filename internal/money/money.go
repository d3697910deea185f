// Package money parses currency strings from noisy extracted text into
// fixed-precision signed decimals. Parsing is strict: unparseable input is an
// error, never a silent zero.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the fixed decimal precision used throughout the pipeline.
const Places = 2

var symbolReplacer = strings.NewReplacer(
	"£", "", "$", "", "€", "", "¥", "", "₹", "",
	"GBP", "", "USD", "", "EUR", "",
	",", "", " ", "", " ", "",
)

// Parse converts a reported amount to a signed decimal with cents precision.
// It accepts currency symbols, thousands separators, a leading minus, and the
// negative-in-parentheses convention.
func Parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("parse amount: empty input")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.TrimSpace(symbolReplacer.Replace(s))
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}

	if s == "" {
		return decimal.Zero, fmt.Errorf("parse amount %q: no digits", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", raw, err)
	}

	if negative {
		d = d.Neg()
	}
	return d.Round(Places), nil
}

// MustParse is a test helper that panics on invalid input.
func MustParse(raw string) decimal.Decimal {
	d, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return d
}
