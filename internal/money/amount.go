package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var ErrNoDigits = errors.New("amount has no digits")

// PricePattern matches an amount written with exactly two decimals,
// optionally grouped in thousands: "23.50", "1.234,56", "1,234.56".
var PricePattern = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})+[.,]\d{2}\b|\d+[.,]\d{2}\b`)

// AmountPattern matches any number that could be a monetary amount.
var AmountPattern = regexp.MustCompile(`-?\d[\d.,]*\d|-?\d`)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses an amount in either the European ("1.234,56") or the
// US ("1,234.56") convention. Currency tokens and spaces are ignored.
//
// When both separators are present the rightmost one is the decimal
// separator. A lone comma is a decimal separator only when exactly two
// digits follow it. A lone dot followed by exactly three digits is a
// thousands separator when it groups the number, otherwise it is decimal.
func ParseAmount(s string) (decimal.Decimal, error) {
	negative := false

	var b strings.Builder

	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			negative = true
		case unicode.IsSpace(r), unicode.IsLetter(r), unicode.IsSymbol(r), r == '\'':
			// currency tokens, grouping spaces and apostrophes
		default:
			return decimal.Zero, fmt.Errorf("parsing amount %q: unexpected %q", s, r)
		}
	}

	clean := strings.Trim(b.String(), ".,")
	if clean == "" {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, ErrNoDigits)
	}

	clean = canonical(clean)
	if negative {
		clean = "-" + clean
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}

	return d, nil
}

// canonical rewrites digits with mixed separators into "1234.56" form.
func canonical(s string) string {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}

		return strings.ReplaceAll(s, ",", "")

	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 == 2 {
			return strings.Replace(s, ",", ".", 1)
		}

		return strings.ReplaceAll(s, ",", "")

	case lastDot >= 0:
		if isThousandsGrouped(s, '.') {
			return strings.ReplaceAll(s, ".", "")
		}

		if strings.Count(s, ".") > 1 {
			// "1.234.56": only the last dot can be decimal.
			head, tail := s[:lastDot], s[lastDot+1:]
			return strings.ReplaceAll(head, ".", "") + "." + tail
		}

		return s
	}

	return s
}

// isThousandsGrouped reports whether s looks like "1.234" or "12.345.678":
// a leading group of one to three digits (not a bare zero) followed by one
// or more groups of exactly three digits.
func isThousandsGrouped(s string, sep byte) bool {
	groups := strings.Split(s, string(sep))
	if len(groups) < 2 {
		return false
	}

	head := groups[0]
	if len(head) == 0 || len(head) > 3 || head == "0" {
		return false
	}

	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}

	return true
}

// Round2 rounds to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Cents converts an amount to integer cents.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// Format renders an amount with two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
