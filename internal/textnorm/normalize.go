// Package textnorm canonicalizes OCR and HTML text before extraction.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
)

// ColumnGap separates table columns. Runs of two or more spaces, tabs and
// HTML cell boundaries all collapse to it; a single space stays a word space.
const ColumnGap = "  "

// Text is the normalized form of one scanned document.
type Text struct {
	Joined string
	Lines  []string
}

var (
	digitCurrency = regexp.MustCompile(`(\d)(€|EUR\b|LEK\b|ALL\b|Lekë|Leke)`)
	currencyDigit = regexp.MustCompile(`(€)(\d)`)
)

// Normalize canonicalizes raw text. Empty input yields an empty Text.
// Normalizing Joined again yields an identical Text.
func Normalize(raw string) Text {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	lines := make([]string, 0, strings.Count(raw, "\n")+1)

	for _, line := range strings.Split(raw, "\n") {
		line = normalizeLine(line)
		if line == "" {
			continue
		}

		lines = append(lines, line)
	}

	return Text{
		Joined: strings.Join(lines, "\n"),
		Lines:  lines,
	}
}

func normalizeLine(line string) string {
	var b strings.Builder

	spaces := 0

	flush := func() {
		switch {
		case spaces == 0:
		case spaces >= 2:
			b.WriteString(ColumnGap)
		default:
			b.WriteByte(' ')
		}

		spaces = 0
	}

	for _, r := range line {
		switch {
		case r == '\t':
			// tabs separate columns in exported text
			spaces += 2
		case unicode.IsSpace(r):
			spaces++
		case unicode.IsControl(r), r == '\ufeff', r == '\u200b':
		default:
			flush()
			b.WriteRune(r)
		}
	}

	out := b.String()
	out = NormalizeAmountTokens(out)

	return strings.TrimSpace(out)
}

// NormalizeAmountTokens separates currency tokens glued to digits on either
// side: "23.50€" -> "23.50 €", "€5" -> "€ 5".
func NormalizeAmountTokens(s string) string {
	s = digitCurrency.ReplaceAllString(s, "$1 $2")
	return currencyDigit.ReplaceAllString(s, "$1 $2")
}

// Columns splits a normalized line on column gaps.
func Columns(line string) []string {
	parts := strings.Split(line, ColumnGap)

	cols := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cols = append(cols, p)
		}
	}

	return cols
}

// HasColumns reports whether a line carries at least one column gap.
func HasColumns(line string) bool {
	return strings.Contains(line, ColumnGap)
}
