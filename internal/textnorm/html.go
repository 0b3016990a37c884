package textnorm

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Title:    true,
	atom.Noscript: true,
	atom.Template: true,
}

var lineBreaks = map[atom.Atom]bool{
	atom.Tr:       true,
	atom.P:        true,
	atom.Div:      true,
	atom.Li:       true,
	atom.Br:       true,
	atom.Table:    true,
	atom.Thead:    true,
	atom.Tbody:    true,
	atom.Tfoot:    true,
	atom.Section:  true,
	atom.Article:  true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.H1:       true,
	atom.H2:       true,
	atom.H3:       true,
	atom.H4:       true,
	atom.H5:       true,
	atom.H6:       true,
	atom.Dt:       true,
	atom.Dd:       true,
	atom.Ul:       true,
	atom.Ol:       true,
	atom.Form:     true,
	atom.Fieldset: true,
}

var cells = map[atom.Atom]bool{
	atom.Td: true,
	atom.Th: true,
}

// FlattenHTML turns an HTML document into text where block boundaries are
// line breaks and table cells are separated by ColumnGap.
func FlattenHTML(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)

	var b strings.Builder

	depth := 0

	for {
		tt := z.Next()

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("tokenizing html: %w", err)
			}

			return Normalize(b.String()).Joined, nil

		case html.TextToken:
			if depth > 0 {
				continue
			}

			b.WriteString(flattenSpaces(string(z.Text())))

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)

			switch {
			case skipped[a]:
				if tt == html.StartTagToken {
					depth++
				}
			case a == atom.Br:
				b.WriteByte('\n')
			case cells[a]:
				b.WriteString(ColumnGap)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)

			switch {
			case skipped[a]:
				if depth > 0 {
					depth--
				}
			case cells[a]:
				b.WriteString(ColumnGap)
			case lineBreaks[a]:
				b.WriteByte('\n')
			}
		}
	}
}

// flattenSpaces folds source formatting whitespace inside a text node into
// single spaces so only markup produces column gaps and line breaks.
func flattenSpaces(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}

		return ""
	}

	out := strings.Join(fields, " ")

	if strings.TrimLeft(s[:1], " \t\r\n") == "" {
		out = " " + out
	}

	if strings.TrimRight(s[len(s)-1:], " \t\r\n") == "" {
		out += " "
	}

	return out
}
