// Package lineitem recognizes product rows in normalized invoice text.
package lineitem

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/money"
	"github.com/MrJamesThe3rd/stockscan/internal/textnorm"
)

// Rule names the recognizer that produced an item.
type Rule string

const (
	RuleStrict      Rule = "strict"
	RuleFlexCode    Rule = "flexible-code"
	RuleGenericCode Rule = "generic-code"
	RuleColumns     Rule = "columns"
	RuleTokens      Rule = "tokens"
)

// Match is an emitted item together with its provenance.
type Match struct {
	Item invoice.LineItem
	Rule Rule
	Line string
}

type recognizer struct {
	rule Rule
	fn   func(line string) (invoice.LineItem, bool)
}

// recognizers is the ordered cascade tried on every candidate line.
// The first one producing a priced item wins.
var recognizers = []recognizer{
	{RuleStrict, parseStrict},
	{RuleFlexCode, parseFlexCode},
	{RuleGenericCode, parseGenericCode},
	{RuleColumns, parseColumns},
	{RuleTokens, parseTokens},
}

// Parse extracts line items from normalized lines.
func Parse(lines []string) []invoice.LineItem {
	matches := ParseDebug(lines)

	items := make([]invoice.LineItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, m.Item)
	}

	return items
}

// ParseDebug is Parse reporting which rule produced each item.
func ParseDebug(lines []string) []Match {
	// a header keyword seen only in the footer leaves every section empty
	matches, sawHeader := parseSections(lines)
	if sawHeader && len(matches) > 0 {
		return matches
	}

	return parseHeaderless(lines)
}

func parseSections(lines []string) ([]Match, bool) {
	var (
		matches   []Match
		inSection bool
		sawHeader bool
	)

	for _, line := range lines {
		priced := priceRe.MatchString(line)

		if !inSection {
			if isHeader(line) && !priced {
				inSection = true
				sawHeader = true
			}

			continue
		}

		if isTotals(line) && !structuredRow(line) {
			inSection = false
			continue
		}

		if isHeader(line) && !priced {
			// repeated header on a following page
			continue
		}

		if m, ok := recognize(line); ok {
			matches = append(matches, m)
		}
	}

	return matches, sawHeader
}

// parseHeaderless handles receipts printed without a table header. Only
// lines carrying both a price and a quantity or code signal are considered.
func parseHeaderless(lines []string) []Match {
	var matches []Match

	for _, line := range lines {
		if isTotals(line) && !structuredRow(line) {
			continue
		}

		if !priceRe.MatchString(line) || !hasItemSignal(line) {
			continue
		}

		if m, ok := recognize(line); ok {
			matches = append(matches, m)
		}
	}

	return matches
}

func hasItemSignal(line string) bool {
	if qtyAnyRe.MatchString(line) || flexCodeRe.MatchString(line) {
		return true
	}

	for _, re := range genericCodeRes {
		if re.MatchString(line) {
			return true
		}
	}

	return false
}

func recognize(line string) (Match, bool) {
	for _, r := range recognizers {
		item, ok := r.fn(line)
		if !ok {
			continue
		}

		name, ok := CleanName(item.Name, line, item.Code)
		if !ok {
			// a noisy row is discarded, never retried with a later rule
			return Match{}, false
		}

		item.Name = name

		return Match{Item: item, Rule: r.rule, Line: line}, true
	}

	return Match{}, false
}

func parseStrict(line string) (invoice.LineItem, bool) {
	m := strictRe.FindStringSubmatch(line)
	if m == nil {
		return invoice.LineItem{}, false
	}

	price, err := money.ParseAmount(m[6])
	if err != nil {
		return invoice.LineItem{}, false
	}

	var total *decimal.Decimal

	if m[7] != "" {
		if t, err := money.ParseAmount(m[7]); err == nil {
			total = &t
		}
	}

	return invoice.NewLineItem(m[2], m[3], parseQty(m[4]), price, total), true
}

func parseFlexCode(line string) (invoice.LineItem, bool) {
	loc := flexCodeRe.FindStringIndex(line)
	if loc == nil {
		return invoice.LineItem{}, false
	}

	code := line[loc[0]:loc[1]]

	// Prices are only searched after the code so digits of the code are never read as one.
	tailStart := loc[1]
	qty := 1

	qtyLoc := qtyUnitRe.FindStringSubmatchIndex(line[loc[1]:])
	if qtyLoc != nil {
		qty = parseQty(line[loc[1]+qtyLoc[2] : loc[1]+qtyLoc[3]])
		tailStart = loc[1] + qtyLoc[1]
	}

	amounts := priceRe.FindAllString(line[tailStart:], -1)
	if len(amounts) == 0 {
		return invoice.LineItem{}, false
	}

	price, err := money.ParseAmount(amounts[0])
	if err != nil {
		return invoice.LineItem{}, false
	}

	var total *decimal.Decimal

	if len(amounts) > 1 {
		if t, err := money.ParseAmount(amounts[len(amounts)-1]); err == nil {
			total = &t
		}
	}

	nameEnd := len(line)
	if qtyLoc != nil {
		nameEnd = loc[1] + qtyLoc[0]
	} else if idx := priceRe.FindStringIndex(line[loc[1]:]); idx != nil {
		nameEnd = loc[1] + idx[0]
	}

	name := line[:loc[0]] + " " + line[loc[1]:nameEnd]
	name = rowNumberRe.ReplaceAllString(strings.TrimSpace(name), "")

	return invoice.NewLineItem(code, name, qty, price, total), true
}

func parseGenericCode(line string) (invoice.LineItem, bool) {
	var loc []int

	for _, re := range genericCodeRes {
		if loc = re.FindStringIndex(line); loc != nil {
			break
		}
	}

	if loc == nil {
		return invoice.LineItem{}, false
	}

	code := line[loc[0]:loc[1]]
	rest := line[:loc[0]] + " " + line[loc[1]:]

	amounts := priceRe.FindAllStringIndex(line[loc[1]:], -1)
	if len(amounts) == 0 {
		return invoice.LineItem{}, false
	}

	priceIdx := len(amounts) - 1

	var total *decimal.Decimal

	if len(amounts) > 1 {
		last := amounts[len(amounts)-1]
		if t, err := money.ParseAmount(line[loc[1]+last[0] : loc[1]+last[1]]); err == nil {
			total = &t
			priceIdx = len(amounts) - 2
		}
	}

	p := amounts[priceIdx]

	price, err := money.ParseAmount(line[loc[1]+p[0] : loc[1]+p[1]])
	if err != nil {
		return invoice.LineItem{}, false
	}

	qty := 1

	if m := qtyAnyRe.FindStringSubmatch(rest + " "); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				qty = parseQty(g)
				break
			}
		}
	} else if q, cells, ok := columnQty(line[loc[1] : loc[1]+p[0]]); ok {
		// "ABC12345  Filter  4  12,50": a bare integer cell before the price
		qty = q
		rest = line[:loc[0]] + " " + strings.Join(cells, " ")
	}

	name := codePrefixRe.ReplaceAllString(strings.TrimSpace(rest), "")
	name = rowNumberRe.ReplaceAllString(name, "")
	name = priceRe.ReplaceAllString(name, " ")
	name = qtyAnyRe.ReplaceAllString(name+" ", " ")
	name = trailingRe.ReplaceAllString(name, "")

	return invoice.NewLineItem(code, name, qty, price, total), true
}

// columnQty reads a lone integer cell closing a column-separated segment as
// the quantity and returns the cells preceding it.
func columnQty(seg string) (int, []string, bool) {
	if !textnorm.HasColumns(seg) {
		return 0, nil, false
	}

	cols := textnorm.Columns(seg)
	if len(cols) < 2 || !intRe.MatchString(cols[len(cols)-1]) {
		return 0, nil, false
	}

	return parseQty(cols[len(cols)-1]), cols[:len(cols)-1], true
}

// parseColumns reads a row whose cells are separated by column gaps.
func parseColumns(line string) (invoice.LineItem, bool) {
	if !textnorm.HasColumns(line) {
		return invoice.LineItem{}, false
	}

	cols := textnorm.Columns(line)
	for len(cols) > 0 && currencyRe.MatchString(cols[len(cols)-1]) {
		cols = cols[:len(cols)-1]
	}

	var priceCols []int

	for i, c := range cols {
		if twoDecRe.MatchString(stripCurrency(c)) {
			priceCols = append(priceCols, i)
		}
	}

	if len(priceCols) == 0 {
		return invoice.LineItem{}, false
	}

	priceAt := priceCols[0]

	var total *decimal.Decimal

	if len(priceCols) > 1 {
		last := priceCols[len(priceCols)-1]
		if t, err := money.ParseAmount(cols[last]); err == nil {
			total = &t
			priceAt = priceCols[len(priceCols)-2]
		}
	}

	price, err := money.ParseAmount(cols[priceAt])
	if err != nil {
		return invoice.LineItem{}, false
	}

	var (
		code  string
		qty   = 1
		names []string
	)

	for i, c := range cols[:priceAt] {
		switch {
		case i == 0 && intRe.MatchString(c) && len(c) <= 4 && priceAt > 1:
			// row number
		case qtyCellRe.MatchString(c):
			qty = parseQty(qtyCellRe.FindStringSubmatch(c)[1])
		case qtyTokRe.MatchString(c) && i == priceAt-1 && i > 0:
			qty = parseQty(c)
		case code == "" && len(names) == 0 && looksLikeCode(c):
			code = c
		default:
			names = append(names, c)
		}
	}

	return invoice.NewLineItem(code, strings.Join(names, " "), qty, price, total), true
}

// parseTokens is the last resort for rows without column gaps.
func parseTokens(line string) (invoice.LineItem, bool) {
	tokens := strings.Fields(line)

	for len(tokens) > 0 && currencyRe.MatchString(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}

	priceAt := -1

	for i := len(tokens) - 1; i >= 0; i-- {
		if twoDecRe.MatchString(tokens[i]) {
			priceAt = i
			break
		}
	}

	if priceAt < 0 {
		return invoice.LineItem{}, false
	}

	priceTok, start := absorbGroups(tokens, priceAt)

	var total *decimal.Decimal

	// "23.50 47.00": the earlier amount is the unit price, the later the total.
	if start > 0 && twoDecRe.MatchString(tokens[start-1]) {
		if t, err := money.ParseAmount(priceTok); err == nil {
			total = &t
			priceTok, start = absorbGroups(tokens, start-1)
		}
	}

	price, err := money.ParseAmount(priceTok)
	if err != nil {
		return invoice.LineItem{}, false
	}

	rest := tokens[:start]
	for len(rest) > 0 && currencyRe.MatchString(rest[len(rest)-1]) {
		rest = rest[:len(rest)-1]
	}

	qty := 1

	switch n := len(rest); {
	case n >= 2 && unitRe.MatchString(rest[n-1]) && isQty(rest[n-2]):
		qty = parseQty(rest[n-2])
		rest = rest[:n-2]
	case n >= 1 && multRe.MatchString(rest[n-1]):
		if m := multRe.FindStringSubmatch(rest[n-1]); m[1] != "" {
			qty = parseQty(m[1])
			rest = rest[:n-1]
		} else if n >= 2 && isQty(rest[n-2]) {
			qty = parseQty(rest[n-2])
			rest = rest[:n-2]
		}
	}

	if len(rest) > 1 && intRe.MatchString(rest[0]) && len(rest[0]) <= 4 {
		rest = rest[1:]
	}

	return invoice.NewLineItem("", strings.Join(rest, " "), qty, price, total), true
}

// absorbGroups joins one to three digit tokens preceding the token at i as
// thousands groups of the same number: "1 234,56" -> "1234,56".
func absorbGroups(tokens []string, i int) (string, int) {
	tok := tokens[i]

	intPart := tok
	if idx := strings.LastIndexAny(tok, ".,"); idx >= 0 {
		intPart = tok[:idx]
	}

	if len(intPart) != 3 {
		return tok, i
	}

	start := i
	for start > 0 && groupRe.MatchString(tokens[start-1]) && i-start < 3 {
		start--
	}

	return strings.Join(tokens[start:i+1], ""), start
}

func isQty(s string) bool {
	return qtyTokRe.MatchString(s)
}

func looksLikeCode(s string) bool {
	if strings.ContainsRune(s, ' ') || !codeTokenRe.MatchString(s) || len(s) < 3 {
		return false
	}

	return strings.ContainsAny(s, "0123456789")
}

func stripCurrency(s string) string {
	for _, f := range strings.Fields(s) {
		if !currencyRe.MatchString(f) {
			return f
		}
	}

	return s
}

func parseQty(s string) int {
	d, err := money.ParseAmount(s)
	if err != nil {
		return 1
	}

	q := int(d.Round(0).IntPart())
	if q < 1 {
		return 1
	}

	return q
}
