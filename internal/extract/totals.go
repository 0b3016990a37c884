package extract

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/money"
)

// tailLines is how far from the bottom the fallback looks for a total.
const tailLines = 15

// totalCeiling rejects account numbers and ids read as amounts.
var totalCeiling = decimal.NewFromInt(1_000_000)

var (
	grandTotalRe = regexp.MustCompile(`(?i)\b(?:total\s+amount|grand\s+total|amount\s+due|total\s+due|total\s+incl\.?|gesamtbetrag|endbetrag|rechnungsbetrag|zu\s+zahlen|ukupno\s+za\s+(?:platiti|naplatu)|totali\s+p[eë]r\s+t['’]?u\s+paguar|vlera\s+totale|shuma\s+totale)\b`)
	totalRe      = regexp.MustCompile(`(?i)\b(?:total|totali|gesamt|summe|ukupno|shuma)\b`)
	partialRe    = regexp.MustCompile(`(?i)\b(?:sub\s*-?total|net\s+amount|netto|zwischensumme|pa\s+tvsh|tvsh|vat|mwst|ust|pdv|discount|zbritje|rabatt)\b`)
	rateRe       = regexp.MustCompile(`(?i)\b(?:exchange\s+rate|kursi(?:\s+i\s+k[eë]mbimit)?|wechselkurs|te[čc]aj|kurs)\b\s*(?:\([^)]*\))?\s*[:=.]?\s*(\d+(?:[.,]\d+)?)`)
	eurTokenRe   = regexp.MustCompile(`(?i)\bEUR\b|€`)
	allTokenRe   = regexp.MustCompile(`\b(?i:lek|leke)\b|\bALL\b`)
)

// totalAmountRe also accepts space grouped amounts such as "1 200,00",
// which only appear reliably on total lines.
var totalAmountRe = regexp.MustCompile(`\d{1,3}(?:[ .,']\d{3})+[.,]\d{2}\b|\d+[.,]\d{2}\b`)

// Totals is the monetary summary of a document.
type Totals struct {
	Local    invoice.Field[decimal.Decimal]
	EUR      invoice.Field[decimal.Decimal]
	Rate     invoice.Field[decimal.Decimal]
	Currency string
}

// ExtractTotals finds the EUR and local totals and the exchange rate, then
// applies the conversion rule. Labeled totals come first; otherwise the
// largest plausible amount near the bottom is used as an estimate.
func ExtractTotals(in Input) Totals {
	t := Totals{
		Local:    invoice.Missing[decimal.Decimal](),
		EUR:      invoice.Missing[decimal.Decimal](),
		Currency: Currency(in),
	}

	for _, cur := range []string{invoice.CurrencyEUR, invoice.CurrencyALL} {
		v, ok := First(in, grandTotal(cur, t.Currency), lastTotal(cur, t.Currency))
		if !ok {
			continue
		}

		t.set(cur, invoice.Found(v))
	}

	if !t.EUR.OK() && !t.Local.OK() {
		if v, ok := tailMaximum(in); ok {
			t.set(t.Currency, invoice.Estimated(v))
		}
	}

	t.Rate = ExchangeRate(in)
	if !t.Rate.OK() {
		t.Rate = invoice.DeriveRate(t.EUR, t.Local)
	}

	t.EUR = invoice.ResolveEUR(t.EUR, t.Local, t.Rate)

	return t
}

// Total returns the document total in the document currency.
func Total(in Input) invoice.Field[decimal.Decimal] {
	t := ExtractTotals(in)
	if t.Currency == invoice.CurrencyALL && t.Local.OK() {
		return t.Local
	}

	return t.EUR
}

func (t *Totals) set(cur string, v invoice.Field[decimal.Decimal]) {
	if cur == invoice.CurrencyALL {
		t.Local = v
		return
	}

	t.EUR = v
}

// Currency is EUR unless local currency tokens outnumber EUR tokens.
func Currency(in Input) string {
	eur := len(eurTokenRe.FindAllStringIndex(in.Text.Joined, -1))
	all := len(allTokenRe.FindAllStringIndex(in.Text.Joined, -1))

	if all > eur {
		return invoice.CurrencyALL
	}

	return invoice.CurrencyEUR
}

// ExchangeRate reads an explicitly labeled rate.
func ExchangeRate(in Input) invoice.Field[decimal.Decimal] {
	for _, line := range in.Text.Lines {
		m := rateRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		v, err := money.ParseAmount(m[1])
		if err != nil || !v.IsPositive() {
			continue
		}

		return invoice.Found(v)
	}

	return invoice.Missing[decimal.Decimal]()
}

func grandTotal(cur, docCur string) Strategy[decimal.Decimal] {
	return func(in Input) (decimal.Decimal, bool) {
		for _, line := range in.Text.Lines {
			loc := grandTotalRe.FindStringIndex(line)
			if loc == nil || lineCurrency(line, docCur) != cur {
				continue
			}

			if v, ok := amountAfter(line, loc[1]); ok {
				return v, true
			}
		}

		return decimal.Zero, false
	}
}

// lastTotal takes the last plain total line, which on most layouts is
// the amount payable after taxes.
func lastTotal(cur, docCur string) Strategy[decimal.Decimal] {
	return func(in Input) (decimal.Decimal, bool) {
		var (
			found bool
			best  decimal.Decimal
		)

		for _, line := range in.Text.Lines {
			loc := totalRe.FindStringIndex(line)
			if loc == nil || partialRe.MatchString(line) || lineCurrency(line, docCur) != cur {
				continue
			}

			if v, ok := amountAfter(line, loc[1]); ok {
				best, found = v, true
			}
		}

		return best, found
	}
}

func tailMaximum(in Input) (decimal.Decimal, bool) {
	lines := in.Text.Lines
	lines = lines[max(0, len(lines)-tailLines):]

	var (
		found bool
		best  decimal.Decimal
	)

	for _, line := range lines {
		for _, s := range totalAmountRe.FindAllString(line, -1) {
			v, err := money.ParseAmount(s)
			if err != nil || !v.IsPositive() || !v.LessThan(totalCeiling) {
				continue
			}

			if !found || v.GreaterThan(best) {
				best, found = v, true
			}
		}
	}

	return best, found
}

// amountAfter returns the last amount printed after position from.
func amountAfter(line string, from int) (decimal.Decimal, bool) {
	matches := totalAmountRe.FindAllString(line[from:], -1)

	for i := len(matches) - 1; i >= 0; i-- {
		v, err := money.ParseAmount(matches[i])
		if err == nil && v.LessThan(totalCeiling) {
			return v, true
		}
	}

	return decimal.Zero, false
}

func lineCurrency(line, docCur string) string {
	switch {
	case eurTokenRe.MatchString(line):
		return invoice.CurrencyEUR
	case allTokenRe.MatchString(line):
		return invoice.CurrencyALL
	default:
		return docCur
	}
}
