package extract

import (
	"regexp"
	"strings"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
)

const numberToken = `([A-Za-z0-9][A-Za-z0-9/\-]*\d[A-Za-z0-9/\-]*)`

var numberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:invoice|inv\.|rechnung|faktura|fatur[aeë])\s*(?:no\.?|nr\.?|nummer|number|numri|#)\s*[:.]?\s*` + numberToken),
	regexp.MustCompile(`(?i)\bbroj\s+ra[čc]una\s*[:.]?\s*` + numberToken),
	regexp.MustCompile(`(?i)\brechnungs(?:nummer|nr\.?)\s*[:.]?\s*` + numberToken),
	regexp.MustCompile(`(?i)\bnr\.?\s+(?:i\s+)?fatur[eësa]+\s*[:.]?\s*` + numberToken),
	// slash-delimited series such as 22901/U1/0003
	regexp.MustCompile(`\b(\d{2,8}/[A-Za-z]{1,4}\d{0,4}/\d{2,8})\b`),
}

var (
	numberLabelRe = regexp.MustCompile(`(?i)(invoice|rechnung|faktur|fatur|ra[čc]un|document\s+no|beleg)`)
	longDigitsRe  = regexp.MustCompile(`^\d{8,11}$`)
	alnumTokenRe  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9/\-]{4,}$`)
	amountLikeRe  = regexp.MustCompile(`^\d[\d.,]*[.,]\d{1,2}$|^\d{1,3}(?:[.,]\d{3})+$`)
)

// InvoiceNumber extracts the document number. A missing number is left for
// the caller to synthesize.
func InvoiceNumber(in Input) invoice.Field[string] {
	v, ok := First(in, labeledNumber, nearLabelNumber)
	if !ok {
		return invoice.Missing[string]()
	}

	return invoice.Found(v)
}

func labeledNumber(in Input) (string, bool) {
	for _, re := range numberPatterns {
		for _, line := range in.Text.Lines {
			if m := re.FindStringSubmatch(line); m != nil {
				return strings.TrimRight(m[1], "/-"), true
			}
		}
	}

	return "", false
}

// nearLabelNumber inspects the label line and the five lines after it,
// preferring an 8 to 11 digit number over any other alphanumeric token.
func nearLabelNumber(in Input) (string, bool) {
	lines := in.Text.Lines

	for i, line := range lines {
		if !numberLabelRe.MatchString(line) {
			continue
		}

		var fallback string

		for _, l := range window(lines, i, 6) {
			for _, tok := range strings.Fields(l) {
				tok = strings.Trim(tok, ":;,.#()")

				switch {
				case longDigitsRe.MatchString(tok):
					return tok, true
				case fallback == "" && plausibleNumber(tok):
					fallback = tok
				}
			}
		}

		if fallback != "" {
			return fallback, true
		}
	}

	return "", false
}

func plausibleNumber(tok string) bool {
	if !alnumTokenRe.MatchString(tok) || !strings.ContainsAny(tok, "0123456789") {
		return false
	}

	if amountLikeRe.MatchString(tok) {
		return false
	}

	_, isDate := parseDate(tok)

	return !isDate
}
