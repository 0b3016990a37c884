package lineitem

import (
	"regexp"
	"strings"
)

// units lists localized quantity unit tokens, matched case-insensitively.
var units = []string{"PCS", "PC", "KOM", "KOS", "EA", "STK", "COPË", "COPE", "CP"}

var unitAlt = strings.Join(units, "|")

const (
	pricePat = `(?:\d{1,3}(?:[.,]\d{3})+[.,]\d{2}|\d+[.,]\d{2})\b`
	qtyPat   = `\d+(?:[.,]\d{1,3})?`
	currPat  = `(?:EUR|LEK|ALL|€|Lekë|Leke)`
)

var (
	headerRe = regexp.MustCompile(`(?i)(?:^|\s)(material|description|descr\.|artikujt|artikulli|përshkrimi|pershkrimi|emërtimi|emertimi|bezeichnung|artikel|naziv|opis|pos\.|item|produkti?)(?:\s|$|:)`)
	totalsRe = regexp.MustCompile(`(?i)(sub\s*-?total|net\s+amount|total\s*:|total\s+amount|grand\s+total|^total\b|totali|nëntotali|gesamt|summe|zwischensumme|ukupno|vlera\s+totale|shuma)`)

	// rowNumber code name qty UNIT unitPrice [total] [currency]
	strictRe = regexp.MustCompile(`(?i)^(\d{1,4})\s+([A-Za-z0-9][A-Za-z0-9./\-]*\d[A-Za-z0-9./\-]*)\s+(.+?)\s+(` + qtyPat + `)\s*(` + unitAlt + `)\.?\s+(` + pricePat + `)(?:\s+(` + pricePat + `))?(?:\s*` + currPat + `)?$`)

	flexCodeRe = regexp.MustCompile(`\b\d+\.\d+-\d+\.\d\b`)
	qtyUnitRe  = regexp.MustCompile(`(?i)(` + qtyPat + `)\s*(` + unitAlt + `)\b\.?`)
	priceRe    = regexp.MustCompile(pricePat)

	genericCodeRes = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,6}(?:\.\d{1,6}){2,}\b`),
		regexp.MustCompile(`\b[A-Za-z]{2,4}-?\d{4,8}\b`),
	}
	codePrefixRe = regexp.MustCompile(`(?i)^(?:material\s*no\.?|mat\.?\s*nr\.?|art\.?\s*nr\.?|pos\.?\s*\d+|kodi)\s*:?\s*`)
	qtyAnyRe     = regexp.MustCompile(`(?i)(\d+)\s*(?:` + unitAlt + `)\b\.?|(\d+)\s*[x×]\s|(?:quantity|qty|sasia|menge|količina)\s*:?\s*(\d+)`)

	rowNumberRe = regexp.MustCompile(`^\d{1,4}[.)]?\s+`)
	twoDecRe    = regexp.MustCompile(`^(?:\d{1,3}(?:[.,]\d{3})+|\d+)[.,]\d{2}$`)
	groupRe     = regexp.MustCompile(`^\d{1,3}$`)
	intRe       = regexp.MustCompile(`^\d+$`)
	qtyTokRe    = regexp.MustCompile(`^` + qtyPat + `$`)
	qtyCellRe   = regexp.MustCompile(`(?i)^(` + qtyPat + `)\s*(?:` + unitAlt + `)\.?$`)
	currencyRe  = regexp.MustCompile(`(?i)^` + currPat + `$`)
	unitRe      = regexp.MustCompile(`(?i)^(?:` + unitAlt + `)\.?$`)
	multRe      = regexp.MustCompile(`(?i)^(\d+)[x×]$|^[x×]$`)
	codeTokenRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9./\-]*$`)
	trailingRe  = regexp.MustCompile(`(?i)\s*(?:` + currPat + `|` + unitAlt + `)\.?\s*$`)
	edgePunctRe = regexp.MustCompile(`^[\s\-–:;,.*#|/]+|[\s\-–:;,*#|/]+$`)
	spaceRunRe  = regexp.MustCompile(`\s+`)
)

func isHeader(line string) bool {
	return headerRe.MatchString(line)
}

func isTotals(line string) bool {
	return totalsRe.MatchString(line)
}

// structuredRow reports whether the line has the shape of a product row
// regardless of any keyword it contains.
func structuredRow(line string) bool {
	if strictRe.MatchString(line) {
		return true
	}

	if !qtyUnitRe.MatchString(line) {
		return false
	}

	// "Total Cleaner 500ml 3 PCS 4.20 12.60" is a product, not the totals row
	return flexCodeRe.MatchString(line) || len(priceRe.FindAllString(line, -1)) >= 2
}
