package extract

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/textnorm"
)

// headLines bounds the heuristic supplier search to the top of the document.
const headLines = 15

// sectionLines bounds a buyer section that has no closing header.
const sectionLines = 6

var (
	buyerHeaderRe  = regexp.MustCompile(`(?i)^(?:buyer|bill\s+to|billed\s+to|sold\s+to|customer|client|blerësi|bleresi|klienti|kunde|käufer|rechnungsempfänger|kupac|naručitelj)\b\s*:?\s*`)
	sellerHeaderRe = regexp.MustCompile(`(?i)^(?:seller|supplier|vendor|from|shitësi|shitesi|furnitori|lieferant|verkäufer|prodavatelj|dobavljač)\b\s*:?\s*`)
	sectionEndRe   = regexp.MustCompile(`(?i)^(?:seller|supplier|vendor|shitësi|shitesi|furnitori|invoice|fatur|rechnung|račun|date|datum|data|payment|pos\.|description|artikujt|material|item)\b`)
	legalSuffixRe  = regexp.MustCompile(`(?i)(\bsh\.?\s?p\.?\s?k\b\.?|\bsh\.a\b|\bgmbh\b|\bag\b|\bkg\b|\bd\.o\.o\b\.?|\bdoo\b|\bllc\b|\bltd\b\.?|\binc\b\.?|\bs\.?r\.?l\b|\bs\.?a\b\.?|\bplc\b|\bo\.?e\b)`)
	taxIDRe        = regexp.MustCompile(`(?i)\b(?:nipt|nuis|vat\s*(?:id|no|nr)?|tax\s*id|ust-?id(?:nr)?|oib|pib|tin)\s*[:.]?\s*([A-Z]?\d{6,12}[A-Z]?)\b`)
	addressRe      = regexp.MustCompile(`(?i)(\brr\.|\brruga\b|\bstr\.|\bstraße\b|\bstrasse\b|\bstreet\b|\bst\.|\bbul\.|\bbulevardi\b|\bavenue\b|\bulica\b|\bul\.|\blagjja\b|\d{4,5}\s+\p{L}+)`)
	titleWordsRe   = regexp.MustCompile(`(?i)^(invoice|faturë|fatura|fature|rechnung|račun|tax\s+invoice|receipt|kupon|page|faqe)\b`)
)

// Supplier extracts the issuing party of a purchase invoice.
func Supplier(in Input) invoice.Field[invoice.Party] {
	name, ok := First(in, knownParty, labeledSeller, onHead(legalSuffixLine), onHead(uppercaseLine))
	if !ok {
		return invoice.Missing[invoice.Party]()
	}

	return invoice.Found(invoice.Party{Name: name, TaxID: sellerTaxID(in)})
}

// Customer extracts the receiving party. Only the buyer section is searched,
// so a name printed in the seller block is never returned.
func Customer(in Input) invoice.Field[invoice.Party] {
	section := buyerSection(in.Text.Lines)
	if len(section) == 0 {
		return invoice.Missing[invoice.Party]()
	}

	sub := in
	sub.Text.Lines = section
	sub.Text.Joined = strings.Join(section, "\n")

	name, ok := First(sub, knownParty, buyerLabelValue, legalSuffixLine, lettersOnlyLine)
	if !ok {
		return invoice.Missing[invoice.Party]()
	}

	party := invoice.Party{Name: name}

	for _, line := range section {
		if m := taxIDRe.FindStringSubmatch(line); m != nil && party.TaxID == "" {
			party.TaxID = m[1]
			continue
		}

		if party.Address == "" && !strings.Contains(line, name) && addressRe.MatchString(line) {
			party.Address = strings.TrimSpace(buyerHeaderRe.ReplaceAllString(line, ""))
		}
	}

	return invoice.Found(party)
}

// knownParty matches catalog suppliers as case-insensitive substrings,
// longest name first so "Alpha Trade" wins over "Alpha".
func knownParty(in Input) (string, bool) {
	known := slices.Clone(in.KnownParties)
	slices.SortStableFunc(known, func(a, b string) int { return len(b) - len(a) })

	text := strings.ToLower(in.Text.Joined)

	for _, k := range known {
		k = strings.TrimSpace(k)
		if k == "" || in.isOwn(k) {
			continue
		}

		if strings.Contains(text, strings.ToLower(k)) {
			return k, true
		}
	}

	return "", false
}

func labeledSeller(in Input) (string, bool) {
	lines := in.Text.Lines

	for i, line := range lines {
		loc := sellerHeaderRe.FindStringIndex(line)
		if loc == nil {
			continue
		}

		if v := cleanPartyName(line[loc[1]:]); v != "" && !in.isOwn(v) {
			return v, true
		}

		if i+1 < len(lines) {
			if v := cleanPartyName(lines[i+1]); v != "" && !in.isOwn(v) && !buyerHeaderRe.MatchString(lines[i+1]) {
				return v, true
			}
		}
	}

	return "", false
}

func buyerLabelValue(in Input) (string, bool) {
	if len(in.Text.Lines) == 0 {
		return "", false
	}

	loc := buyerHeaderRe.FindStringIndex(in.Text.Lines[0])
	if loc == nil {
		return "", false
	}

	v := cleanPartyName(in.Text.Lines[0][loc[1]:])
	if v == "" || in.isOwn(v) || !hasLetters(v) {
		return "", false
	}

	return v, true
}

func legalSuffixLine(in Input) (string, bool) {
	for _, line := range in.Text.Lines {
		v := partyText(line)
		if !legalSuffixRe.MatchString(v) || !companyCandidate(in, v) {
			continue
		}

		return v, true
	}

	return "", false
}

func uppercaseLine(in Input) (string, bool) {
	for _, line := range in.Text.Lines {
		v := partyText(line)
		if !companyCandidate(in, v) {
			continue
		}

		if upperRun(v) >= 2 {
			return v, true
		}
	}

	return "", false
}

// onHead restricts a strategy to the top of the document above any buyer block.
func onHead(s Strategy[string]) Strategy[string] {
	return func(in Input) (string, bool) {
		sub := in
		sub.Text.Lines = head(in)

		return s(sub)
	}
}

// lettersOnlyLine picks a person or company name inside a bounded section.
func lettersOnlyLine(in Input) (string, bool) {
	for _, line := range in.Text.Lines {
		v := partyText(line)
		if v == "" || in.isOwn(v) {
			continue
		}

		if strings.IndexFunc(v, func(r rune) bool {
			return !unicode.IsLetter(r) && r != ' ' && r != '.' && r != '&' && r != '-' && r != '\''
		}) >= 0 {
			continue
		}

		return v, true
	}

	return "", false
}

func head(in Input) []string {
	lines := window(in.Text.Lines, 0, headLines)

	// never look into the buyer block for the issuing party
	for i, line := range lines {
		if buyerHeaderRe.MatchString(line) {
			return lines[:i]
		}
	}

	return lines
}

func companyCandidate(in Input, line string) bool {
	if in.isOwn(line) || titleWordsRe.MatchString(line) || sectionEndRe.MatchString(line) {
		return false
	}

	if taxIDRe.MatchString(line) || addressRe.MatchString(line) || strings.Contains(line, "@") {
		return false
	}

	letters, digits := 0, 0

	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}

	return letters >= 3 && digits*3 < letters
}

// upperRun counts consecutive all-caps words of two or more letters.
func upperRun(line string) int {
	best, run := 0, 0

	for _, w := range strings.Fields(line) {
		w = strings.Trim(w, ".,&-")
		if len([]rune(w)) >= 2 && isUpperWord(w) {
			run++
			best = max(best, run)

			continue
		}

		run = 0
	}

	return best
}

func isUpperWord(w string) bool {
	hasLetter := false

	for _, r := range w {
		if unicode.IsLetter(r) {
			hasLetter = true

			if !unicode.IsUpper(r) {
				return false
			}
		}
	}

	return hasLetter
}

func buyerSection(lines []string) []string {
	for i, line := range lines {
		if !buyerHeaderRe.MatchString(line) {
			continue
		}

		end := min(i+sectionLines, len(lines))

		for j := i + 1; j < end; j++ {
			if sectionEndRe.MatchString(lines[j]) || buyerHeaderRe.MatchString(lines[j]) {
				end = j
				break
			}
		}

		return lines[i:end]
	}

	return nil
}

// sellerTaxID returns the first tax id printed outside the buyer block.
func sellerTaxID(in Input) string {
	buyer := buyerSection(in.Text.Lines)

	for _, line := range in.Text.Lines {
		if slices.Contains(buyer, line) {
			continue
		}

		if m := taxIDRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}

	return ""
}

// cleanPartyName keeps the first column of a line and tidies it.
func cleanPartyName(s string) string {
	s = strings.TrimSpace(s)

	if i := strings.Index(s, textnorm.ColumnGap); i >= 0 {
		s = s[:i]
	}

	s = strings.Join(strings.Fields(s), " ")

	return strings.Trim(s, " :;,-|")
}

func partyText(line string) string {
	line = buyerHeaderRe.ReplaceAllString(line, "")
	line = sellerHeaderRe.ReplaceAllString(line, "")

	return cleanPartyName(line)
}

func hasLetters(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
