package lineitem

import (
	"regexp"
	"strings"
	"unicode"
)

// maxCodeLen is the length from which an alphanumeric token is read as a bank
// account number rather than a product code.
const maxCodeLen = 10

var noisePatterns = []*regexp.Regexp{
	// banking
	regexp.MustCompile(`(?i)\b(iban|bic|swift|bank\w*|llogari\w*|konto\w*|account\s+(no|number))\b`),
	// tax and registration
	regexp.MustCompile(`(?i)\b(nipt|nuis|vat\s*(no|id|nr|number)|tax\s*(id|no|nr|number)|ust-?id\w*|steuer-?nr|steuernummer|oib|pib|court|gericht|registered|registration|reg\.\s*no|handelsregister|hrb|qkb)\b`),
	// contact
	regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.]+`),
	regexp.MustCompile(`(?i)\b(tel|phone|telefon\w*|fax|mob|mobile)\b\.?\s*:?|www\.|https?://`),
	// payment instructions
	regexp.MustCompile(`(?i)(payment\s+(terms|due|within|method)|pay\s+within|due\s+date|zahlbar|zahlungsziel|überweisung|bank\s+transfer|please\s+pay|afati\s+i\s+pagesës|mënyra\s+e\s+pagesës|rok\s+plaćanja)`),
}

// IsNoise reports whether a candidate row is boilerplate rather than a product.
func IsNoise(name, line string) bool {
	for _, re := range noisePatterns {
		if re.MatchString(line) {
			return true
		}
	}

	for _, tok := range strings.Fields(line) {
		if isAccountLike(tok) {
			return true
		}
	}

	return !plausibleName(name)
}

// CleanName tidies a candidate name and rejects it if it is noise. The item
// code is checked separately since an implausibly long code is an account number.
func CleanName(name, line, code string) (string, bool) {
	if code != "" && alnumLen(code) >= maxCodeLen && !strings.ContainsAny(code, ".-") {
		return "", false
	}

	name = spaceRunRe.ReplaceAllString(name, " ")
	name = edgePunctRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if name == "" || IsNoise(name, line) {
		return "", false
	}

	return name, true
}

// isAccountLike matches long runs such as IBANs and account numbers. Dotted or
// dashed product codes and plain amounts are not account-like.
func isAccountLike(tok string) bool {
	if strings.ContainsAny(tok, ".,-/") {
		return false
	}

	letters, digits := 0, 0

	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r) && r < unicode.MaxASCII:
			letters++
		default:
			return false
		}
	}

	return letters+digits >= maxCodeLen && digits >= maxCodeLen/2
}

func plausibleName(name string) bool {
	letters, digits := 0, 0

	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}

	if letters == 0 {
		return false
	}

	return digits*2 <= letters+digits
}

func alnumLen(s string) int {
	n := 0

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}

	return n
}
