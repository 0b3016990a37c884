package extract

import (
	"regexp"
	"strings"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
)

const (
	PaymentCash     = "CASH"
	PaymentCard     = "CARD"
	PaymentTransfer = "BANK_TRANSFER"
	PaymentOther    = "OTHER"
)

var (
	paymentLabelRe = regexp.MustCompile(`(?i)\b(?:payment\s+(?:method|type|terms)|mënyra\s+e\s+pagesës|menyra\s+e\s+pageses|lloji\s+i\s+pagesës|zahlungsart|zahlungsweise|način\s+plaćanja)\s*[:.]?\s*(.+)$`)

	paymentTerms = []struct {
		re   *regexp.Regexp
		kind string
	}{
		{paymentTerm(`cash|kesh|para\s+në\s+dorë|bargeld|gotovina|banknote`), PaymentCash},
		{paymentTerm(`card|kartë|karte|kartela|visa|mastercard|maestro|ec-karte|kartica`), PaymentCard},
		{paymentTerm(`bank\s+transfer|transfer|transferte|transfertë|überweisung|virman|wire`), PaymentTransfer},
	}
)

// paymentTerm matches whole words; \b is ASCII only and would split "kartë".
func paymentTerm(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|\P{L})(?:` + alternatives + `)(?:\P{L}|$)`)
}

// PaymentType classifies the payment method as CASH, CARD, BANK_TRANSFER or
// OTHER. A labeled value wins over terms found anywhere in the text.
func PaymentType(in Input) invoice.Field[string] {
	v, ok := First(in, labeledPayment, anyPaymentTerm)
	if !ok {
		return invoice.Missing[string]()
	}

	return invoice.Found(v)
}

func labeledPayment(in Input) (string, bool) {
	for _, line := range in.Text.Lines {
		m := paymentLabelRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		if kind, ok := classifyPayment(m[1]); ok {
			return kind, true
		}

		if strings.TrimSpace(m[1]) != "" {
			return PaymentOther, true
		}
	}

	return "", false
}

func anyPaymentTerm(in Input) (string, bool) {
	for _, line := range in.Text.Lines {
		if kind, ok := classifyPayment(line); ok {
			return kind, true
		}
	}

	return "", false
}

func classifyPayment(s string) (string, bool) {
	for _, t := range paymentTerms {
		if t.re.MatchString(s) {
			return t.kind, true
		}
	}

	return "", false
}
