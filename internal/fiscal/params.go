// Package fiscal reads Albanian e-fiscalization receipts: the QR
// verification URL first, then optionally the rendered verification page.
package fiscal

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/money"
)

// domainTokens identify a fiscal verification URL.
var domainTokens = []string{"efiskalizimi", "tatime.gov.al"}

var createdLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
}

// Params are the query parameters of a fiscal verification URL.
type Params struct {
	IIC          string
	TIN          string
	Created      string
	Order        string
	BusinessUnit string
	Register     string
	Software     string
	Price        decimal.Decimal

	// CreatedAt is zero when Created could not be parsed.
	CreatedAt time.Time
}

// IsPayload reports whether s looks like a fiscal QR payload.
func IsPayload(s string) bool {
	lower := strings.ToLower(s)
	if !strings.Contains(lower, "iic=") {
		return false
	}

	for _, token := range domainTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}

	return false
}

// ParseURL reads the parameters from the URL fragment ("#/verify?...") or,
// when the fragment carries no query, from the regular query string.
// Only iic, tin and prc are mandatory.
func ParseURL(raw string) (Params, error) {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return Params{}, fmt.Errorf("parsing url: %w", err)
	}

	query := u.RawQuery
	if i := strings.Index(raw, "#"); i >= 0 {
		if _, q, ok := strings.Cut(raw[i+1:], "?"); ok {
			query = q
		}
	}

	// timestamps carry a literal "+" offset that must survive decoding
	values, err := url.ParseQuery(strings.ReplaceAll(query, "+", "%2B"))
	if err != nil {
		return Params{}, fmt.Errorf("parsing query: %w", err)
	}

	p := Params{
		IIC:          strings.TrimSpace(values.Get("iic")),
		TIN:          strings.TrimSpace(values.Get("tin")),
		Created:      strings.TrimSpace(values.Get("crtd")),
		Order:        strings.TrimSpace(values.Get("ord")),
		BusinessUnit: strings.TrimSpace(values.Get("bu")),
		Register:     strings.TrimSpace(values.Get("cr")),
		Software:     strings.TrimSpace(values.Get("sw")),
	}

	var missing []string

	if p.IIC == "" {
		missing = append(missing, "iic")
	}

	if p.TIN == "" {
		missing = append(missing, "tin")
	}

	prc := strings.TrimSpace(values.Get("prc"))
	if prc == "" {
		missing = append(missing, "prc")
	}

	if len(missing) > 0 {
		return Params{}, fmt.Errorf("%w: %s", invoice.ErrMissingParameter, strings.Join(missing, ", "))
	}

	p.Price, err = money.ParseAmount(prc)
	if err != nil {
		return Params{}, fmt.Errorf("%w: prc %q is not an amount", invoice.ErrMissingParameter, prc)
	}

	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, p.Created); err == nil {
			p.CreatedAt = t
			break
		}
	}

	return p, nil
}

// VerifyURL derives the verification page address for p under base.
func VerifyURL(base string, p Params) string {
	var b strings.Builder

	b.WriteString(strings.TrimRight(base, "/"))
	b.WriteString("/#/verify?iic=")
	b.WriteString(url.QueryEscape(p.IIC))
	b.WriteString("&tin=")
	b.WriteString(url.QueryEscape(p.TIN))
	b.WriteString("&crtd=")
	b.WriteString(url.QueryEscape(p.Created))
	b.WriteString("&prc=")
	b.WriteString(p.Price.StringFixed(2))

	return b.String()
}

// reference names the receipt for a synthesized line item.
func (p Params) reference() string {
	if p.Order != "" {
		return p.Order
	}

	if len(p.IIC) > 8 {
		return p.IIC[:8]
	}

	return p.IIC
}
