// Package pricing suggests cost and selling prices for newly added products.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
)

var one = decimal.NewFromInt(1)

// Policy holds the purchase tax rate and the selling markup as fractions.
type Policy struct {
	TaxRate decimal.Decimal
	Markup  decimal.Decimal
}

// DefaultPolicy is 20% tax and 40% markup.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate: decimal.RequireFromString("0.20"),
		Markup:  decimal.RequireFromString("0.40"),
	}
}

// Quote is the suggested pricing of one line item.
type Quote struct {
	BaseCost       decimal.Decimal `json:"base_cost"`
	CostWithTax    decimal.Decimal `json:"cost_with_tax"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
}

// WithTax returns base × (1 + tax rate), unrounded.
func (p Policy) WithTax(base decimal.Decimal) decimal.Decimal {
	return base.Mul(one.Add(p.TaxRate))
}

// Quote prices an item from its extracted unit price. Values are computed
// at full precision and rounded to cents only for the result.
func (p Policy) Quote(item invoice.LineItem) Quote {
	base := item.UnitPrice
	withTax := p.WithTax(base)
	suggested := withTax.Mul(one.Add(p.Markup))

	return Quote{
		BaseCost:       base.Round(2),
		CostWithTax:    withTax.Round(2),
		SuggestedPrice: suggested.Round(2),
	}
}
