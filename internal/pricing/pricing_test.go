package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
)

func TestPolicy_Quote(t *testing.T) {
	type testCase struct {
		name      string
		policy    pricing.Policy
		unitPrice string
		want      [3]string
	}

	tests := []testCase{
		{
			name:      "DefaultPolicy",
			policy:    pricing.DefaultPolicy(),
			unitPrice: "23.50",
			want:      [3]string{"23.50", "28.20", "39.48"},
		},
		{
			name:      "RoundsOnlyAtTheEnd",
			policy:    pricing.DefaultPolicy(),
			unitPrice: "0.033",
			// 0.033 × 1.2 = 0.0396, × 1.4 = 0.05544
			want: [3]string{"0.03", "0.04", "0.06"},
		},
		{
			name: "CustomRates",
			policy: pricing.Policy{
				TaxRate: decimal.Zero,
				Markup:  decimal.RequireFromString("1"),
			},
			unitPrice: "10",
			want:      [3]string{"10.00", "10.00", "20.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := invoice.NewLineItem("", "x", 1, decimal.RequireFromString(tt.unitPrice), nil)

			q := tt.policy.Quote(item)

			assert.Equal(t, tt.want[0], q.BaseCost.StringFixed(2))
			assert.Equal(t, tt.want[1], q.CostWithTax.StringFixed(2))
			assert.Equal(t, tt.want[2], q.SuggestedPrice.StringFixed(2))
		})
	}
}

func TestPolicy_WithTax(t *testing.T) {
	got := pricing.DefaultPolicy().WithTax(decimal.RequireFromString("89.90"))
	assert.Equal(t, "107.88", got.StringFixed(2))
}
