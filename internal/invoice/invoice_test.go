package invoice_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
)

func TestNewLineItem(t *testing.T) {
	price := decimal.RequireFromString("23.50")

	item := invoice.NewLineItem("0.033-709.0", "Spray Nozzle", 2, price, nil)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, decimal.RequireFromString("47").Equal(item.Total))

	item = invoice.NewLineItem("", "Cable", 0, price, nil)
	assert.Equal(t, 1, item.Quantity)
	assert.True(t, price.Equal(item.Total))

	printed := decimal.RequireFromString("45.00")
	item = invoice.NewLineItem("", "Cable", 2, price, &printed)
	assert.True(t, printed.Equal(item.Total))
}

func TestInvoice_EnsureNumber(t *testing.T) {
	now := time.Date(2024, 3, 12, 9, 30, 5, 0, time.UTC)

	inv := &invoice.Invoice{InvoiceNumber: invoice.Missing[string]()}
	inv.EnsureNumber(now)

	assert.Equal(t, "INV-20240312093005", inv.InvoiceNumber.Value)
	assert.Equal(t, invoice.StateDefaulted, inv.InvoiceNumber.State)

	inv = &invoice.Invoice{InvoiceNumber: invoice.Found("22901/U1/0003")}
	inv.EnsureNumber(now)
	assert.Equal(t, "22901/U1/0003", inv.InvoiceNumber.Value)
}

func TestInvoice_Confidence(t *testing.T) {
	full := &invoice.Invoice{
		InvoiceNumber: invoice.Found("1"),
		Supplier:      invoice.Found(invoice.Party{Name: "ACME"}),
		Date:          invoice.Found("2024-03-12"),
		TotalEUR:      invoice.Found(decimal.NewFromInt(10)),
		Items:         []invoice.LineItem{{Name: "x", Quantity: 1}},
	}

	assert.InDelta(t, 1.0, full.Confidence(), 1e-9)
	assert.Empty(t, full.LowConfidenceFields())

	degraded := &invoice.Invoice{
		InvoiceNumber: invoice.Defaulted("INV-1"),
		Supplier:      invoice.Missing[invoice.Party](),
		Date:          invoice.Defaulted("2024-03-12"),
		TotalEUR:      invoice.Missing[decimal.Decimal](),
		TotalLocal:    invoice.Missing[decimal.Decimal](),
	}

	assert.InDelta(t, 0.1, degraded.Confidence(), 1e-9)
	assert.Equal(t, []string{"invoiceNumber", "supplier", "date", "total", "items"}, degraded.LowConfidenceFields())
	assert.True(t, degraded.Incomplete())
}

func TestInvoice_JSONShape(t *testing.T) {
	inv := invoice.Invoice{
		Source:        invoice.SourceFiscal,
		InvoiceNumber: invoice.Found("12/2024"),
		TotalLocal:    invoice.Found(decimal.NewFromInt(29800)),
		TotalEUR:      invoice.Missing[decimal.Decimal](),
		Currency:      "ALL",
	}

	raw, err := json.Marshal(inv)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))

	for _, key := range []string{
		"invoiceNumber", "supplier", "customer", "date", "time", "totalLocal",
		"totalEUR", "exchangeRate", "currency", "paymentType", "items",
	} {
		assert.Contains(t, out, key)
	}

	total := out["totalEUR"].(map[string]any)
	assert.Equal(t, "missing", total["state"])
}

func TestScanError(t *testing.T) {
	err := invoice.NewError("ocr", invoice.ErrUnreadable, "page 2")
	wrapped := fmt.Errorf("scanning: %w", err)

	assert.True(t, errors.Is(wrapped, invoice.ErrUnreadable))
	assert.False(t, errors.Is(wrapped, invoice.ErrCollaborator))

	var scanErr *invoice.ScanError
	require.True(t, errors.As(wrapped, &scanErr))
	assert.Equal(t, "ocr", scanErr.Op)
	assert.Equal(t, "ocr: document unreadable (page 2)", err.Error())
}

func TestResolveEUR(t *testing.T) {
	type testCase struct {
		name  string
		eur   invoice.Field[decimal.Decimal]
		local invoice.Field[decimal.Decimal]
		rate  invoice.Field[decimal.Decimal]
		want  invoice.Field[decimal.Decimal]
	}

	missing := invoice.Missing[decimal.Decimal]()

	tests := []testCase{
		{
			name:  "EURTrusted",
			eur:   invoice.Found(decimal.RequireFromString("304.08")),
			local: invoice.Found(decimal.NewFromInt(1)),
			rate:  invoice.Found(decimal.NewFromInt(1)),
			want:  invoice.Found(decimal.RequireFromString("304.08")),
		},
		{
			name:  "DerivedFromLocal",
			eur:   missing,
			local: invoice.Found(decimal.NewFromInt(29800)),
			rate:  invoice.Found(decimal.NewFromInt(98)),
			want:  invoice.Found(decimal.RequireFromString("304.08")),
		},
		{
			name:  "EstimatedRateGivesEstimate",
			eur:   missing,
			local: invoice.Found(decimal.NewFromInt(29800)),
			rate:  invoice.Estimated(decimal.NewFromInt(98)),
			want:  invoice.Estimated(decimal.RequireFromString("304.08")),
		},
		{
			name:  "NoRateStaysMissing",
			eur:   missing,
			local: invoice.Found(decimal.NewFromInt(29800)),
			rate:  missing,
			want:  missing,
		},
		{
			name:  "ZeroRateStaysMissing",
			eur:   missing,
			local: invoice.Found(decimal.NewFromInt(29800)),
			rate:  invoice.Found(decimal.Zero),
			want:  missing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := invoice.ResolveEUR(tt.eur, tt.local, tt.rate)
			assert.Equal(t, tt.want.State, got.State)
			assert.True(t, tt.want.Value.Equal(got.Value), got.Value.String())
		})
	}
}

func TestDeriveRate(t *testing.T) {
	got := invoice.DeriveRate(
		invoice.Found(decimal.RequireFromString("304.08")),
		invoice.Estimated(decimal.NewFromInt(29800)),
	)

	assert.Equal(t, invoice.StateEstimated, got.State)
	assert.Equal(t, "98.0005", got.Value.String())

	assert.False(t, invoice.DeriveRate(invoice.Missing[decimal.Decimal](), invoice.Found(decimal.NewFromInt(1))).OK())
}
