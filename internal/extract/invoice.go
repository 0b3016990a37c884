package extract

import (
	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/lineitem"
)

// Invoice runs every field extractor and the line-item parser over one
// document. It never fails: fields that could not be read are marked.
func Invoice(in Input, source invoice.Source) *invoice.Invoice {
	totals := ExtractTotals(in)

	inv := &invoice.Invoice{
		Source:        source,
		InvoiceNumber: InvoiceNumber(in),
		Supplier:      Supplier(in),
		Customer:      Customer(in),
		Date:          Date(in),
		Time:          Time(in),
		TotalLocal:    totals.Local,
		TotalEUR:      totals.EUR,
		ExchangeRate:  totals.Rate,
		Currency:      totals.Currency,
		PaymentType:   PaymentType(in),
		Items:         lineitem.Parse(in.Text.Lines),
	}

	inv.EnsureNumber(in.Now)

	return inv
}
