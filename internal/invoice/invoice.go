package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies where the scanned text came from.
type Source string

const (
	SourceOCR    Source = "ocr"
	SourcePDF    Source = "pdf"
	SourceText   Source = "text"
	SourceHTML   Source = "html"
	SourceFiscal Source = "fiscal"
)

// FieldState tells the caller how much to trust a field value.
type FieldState string

const (
	StateExtracted FieldState = "extracted"
	StateEstimated FieldState = "estimated"
	StateDefaulted FieldState = "defaulted"
	StateMissing   FieldState = "missing"
)

// Field carries a best-effort value together with its provenance.
type Field[T any] struct {
	Value T          `json:"value"`
	State FieldState `json:"state"`
}

func Found[T any](v T) Field[T]     { return Field[T]{Value: v, State: StateExtracted} }
func Estimated[T any](v T) Field[T] { return Field[T]{Value: v, State: StateEstimated} }
func Defaulted[T any](v T) Field[T] { return Field[T]{Value: v, State: StateDefaulted} }
func Missing[T any]() Field[T]      { return Field[T]{State: StateMissing} }

// OK reports whether the field holds a value of any state other than missing.
func (f Field[T]) OK() bool {
	return f.State != "" && f.State != StateMissing
}

// Party is a supplier or customer as printed on the document.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"taxId,omitempty"`
}

// LineItem is one product row of an invoice.
type LineItem struct {
	Code       string          `json:"code,omitempty"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Total      decimal.Decimal `json:"total"`
	ProductRef string          `json:"productRef,omitempty"`
}

// NewLineItem builds an item, defaulting a non-positive quantity to 1 and
// deriving the total when it was not printed.
func NewLineItem(code, name string, qty int, unitPrice decimal.Decimal, total *decimal.Decimal) LineItem {
	if qty < 1 {
		qty = 1
	}

	item := LineItem{
		Code:      code,
		Name:      name,
		Quantity:  qty,
		UnitPrice: unitPrice,
		Total:     unitPrice.Mul(decimal.NewFromInt(int64(qty))),
	}

	if total != nil {
		item.Total = *total
	}

	return item
}

// Invoice is the structured result of one scan.
type Invoice struct {
	Source          Source                 `json:"source"`
	InvoiceNumber   Field[string]          `json:"invoiceNumber"`
	Supplier        Field[Party]           `json:"supplier"`
	Customer        Field[Party]           `json:"customer"`
	Date            Field[string]          `json:"date"`
	Time            Field[string]          `json:"time"`
	TotalLocal      Field[decimal.Decimal] `json:"totalLocal"`
	TotalEUR        Field[decimal.Decimal] `json:"totalEUR"`
	ExchangeRate    Field[decimal.Decimal] `json:"exchangeRate"`
	Currency        string                 `json:"currency"`
	PaymentType     Field[string]          `json:"paymentType"`
	Items           []LineItem             `json:"items"`
	VerificationURL string                 `json:"verificationURL,omitempty"`
	IIC             string                 `json:"iic,omitempty"`
	CreditorID      string                 `json:"creditorId,omitempty"`
}

// Total returns the invoice total in its own currency, preferring EUR.
func (inv *Invoice) Total() (decimal.Decimal, bool) {
	if inv.TotalEUR.OK() {
		return inv.TotalEUR.Value, true
	}

	if inv.TotalLocal.OK() {
		return inv.TotalLocal.Value, true
	}

	return decimal.Zero, false
}

// EnsureNumber synthesizes a timestamp-based invoice number when none was found.
func (inv *Invoice) EnsureNumber(now time.Time) {
	if inv.InvoiceNumber.OK() && inv.InvoiceNumber.Value != "" {
		return
	}

	inv.InvoiceNumber = Defaulted(fmt.Sprintf("INV-%s", now.Format("20060102150405")))
}

// Incomplete reports whether the invoice lacks a usable total and must not
// be registered as a sale without human input.
func (inv *Invoice) Incomplete() bool {
	_, ok := inv.Total()
	return !ok
}
