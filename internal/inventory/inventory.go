// Package inventory applies confirmed scan results to the catalog: stock and
// cost batches for matched products, new products for the rest, and the
// invoice itself as a payable to its supplier.
package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNilInvoice      = errors.New("invoice is nil")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrUnnamedItem     = errors.New("item has no name")
)

// ProductUpdate is applied together with new batches. Code is only written
// when non-empty.
type ProductUpdate struct {
	StockDelta int
	BaseCost   decimal.Decimal
	Cost       decimal.Decimal
	Code       string
}

type Creditor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreditorInvoice is an invoice owed to a creditor. It is recorded with the
// full amount outstanding.
type CreditorInvoice struct {
	ID              string          `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	Date            string          `json:"date,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	Currency        string          `json:"currency"`
	Paid            bool            `json:"paid"`
	IIC             string          `json:"iic,omitempty"`
	VerificationURL string          `json:"verification_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ItemError records one result that could not be applied.
type ItemError struct {
	Index   int    `json:"index"`
	Item    string `json:"item"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e ItemError) Error() string {
	return e.Item + ": " + e.Message
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// Result summarizes one reconciliation.
type Result struct {
	Updated         int         `json:"updated"`
	Added           int         `json:"added"`
	Errors          []ItemError `json:"errors"`
	CreditorID      string      `json:"creditor_id,omitempty"`
	PayableRecorded bool        `json:"payable_recorded"`
}

// Partial reports whether some, but not all, of the results failed.
func (r *Result) Partial() bool {
	return len(r.Errors) > 0 && r.Updated+r.Added > 0
}
