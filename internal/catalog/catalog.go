// Package catalog holds the product model and the read-only snapshot the
// matcher works against during one scan.
package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LegacySupplier marks the opening batch synthesized for stock that
// predates batch tracking.
const LegacySupplier = "LEGACY_STOCK"

// Batch is one stock receipt: quantity and unit cost of a purchase lot.
type Batch struct {
	ID         string          `json:"id"`
	Quantity   int             `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	AcquiredAt time.Time       `json:"acquired_at"`
	Supplier   string          `json:"supplier"`
	InvoiceRef string          `json:"invoice_ref,omitempty"`
}

// Product is a catalog entry. BaseCost is the latest purchase cost before
// tax, Cost includes tax, Price is the selling price.
type Product struct {
	ID       string          `json:"id"`
	Code     string          `json:"code,omitempty"`
	Name     string          `json:"name"`
	Producer string          `json:"producer,omitempty"`
	Stock    int             `json:"stock"`
	BaseCost decimal.Decimal `json:"base_cost"`
	Cost     decimal.Decimal `json:"cost"`
	Price    decimal.Decimal `json:"price"`
	Batches  []Batch         `json:"batches,omitempty"`
}

// IsLegacy reports whether the product carries stock without any batch.
func (p *Product) IsLegacy() bool {
	return p.Stock > 0 && len(p.Batches) == 0
}

func (p Product) clone() Product {
	p.Batches = slices.Clone(p.Batches)
	return p
}

// Snapshot is an immutable view of the catalog taken once per scan.
type Snapshot struct {
	products  []Product
	byID      map[string]int
	suppliers []string
	takenAt   time.Time
}

// NewSnapshot copies products and suppliers, so later changes to the
// arguments never leak into the snapshot.
func NewSnapshot(products []Product, suppliers []string, takenAt time.Time) *Snapshot {
	s := &Snapshot{
		products:  make([]Product, 0, len(products)),
		byID:      make(map[string]int, len(products)),
		suppliers: slices.Clone(suppliers),
		takenAt:   takenAt,
	}

	for _, p := range products {
		s.products = append(s.products, p.clone())
	}

	slices.SortFunc(s.products, func(a, b Product) int { return strings.Compare(a.ID, b.ID) })

	for i, p := range s.products {
		s.byID[p.ID] = i
	}

	return s
}

// Products returns copies of all products ordered by ID.
func (s *Snapshot) Products() []Product {
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.clone())
	}

	return out
}

// Each calls fn for every product in ID order without copying batches.
// fn must not retain or modify the product.
func (s *Snapshot) Each(fn func(p *Product) bool) {
	for i := range s.products {
		if !fn(&s.products[i]) {
			return
		}
	}
}

// Product returns a copy of the product with id.
func (s *Snapshot) Product(id string) (Product, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Product{}, false
	}

	return s.products[i].clone(), true
}

func (s *Snapshot) Suppliers() []string {
	return slices.Clone(s.suppliers)
}

func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

func (s *Snapshot) Len() int {
	return len(s.products)
}
