package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/stockscan/internal/catalog"
	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/matching"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
)

// openingBatchLead dates a legacy opening batch ahead of the receipt that
// triggered it.
const openingBatchLead = time.Second

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=inventory
type Repository interface {
	LoadCatalog(ctx context.Context) (*catalog.Snapshot, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	// AppendBatches inserts batches and applies upd to the product atomically.
	AppendBatches(ctx context.Context, productID string, batches []catalog.Batch, upd ProductUpdate) error
	CreateProduct(ctx context.Context, p *catalog.Product) error
	EnsureSupplier(ctx context.Context, name string) error

	FindCreditorByName(ctx context.Context, name string) (*Creditor, error)
	CreateCreditor(ctx context.Context, name string) (*Creditor, error)
	AddCreditorInvoice(ctx context.Context, creditorID string, ci CreditorInvoice) error
}

type Service struct {
	repo   Repository
	policy pricing.Policy
	log    zerolog.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for batch and payable timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, policy pricing.Policy, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		policy: policy,
		log:    log,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Snapshot loads a fresh catalog snapshot for the next scan.
func (s *Service) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	snap, err := s.repo.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	return snap, nil
}

// Reconcile applies results in order. A result that fails is recorded in
// Result.Errors and the rest are still applied. The payable is recorded once
// after all items.
func (s *Service) Reconcile(ctx context.Context, inv *invoice.Invoice, results []matching.MatchResult) (*Result, error) {
	if inv == nil {
		return nil, ErrNilInvoice
	}

	res := &Result{Errors: []ItemError{}}
	now := s.now()
	supplier := supplierName(inv)

	for i, r := range results {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("reconciling item %d: %w", i, err)
		}

		if err := s.apply(ctx, inv, r, supplier, now); err != nil {
			res.Errors = append(res.Errors, ItemError{
				Index:   i,
				Item:    r.Item.Name,
				Message: err.Error(),
				Err:     err,
			})

			continue
		}

		if r.Action == matching.ActionUpdate {
			res.Updated++
		} else {
			res.Added++
		}
	}

	s.recordPayable(ctx, inv, supplier, now, res)

	return res, nil
}

func (s *Service) apply(ctx context.Context, inv *invoice.Invoice, r matching.MatchResult, supplier string, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}

	if r.Item.Quantity < 1 {
		return ErrInvalidQuantity
	}

	if r.Action == matching.ActionUpdate {
		return s.update(ctx, inv, r, supplier, now)
	}

	return s.addNew(ctx, inv, r, supplier, now)
}

func (s *Service) update(ctx context.Context, inv *invoice.Invoice, r matching.MatchResult, supplier string, now time.Time) error {
	p, err := s.repo.GetProduct(ctx, r.ProductRef)
	if err != nil {
		return fmt.Errorf("loading product %s: %w", r.ProductRef, err)
	}

	item := r.Item

	var batches []catalog.Batch

	// stock that predates batch tracking gets one opening batch at the
	// cost it was recorded with, dated before the receipt so it is consumed first
	if p.IsLegacy() {
		batches = append(batches, catalog.Batch{
			ID:         uuid.NewString(),
			Quantity:   p.Stock,
			UnitCost:   p.BaseCost,
			AcquiredAt: now.Add(-openingBatchLead),
			Supplier:   catalog.LegacySupplier,
		})
	}

	batches = append(batches, catalog.Batch{
		ID:         uuid.NewString(),
		Quantity:   item.Quantity,
		UnitCost:   item.UnitPrice,
		AcquiredAt: now,
		Supplier:   supplier,
		InvoiceRef: inv.InvoiceNumber.Value,
	})

	upd := ProductUpdate{
		StockDelta: item.Quantity,
		BaseCost:   item.UnitPrice,
		Cost:       s.policy.WithTax(item.UnitPrice).Round(2),
	}

	if p.Code == "" && item.Code != "" {
		upd.Code = item.Code
	}

	if err := s.repo.AppendBatches(ctx, p.ID, batches, upd); err != nil {
		return fmt.Errorf("appending batch to %s: %w", p.ID, err)
	}

	return nil
}

func (s *Service) addNew(ctx context.Context, inv *invoice.Invoice, r matching.MatchResult, supplier string, now time.Time) error {
	item := r.Item
	if strings.TrimSpace(item.Name) == "" {
		return ErrUnnamedItem
	}

	quote := s.policy.Quote(item)
	if r.Pricing != nil {
		quote = *r.Pricing
	}

	p := &catalog.Product{
		ID:       uuid.NewString(),
		Code:     item.Code,
		Name:     strings.TrimSpace(item.Name),
		Stock:    item.Quantity,
		BaseCost: quote.BaseCost,
		Cost:     quote.CostWithTax,
		Price:    quote.SuggestedPrice,
		Batches: []catalog.Batch{{
			ID:         uuid.NewString(),
			Quantity:   item.Quantity,
			UnitCost:   item.UnitPrice,
			AcquiredAt: now,
			Supplier:   supplier,
			InvoiceRef: inv.InvoiceNumber.Value,
		}},
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}

	if supplier == "" {
		return nil
	}

	// the product exists at this point; a failed supplier registration
	// does not undo it
	if err := s.repo.EnsureSupplier(ctx, supplier); err != nil {
		s.log.Warn().Err(err).Str("supplier", supplier).Msg("registering supplier")
	}

	return nil
}

func (s *Service) recordPayable(ctx context.Context, inv *invoice.Invoice, supplier string, now time.Time, res *Result) {
	amount, ok := inv.Total()
	number := strings.TrimSpace(inv.InvoiceNumber.Value)

	if supplier == "" || number == "" || !ok || !amount.IsPositive() {
		s.log.Warn().
			Str("supplier", supplier).
			Str("invoice_number", number).
			Msg("payable not recorded: supplier, invoice number or total missing")

		return
	}

	creditor, err := s.repo.FindCreditorByName(ctx, supplier)
	if errors.Is(err, ErrNotFound) {
		creditor, err = s.repo.CreateCreditor(ctx, supplier)
	}

	if err != nil {
		s.log.Warn().Err(err).Str("supplier", supplier).Msg("payable not recorded: creditor")
		return
	}

	ci := CreditorInvoice{
		ID:              uuid.NewString(),
		InvoiceNumber:   number,
		Date:            inv.Date.Value,
		Amount:          amount,
		Outstanding:     amount,
		Currency:        payableCurrency(inv),
		IIC:             inv.IIC,
		VerificationURL: inv.VerificationURL,
		CreatedAt:       now,
	}

	if err := s.repo.AddCreditorInvoice(ctx, creditor.ID, ci); err != nil {
		s.log.Warn().Err(err).Str("creditor_id", creditor.ID).Msg("payable not recorded: invoice")
		return
	}

	res.CreditorID = creditor.ID
	res.PayableRecorded = true
}

func supplierName(inv *invoice.Invoice) string {
	if !inv.Supplier.OK() {
		return ""
	}

	return strings.TrimSpace(inv.Supplier.Value.Name)
}

// payableCurrency follows invoice.Total, which prefers the EUR amount.
func payableCurrency(inv *invoice.Invoice) string {
	if inv.TotalEUR.OK() {
		return invoice.CurrencyEUR
	}

	if inv.Currency == "" {
		return invoice.CurrencyEUR
	}

	return inv.Currency
}
