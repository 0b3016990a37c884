package fiscal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/stockscan/internal/extract"
	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/lineitem"
	"github.com/MrJamesThe3rd/stockscan/internal/textnorm"
)

// errImplausible marks a rendered page too short to hold an invoice.
var errImplausible = errors.New("rendered page implausibly short")

// Options configure an Extractor.
type Options struct {
	// VerifyBase is the portal address verification URLs are derived from.
	VerifyBase string
	// Timeout bounds the whole detail phase.
	Timeout time.Duration
	// DefaultRate is the local currency per EUR used when no rate is printed.
	DefaultRate decimal.Decimal
	// MinPageLength is the minimum flattened text length of a usable page.
	MinPageLength int
	OwnName       string
}

// Extractor turns a fiscal QR payload into an invoice.
type Extractor struct {
	renderer Renderer
	opts     Options
	log      zerolog.Logger
	now      func() time.Time
}

// NewExtractor creates an Extractor. A nil renderer skips the detail phase.
func NewExtractor(renderer Renderer, opts Options, log zerolog.Logger) *Extractor {
	return &Extractor{
		renderer: renderer,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// Extract parses the payload and enriches it from the rendered verification
// page when possible. Only a payload lacking mandatory parameters fails;
// a failed detail phase degrades to a single estimated line item.
func (e *Extractor) Extract(ctx context.Context, payload string, known []string) (*invoice.Invoice, error) {
	p, err := ParseURL(payload)
	if err != nil {
		return nil, fmt.Errorf("parsing fiscal payload: %w", err)
	}

	verifyURL := VerifyURL(e.opts.VerifyBase, p)

	inv, err := e.detail(ctx, p, verifyURL, known)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetching fiscal details: %w", ctxErr)
		}

		e.log.Warn().Err(err).Str("iic", p.IIC).Msg("fiscal detail phase failed, using estimate")
		inv = e.fallback(p)
	}

	inv.VerificationURL = verifyURL
	inv.EnsureNumber(e.now())

	return inv, nil
}

func (e *Extractor) detail(ctx context.Context, p Params, verifyURL string, known []string) (*invoice.Invoice, error) {
	if e.renderer == nil {
		return nil, errors.New("no renderer configured")
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	page, err := e.renderer.Render(ctx, verifyURL)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", verifyURL, err)
	}

	text, err := textnorm.FlattenHTML(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("flattening page: %w", err)
	}

	if n := utf8.RuneCountInString(text); n < e.opts.MinPageLength {
		return nil, fmt.Errorf("%w: %d characters", errImplausible, n)
	}

	in := extract.NewInput(text, known, e.opts.OwnName, e.now())
	totals := extract.ExtractTotals(in)

	inv := e.base(p)
	inv.Customer = extract.Customer(in)
	inv.PaymentType = extract.PaymentType(in)

	if totals.Local.OK() {
		inv.TotalLocal = totals.Local
	}

	inv.ExchangeRate = totals.Rate
	if !inv.ExchangeRate.OK() {
		inv.ExchangeRate = invoice.DeriveRate(totals.EUR, inv.TotalLocal)
	}

	if !inv.ExchangeRate.OK() {
		inv.ExchangeRate = invoice.Estimated(e.opts.DefaultRate)
	}

	inv.TotalEUR = invoice.ResolveEUR(totals.EUR, inv.TotalLocal, inv.ExchangeRate)

	if s := extract.Supplier(in); s.OK() {
		if s.Value.TaxID == "" {
			s.Value.TaxID = p.TIN
		}

		inv.Supplier = s
	}

	if !inv.InvoiceNumber.OK() {
		inv.InvoiceNumber = extract.InvoiceNumber(in)
	}

	if !inv.Date.OK() {
		inv.Date = extract.Date(in)
		inv.Time = extract.Time(in)
	}

	inv.Items = lineitem.Parse(in.Text.Lines)
	if len(inv.Items) == 0 {
		inv.Items = []invoice.LineItem{synthesizedItem(p)}
	}

	return inv, nil
}

// fallback builds the invoice from the URL parameters alone.
func (e *Extractor) fallback(p Params) *invoice.Invoice {
	inv := e.base(p)
	inv.ExchangeRate = invoice.Estimated(e.opts.DefaultRate)
	inv.TotalEUR = invoice.ResolveEUR(invoice.Missing[decimal.Decimal](), inv.TotalLocal, inv.ExchangeRate)
	inv.Items = []invoice.LineItem{synthesizedItem(p)}

	return inv
}

// base fills everything the URL parameters already tell.
func (e *Extractor) base(p Params) *invoice.Invoice {
	inv := &invoice.Invoice{
		Source:        invoice.SourceFiscal,
		InvoiceNumber: invoice.Missing[string](),
		Supplier:      invoice.Defaulted(invoice.Party{Name: "NIPT " + p.TIN, TaxID: p.TIN}),
		Customer:      invoice.Missing[invoice.Party](),
		Date:          invoice.Missing[string](),
		Time:          invoice.Missing[string](),
		TotalLocal:    invoice.Found(p.Price),
		TotalEUR:      invoice.Missing[decimal.Decimal](),
		ExchangeRate:  invoice.Missing[decimal.Decimal](),
		Currency:      invoice.CurrencyALL,
		PaymentType:   invoice.Missing[string](),
		IIC:           p.IIC,
	}

	if p.Order != "" {
		inv.InvoiceNumber = invoice.Found(p.Order)
	}

	if !p.CreatedAt.IsZero() {
		inv.Date = invoice.Found(p.CreatedAt.Format(time.DateOnly))
		inv.Time = invoice.Found(p.CreatedAt.Format(time.TimeOnly))
	}

	return inv
}

func synthesizedItem(p Params) invoice.LineItem {
	return invoice.NewLineItem("", "Fiscal invoice "+p.reference(), 1, p.Price, nil)
}
