// Package scan runs one scan-review-confirm cycle: raw input to an extracted
// invoice, the invoice matched against a fresh catalog snapshot, and the
// confirmed results reconciled into stock.
package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/stockscan/internal/catalog"
	"github.com/MrJamesThe3rd/stockscan/internal/encoding"
	"github.com/MrJamesThe3rd/stockscan/internal/extract"
	"github.com/MrJamesThe3rd/stockscan/internal/fiscal"
	"github.com/MrJamesThe3rd/stockscan/internal/inventory"
	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/matching"
	"github.com/MrJamesThe3rd/stockscan/internal/ocr"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
	"github.com/MrJamesThe3rd/stockscan/internal/textnorm"
)

// minTextRunes is the fewest non-space characters a readable document has.
const minTextRunes = 20

// FiscalExtractor resolves a fiscal QR payload.
type FiscalExtractor interface {
	Extract(ctx context.Context, payload string, known []string) (*invoice.Invoice, error)
}

// Aliases resolves and learns confirmed raw names.
type Aliases interface {
	ResolveAliases(ctx context.Context, items []invoice.LineItem) (matching.Aliases, error)
	Learn(ctx context.Context, rawName, productID string) error
}

// Inventory provides catalog snapshots and applies confirmed results.
type Inventory interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
	Reconcile(ctx context.Context, inv *invoice.Invoice, results []matching.MatchResult) (*inventory.Result, error)
}

// Dependencies are the collaborators of a Service. Any of them may be nil:
// a nil Recognizer rejects images, a nil Inventory rejects Review and Confirm.
type Dependencies struct {
	Recognizer ocr.Recognizer
	PDF        ocr.PageTexter
	Fiscal     FiscalExtractor
	Aliases    Aliases
	Inventory  Inventory
	Pricing    pricing.Policy
	// OwnName is the scanning business, never reported as supplier or customer.
	OwnName string
	// OnText, when set, sees the normalized text of every document before
	// extraction.
	OnText func(source invoice.Source, text textnorm.Text)
}

type Service struct {
	deps Dependencies
	log  zerolog.Logger
	now  func() time.Time
}

func NewService(deps Dependencies, log zerolog.Logger) *Service {
	return &Service{
		deps: deps,
		log:  log,
		now:  time.Now,
	}
}

// Review is what a human confirms: the invoice, one match per item and how
// much of the header was read rather than guessed.
type Review struct {
	Invoice             *invoice.Invoice       `json:"invoice"`
	Results             []matching.MatchResult `json:"results"`
	SnapshotAt          time.Time              `json:"snapshot_at"`
	Confidence          float64                `json:"confidence"`
	LowConfidenceFields []string               `json:"low_confidence_fields"`
	Incomplete          bool                   `json:"incomplete"`
}

// ScanImages reads photographed pages in order. A page carrying a fiscal
// QR code short-circuits to the fiscal extractor; other pages are OCRed and
// their text joined.
func (s *Service) ScanImages(ctx context.Context, pages [][]byte) (*invoice.Invoice, error) {
	if len(pages) == 0 {
		return nil, invoice.NewError("scan images", invoice.ErrUnreadable, "no pages")
	}

	texts := make([]string, 0, len(pages))

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if payload, ok := s.fiscalPayload(page); ok {
			s.log.Debug().Int("page", i+1).Msg("fiscal qr code found")
			return s.ScanFiscal(ctx, payload)
		}

		if s.deps.Recognizer == nil {
			return nil, invoice.NewError("ocr", ocr.ErrEngineUnavailable, "")
		}

		res, err := s.deps.Recognizer.Recognize(ctx, page)
		if err != nil {
			if errors.Is(err, ocr.ErrNoText) {
				s.log.Warn().Int("page", i+1).Msg("page has no text")
				continue
			}

			return nil, invoice.NewError("ocr", err, fmt.Sprintf("page %d", i+1))
		}

		s.log.Debug().Int("page", i+1).Float64("confidence", res.Confidence).Msg("page recognized")
		texts = append(texts, res.Text)
	}

	return s.fromText(ctx, strings.Join(texts, "\n"), invoice.SourceOCR)
}

func (s *Service) fiscalPayload(page []byte) (string, bool) {
	if s.deps.Fiscal == nil {
		return "", false
	}

	payload, err := fiscal.DecodeQRBytes(page)
	if err != nil || !fiscal.IsPayload(payload) {
		return "", false
	}

	return payload, true
}

// ScanPDF extracts the embedded text of a digital PDF.
func (s *Service) ScanPDF(ctx context.Context, data []byte) (*invoice.Invoice, error) {
	texter := s.deps.PDF
	if texter == nil {
		texter = ocr.PDFText{}
	}

	pages, err := texter.Pages(ctx, data)
	if err != nil {
		return nil, invoice.NewError("scan pdf", err, "")
	}

	return s.fromText(ctx, strings.Join(pages, "\n"), invoice.SourcePDF)
}

// ScanText reads a text or HTML export in any common encoding. A document
// that is only a fiscal verification URL goes to the fiscal extractor.
func (s *Service) ScanText(ctx context.Context, r io.Reader) (*invoice.Invoice, error) {
	utf8Reader, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, invoice.NewError("scan text", err, "detecting encoding")
	}

	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, invoice.NewError("scan text", err, "reading input")
	}

	if trimmed := strings.TrimSpace(string(data)); s.deps.Fiscal != nil && fiscal.IsPayload(trimmed) && !strings.ContainsAny(trimmed, " \n") {
		return s.ScanFiscal(ctx, trimmed)
	}

	if !isHTML(data) {
		return s.fromText(ctx, string(data), invoice.SourceText)
	}

	flat, err := textnorm.FlattenHTML(bytes.NewReader(data))
	if err != nil {
		return nil, invoice.NewError("scan html", err, "")
	}

	return s.fromText(ctx, flat, invoice.SourceHTML)
}

// ScanFiscal resolves a fiscal verification URL.
func (s *Service) ScanFiscal(ctx context.Context, url string) (*invoice.Invoice, error) {
	if s.deps.Fiscal == nil {
		return nil, invoice.NewError("scan fiscal", invoice.ErrCollaborator, "no fiscal extractor")
	}

	inv, err := s.deps.Fiscal.Extract(ctx, url, s.knownParties(ctx))
	if err != nil {
		return nil, invoice.NewError("scan fiscal", err, "")
	}

	return inv, nil
}

func (s *Service) fromText(ctx context.Context, raw string, source invoice.Source) (*invoice.Invoice, error) {
	if countText(raw) < minTextRunes {
		return nil, invoice.NewError("extract", invoice.ErrUnreadable, "too little text")
	}

	in := extract.NewInput(raw, s.knownParties(ctx), s.deps.OwnName, s.now())
	if s.deps.OnText != nil {
		s.deps.OnText(source, in.Text)
	}

	inv := extract.Invoice(in, source)

	if inv.Date.State == invoice.StateDefaulted {
		s.log.Warn().Str("invoice_number", inv.InvoiceNumber.Value).Msg("document date not found, using today")
	}

	return inv, nil
}

// knownParties lists catalog suppliers to recognize on the document. Without
// them extraction still works, only less reliably.
func (s *Service) knownParties(ctx context.Context) []string {
	if s.deps.Inventory == nil {
		return nil
	}

	snap, err := s.deps.Inventory.Snapshot(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("loading known suppliers")
		return nil
	}

	return snap.Suppliers()
}

// Review matches the invoice against a snapshot taken now and prices every
// item that would become a new product.
func (s *Service) Review(ctx context.Context, inv *invoice.Invoice) (*Review, error) {
	if inv == nil {
		return nil, inventory.ErrNilInvoice
	}

	if s.deps.Inventory == nil {
		return nil, invoice.NewError("review", invoice.ErrCollaborator, "no inventory")
	}

	snap, err := s.deps.Inventory.Snapshot(ctx)
	if err != nil {
		return nil, invoice.NewError("review", fmt.Errorf("%w: %w", invoice.ErrCollaborator, err), "")
	}

	var aliases matching.Aliases
	if s.deps.Aliases != nil {
		aliases, err = s.deps.Aliases.ResolveAliases(ctx, inv.Items)
		if err != nil {
			s.log.Warn().Err(err).Msg("resolving aliases")
			aliases = nil
		}
	}

	results := matching.MatchAllWithAliases(inv.Items, snap, aliases)
	for i := range results {
		if results[i].Action != matching.ActionAddNew {
			continue
		}

		q := s.deps.Pricing.Quote(results[i].Item)
		results[i].Pricing = &q
	}

	return &Review{
		Invoice:             inv,
		Results:             results,
		SnapshotAt:          snap.TakenAt(),
		Confidence:          inv.Confidence(),
		LowConfidenceFields: inv.LowConfidenceFields(),
		Incomplete:          inv.Incomplete(),
	}, nil
}

// Confirm reconciles the reviewed results and remembers names that needed
// more than an exact match, so the next scan resolves them directly. The
// creditor, when recorded, is attached to inv.
func (s *Service) Confirm(ctx context.Context, inv *invoice.Invoice, results []matching.MatchResult) (*inventory.Result, error) {
	if s.deps.Inventory == nil {
		return nil, invoice.NewError("confirm", invoice.ErrCollaborator, "no inventory")
	}

	res, err := s.deps.Inventory.Reconcile(ctx, inv, results)
	if err != nil {
		return nil, fmt.Errorf("reconciling: %w", err)
	}

	if res.CreditorID != "" {
		inv.CreditorID = res.CreditorID
	}

	s.learn(ctx, results, res)

	return res, nil
}

func (s *Service) learn(ctx context.Context, results []matching.MatchResult, res *inventory.Result) {
	if s.deps.Aliases == nil {
		return
	}

	failed := make(map[int]bool, len(res.Errors))
	for _, e := range res.Errors {
		failed[e.Index] = true
	}

	for i, r := range results {
		if failed[i] || !learnable(r) {
			continue
		}

		err := s.deps.Aliases.Learn(ctx, r.Item.Name, r.ProductRef)
		if err != nil && !errors.Is(err, matching.ErrEmptyAlias) {
			s.log.Warn().Err(err).Str("item", r.Item.Name).Msg("learning alias")
		}
	}
}

// learnable reports whether a confirmed update is worth remembering: a
// fuzzy or normalized match, or one the reviewer picked by hand.
func learnable(r matching.MatchResult) bool {
	if r.Action != matching.ActionUpdate {
		return false
	}

	switch r.MatchType {
	case matching.MatchFuzzyName, matching.MatchNormalizedName, "":
		return true
	}

	return false
}

func isHTML(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "text/html")
}

func countText(s string) int {
	n := 0

	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}

	return n
}
