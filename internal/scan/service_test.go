package scan_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/stockscan/internal/catalog"
	"github.com/MrJamesThe3rd/stockscan/internal/inventory"
	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/logger"
	"github.com/MrJamesThe3rd/stockscan/internal/matching"
	"github.com/MrJamesThe3rd/stockscan/internal/ocr"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
	"github.com/MrJamesThe3rd/stockscan/internal/scan"
)

const fiscalURL = "https://efiskalizimi-app.tatime.gov.al/invoice-check/#/verify?iic=A1B2C3D4E5F6&tin=K12345678L&crtd=2024-10-12T10:15:00%2B02:00&prc=3040.80"

var (
	pageOne = "ACME Cleaning GmbH\nInvoice No: 2024-0042\nDate: 12.10.2024"
	pageTwo = "Pos.  Material  Description  Qty  Price  Total\n0001  0.033-709.0  Spray Nozzle  2 PC  23.50  47.00\nTotal: 47.00 EUR"
)

type fakeRecognizer struct {
	results []ocr.Result
	err     error
	calls   int
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte) (ocr.Result, error) {
	defer func() { f.calls++ }()

	if f.err != nil {
		return ocr.Result{}, f.err
	}

	return f.results[f.calls], nil
}

type fakeFiscal struct {
	payload string
	err     error
}

func (f *fakeFiscal) Extract(_ context.Context, payload string, _ []string) (*invoice.Invoice, error) {
	f.payload = payload
	if f.err != nil {
		return nil, f.err
	}

	return &invoice.Invoice{Source: invoice.SourceFiscal, InvoiceNumber: invoice.Found("77")}, nil
}

type fakeInventory struct {
	snap   *catalog.Snapshot
	result *inventory.Result
}

func (f *fakeInventory) Snapshot(context.Context) (*catalog.Snapshot, error) {
	return f.snap, nil
}

func (f *fakeInventory) Reconcile(context.Context, *invoice.Invoice, []matching.MatchResult) (*inventory.Result, error) {
	return f.result, nil
}

func qrPNG(t *testing.T, payload string) []byte {
	t.Helper()

	// a different encoder than the decoder under test
	data, err := qrcode.Encode(payload, qrcode.Medium, 400)
	require.NoError(t, err)

	return data
}

func TestService_ScanImages(t *testing.T) {
	type testCase struct {
		name       string
		pages      [][]byte
		recognizer *fakeRecognizer
		check      func(t *testing.T, inv *invoice.Invoice, f *fakeFiscal, r *fakeRecognizer)
		wantErr    error
	}

	tests := []testCase{
		{
			name:  "JoinsPagesInOrder",
			pages: [][]byte{[]byte("page-1"), []byte("page-2")},
			recognizer: &fakeRecognizer{results: []ocr.Result{
				{Text: pageOne, Confidence: 91},
				{Text: pageTwo, Confidence: 88},
			}},
			check: func(t *testing.T, inv *invoice.Invoice, _ *fakeFiscal, r *fakeRecognizer) {
				assert.Equal(t, 2, r.calls)
				assert.Equal(t, invoice.SourceOCR, inv.Source)
				assert.Equal(t, "2024-0042", inv.InvoiceNumber.Value)
				assert.Equal(t, "2024-10-12", inv.Date.Value)
				require.Len(t, inv.Items, 1)
				assert.Equal(t, "Spray Nozzle", inv.Items[0].Name)
			},
		},
		{
			name:  "SkipsBlankPage",
			pages: [][]byte{[]byte("page-1"), []byte("page-2")},
			recognizer: &fakeRecognizer{results: []ocr.Result{
				{Text: pageOne + "\n" + pageTwo},
				{Text: "   "},
			}},
			check: func(t *testing.T, inv *invoice.Invoice, _ *fakeFiscal, _ *fakeRecognizer) {
				require.Len(t, inv.Items, 1)
			},
		},
		{
			name:       "TooLittleText",
			pages:      [][]byte{[]byte("page-1")},
			recognizer: &fakeRecognizer{results: []ocr.Result{{Text: "TOTAL 5,00"}}},
			wantErr:    invoice.ErrUnreadable,
		},
		{
			name:       "EngineFailure",
			pages:      [][]byte{[]byte("page-1")},
			recognizer: &fakeRecognizer{err: ocr.ErrEngineUnavailable},
			wantErr:    invoice.ErrCollaborator,
		},
		{
			name:       "EveryPageEmpty",
			pages:      [][]byte{[]byte("page-1")},
			recognizer: &fakeRecognizer{err: ocr.ErrNoText},
			wantErr:    invoice.ErrUnreadable,
		},
		{
			name:       "NoPages",
			recognizer: &fakeRecognizer{},
			wantErr:    invoice.ErrUnreadable,
		},
		{
			name:       "FiscalQRSkipsOCR",
			pages:      [][]byte{qrPNG(t, fiscalURL)},
			recognizer: &fakeRecognizer{},
			check: func(t *testing.T, inv *invoice.Invoice, f *fakeFiscal, r *fakeRecognizer) {
				assert.Equal(t, fiscalURL, f.payload)
				assert.Equal(t, invoice.SourceFiscal, inv.Source)
				assert.Zero(t, r.calls)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFiscal{}
			svc := scan.NewService(scan.Dependencies{Recognizer: tt.recognizer, Fiscal: f}, logger.Nop())

			got, err := svc.ScanImages(context.Background(), tt.pages)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			tt.check(t, got, f, tt.recognizer)
		})
	}
}

func TestService_ScanText(t *testing.T) {
	f := &fakeFiscal{}
	svc := scan.NewService(scan.Dependencies{Fiscal: f}, logger.Nop())

	t.Run("Plain", func(t *testing.T) {
		got, err := svc.ScanText(context.Background(), strings.NewReader(pageOne+"\n"+pageTwo))
		require.NoError(t, err)
		assert.Equal(t, invoice.SourceText, got.Source)
		assert.Len(t, got.Items, 1)
	})

	t.Run("HTML", func(t *testing.T) {
		page := `<html><body>
			<p>ACME Cleaning GmbH</p>
			<p>Invoice No: 2024-0042</p>
			<table>
				<tr><th>Description</th><th>Qty</th><th>Price</th></tr>
				<tr><td>Kafe Espresso</td><td>2</td><td>150,00</td><td>300,00</td></tr>
			</table>
			<p>Total: 300,00</p>
		</body></html>`

		got, err := svc.ScanText(context.Background(), strings.NewReader(page))
		require.NoError(t, err)
		assert.Equal(t, invoice.SourceHTML, got.Source)
		assert.Equal(t, "2024-0042", got.InvoiceNumber.Value)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "Kafe Espresso", got.Items[0].Name)
	})

	t.Run("FiscalURL", func(t *testing.T) {
		got, err := svc.ScanText(context.Background(), strings.NewReader(fiscalURL+"\n"))
		require.NoError(t, err)
		assert.Equal(t, invoice.SourceFiscal, got.Source)
		assert.Equal(t, fiscalURL, f.payload)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := svc.ScanText(context.Background(), strings.NewReader("\n\n"))
		assert.ErrorIs(t, err, invoice.ErrUnreadable)
	})
}

func TestService_ScanFiscal_PropagatesMissingParameter(t *testing.T) {
	svc := scan.NewService(scan.Dependencies{Fiscal: &fakeFiscal{err: invoice.ErrMissingParameter}}, logger.Nop())

	_, err := svc.ScanFiscal(context.Background(), "https://efiskalizimi.tatime.gov.al/#/verify?iic=X")
	assert.ErrorIs(t, err, invoice.ErrMissingParameter)
}

func TestService_Review(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	takenAt := time.Date(2024, 10, 14, 9, 0, 0, 0, time.UTC)
	snap := catalog.NewSnapshot([]catalog.Product{
		{ID: "p1", Code: "0.033-709.0", Name: "Spray Nozzle"},
		{ID: "p2", Name: "Kafe Espresso"},
	}, nil, takenAt)

	aliasRepo := matching.NewMockRepository(ctrl)
	aliasRepo.EXPECT().FindAlias(gomock.Any(), "kafeespr").Return("p2", nil)
	aliasRepo.EXPECT().FindAlias(gomock.Any(), gomock.Any()).Return("", nil).AnyTimes()

	svc := scan.NewService(scan.Dependencies{
		Aliases:   matching.NewService(aliasRepo),
		Inventory: &fakeInventory{snap: snap},
		Pricing:   pricing.DefaultPolicy(),
	}, logger.Nop())

	inv := &invoice.Invoice{
		InvoiceNumber: invoice.Found("2024-0042"),
		TotalEUR:      invoice.Found(decimal.RequireFromString("94.00")),
		Items: []invoice.LineItem{
			invoice.NewLineItem("0.033-709.0", "Spray Nozzle", 2, decimal.RequireFromString("23.50"), nil),
			invoice.NewLineItem("", "Kafe espr.", 1, decimal.RequireFromString("1.00"), nil),
			invoice.NewLineItem("", "Hochdruckschlauch", 1, decimal.RequireFromString("23.50"), nil),
		},
	}

	got, err := svc.Review(context.Background(), inv)
	require.NoError(t, err)
	require.Len(t, got.Results, 3)

	assert.Equal(t, matching.MatchCode, got.Results[0].MatchType)
	assert.Equal(t, "p1", got.Results[0].ProductRef)
	assert.Nil(t, got.Results[0].Pricing)

	assert.Equal(t, matching.MatchAlias, got.Results[1].MatchType)
	assert.Equal(t, "p2", got.Results[1].ProductRef)

	assert.Equal(t, matching.ActionAddNew, got.Results[2].Action)
	require.NotNil(t, got.Results[2].Pricing)
	assert.True(t, decimal.RequireFromString("39.48").Equal(got.Results[2].Pricing.SuggestedPrice))

	assert.Equal(t, takenAt, got.SnapshotAt)
	assert.False(t, got.Incomplete)
	assert.Empty(t, inv.Items[1].ProductRef, "review must not modify the invoice")
}

func TestService_Review_CodeBeatsAlias(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snap := catalog.NewSnapshot([]catalog.Product{
		{ID: "p1", Code: "ABC123", Name: "Pump seal"},
		{ID: "p2", Name: "Gasket"},
	}, nil, time.Now())

	aliasRepo := matching.NewMockRepository(ctrl)
	aliasRepo.EXPECT().FindAlias(gomock.Any(), "pumpsealkit").Return("p2", nil)

	svc := scan.NewService(scan.Dependencies{
		Aliases:   matching.NewService(aliasRepo),
		Inventory: &fakeInventory{snap: snap},
		Pricing:   pricing.DefaultPolicy(),
	}, logger.Nop())

	inv := &invoice.Invoice{
		Items: []invoice.LineItem{
			invoice.NewLineItem("abc-123", "Pump seal kit", 1, decimal.RequireFromString("9.00"), nil),
		},
	}

	got, err := svc.Review(context.Background(), inv)
	require.NoError(t, err)
	require.Len(t, got.Results, 1)

	assert.Equal(t, matching.ActionUpdate, got.Results[0].Action)
	assert.Equal(t, "p1", got.Results[0].ProductRef)
	assert.Equal(t, matching.MatchCode, got.Results[0].MatchType)
}

func TestService_Confirm(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	aliasRepo := matching.NewMockRepository(ctrl)
	aliasRepo.EXPECT().SaveAlias(gomock.Any(), "spraynozle", "p1").Return(nil)
	aliasRepo.EXPECT().SaveAlias(gomock.Any(), "kafe", "p4").Return(nil)

	inv := &invoice.Invoice{InvoiceNumber: invoice.Found("2024-0042")}
	result := &inventory.Result{
		Updated:         3,
		Errors:          []inventory.ItemError{{Index: 2, Item: "Seal", Message: "db error"}},
		CreditorID:      "c1",
		PayableRecorded: true,
	}

	svc := scan.NewService(scan.Dependencies{
		Aliases:   matching.NewService(aliasRepo),
		Inventory: &fakeInventory{result: result},
	}, logger.Nop())

	item := func(name string) invoice.LineItem {
		return invoice.NewLineItem("", name, 1, decimal.NewFromInt(1), nil)
	}

	results := []matching.MatchResult{
		matching.Update(item("Spray Nozle"), "p1", matching.MatchFuzzyName, 1),
		matching.Update(item("Filter"), "p2", matching.MatchExactName, 0),
		matching.Update(item("Seal"), "p3", matching.MatchNormalizedName, 0),
		matching.Update(item("Kafe"), "p4", "", 0),
		matching.AddNew(item("Cable tie")),
	}

	got, err := svc.Confirm(context.Background(), inv, results)
	require.NoError(t, err)
	assert.Same(t, result, got)
	assert.Equal(t, "c1", inv.CreditorID)
}
