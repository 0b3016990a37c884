package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/stockscan/internal/catalog"
	"github.com/MrJamesThe3rd/stockscan/internal/inventory"
	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/logger"
	"github.com/MrJamesThe3rd/stockscan/internal/matching"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
)

var now = time.Date(2024, 10, 14, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService(repo inventory.Repository) *inventory.Service {
	return inventory.NewService(repo, pricing.DefaultPolicy(), logger.Nop(), inventory.WithClock(func() time.Time { return now }))
}

func purchase() *invoice.Invoice {
	return &invoice.Invoice{
		InvoiceNumber: invoice.Found("22901/U1/0003"),
		Supplier:      invoice.Found(invoice.Party{Name: "Alpha Trade SHPK"}),
		Date:          invoice.Found("2024-10-12"),
		TotalLocal:    invoice.Found(dec("4700")),
		TotalEUR:      invoice.Found(dec("47.00")),
		Currency:      invoice.CurrencyALL,
	}
}

func item(code, name string, qty int, price string) invoice.LineItem {
	return invoice.NewLineItem(code, name, qty, dec(price), nil)
}

func TestService_Reconcile_Update(t *testing.T) {
	type testCase struct {
		name    string
		product *catalog.Product
		item    invoice.LineItem
		check   func(t *testing.T, batches []catalog.Batch, upd inventory.ProductUpdate)
	}

	tests := []testCase{
		{
			name: "AppendsBatch",
			product: &catalog.Product{
				ID: "p1", Code: "0.033-709.0", Name: "Spray Nozzle", Stock: 4, BaseCost: dec("20.00"),
				Batches: []catalog.Batch{{ID: "b0", Quantity: 4, UnitCost: dec("20.00")}},
			},
			item: item("0.033-709.0", "Spray Nozzle", 2, "23.50"),
			check: func(t *testing.T, batches []catalog.Batch, upd inventory.ProductUpdate) {
				require.Len(t, batches, 1)
				assert.Equal(t, 2, batches[0].Quantity)
				assert.True(t, dec("23.50").Equal(batches[0].UnitCost))
				assert.Equal(t, "Alpha Trade SHPK", batches[0].Supplier)
				assert.Equal(t, "22901/U1/0003", batches[0].InvoiceRef)
				assert.Equal(t, now, batches[0].AcquiredAt)

				assert.Equal(t, 2, upd.StockDelta)
				assert.True(t, dec("23.50").Equal(upd.BaseCost))
				assert.True(t, dec("28.20").Equal(upd.Cost))
				assert.Empty(t, upd.Code)
			},
		},
		{
			name:    "LegacyStockGetsOpeningBatch",
			product: &catalog.Product{ID: "p1", Name: "Spray Nozzle", Stock: 7, BaseCost: dec("18.00")},
			item:    item("", "Spray Nozzle", 2, "23.50"),
			check: func(t *testing.T, batches []catalog.Batch, upd inventory.ProductUpdate) {
				require.Len(t, batches, 2)
				assert.Equal(t, catalog.LegacySupplier, batches[0].Supplier)
				assert.Equal(t, 7, batches[0].Quantity)
				assert.True(t, dec("18.00").Equal(batches[0].UnitCost))
				assert.Equal(t, 2, batches[1].Quantity)
				assert.True(t, batches[0].AcquiredAt.Before(batches[1].AcquiredAt), "opening batch must be consumed first")
				assert.Equal(t, 2, upd.StockDelta)
			},
		},
		{
			name:    "BackfillsMissingCode",
			product: &catalog.Product{ID: "p1", Name: "Spray Nozzle"},
			item:    item("0.033-709.0", "Spray Nozzle", 1, "23.50"),
			check: func(t *testing.T, batches []catalog.Batch, upd inventory.ProductUpdate) {
				require.Len(t, batches, 1)
				assert.Equal(t, "0.033-709.0", upd.Code)
			},
		},
		{
			name:    "KeepsExistingCode",
			product: &catalog.Product{ID: "p1", Code: "OLD-1", Name: "Spray Nozzle"},
			item:    item("0.033-709.0", "Spray Nozzle", 1, "23.50"),
			check: func(t *testing.T, _ []catalog.Batch, upd inventory.ProductUpdate) {
				assert.Empty(t, upd.Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := inventory.NewMockRepository(ctrl)
			repo.EXPECT().GetProduct(gomock.Any(), "p1").Return(tt.product, nil)
			repo.EXPECT().
				AppendBatches(gomock.Any(), "p1", gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, batches []catalog.Batch, upd inventory.ProductUpdate) error {
					tt.check(t, batches, upd)
					return nil
				})
			repo.EXPECT().FindCreditorByName(gomock.Any(), "Alpha Trade SHPK").Return(&inventory.Creditor{ID: "c1"}, nil)
			repo.EXPECT().AddCreditorInvoice(gomock.Any(), "c1", gomock.Any()).Return(nil)

			results := []matching.MatchResult{matching.Update(tt.item, "p1", matching.MatchCode, 0)}

			got, err := newService(repo).Reconcile(context.Background(), purchase(), results)
			require.NoError(t, err)
			assert.Equal(t, 1, got.Updated)
			assert.Zero(t, got.Added)
			assert.Empty(t, got.Errors)
		})
	}
}

func TestService_Reconcile_AddNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := inventory.NewMockRepository(ctrl)
	repo.EXPECT().
		CreateProduct(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *catalog.Product) error {
			assert.NotEmpty(t, p.ID)
			assert.Equal(t, "Hochdruckschlauch", p.Name)
			assert.Equal(t, "6.390-028.0", p.Code)
			assert.Equal(t, 2, p.Stock)
			assert.True(t, dec("23.50").Equal(p.BaseCost))
			assert.True(t, dec("28.20").Equal(p.Cost))
			assert.True(t, dec("39.48").Equal(p.Price))
			require.Len(t, p.Batches, 1)
			assert.Equal(t, 2, p.Batches[0].Quantity)
			assert.Equal(t, "Alpha Trade SHPK", p.Batches[0].Supplier)

			return nil
		})
	repo.EXPECT().EnsureSupplier(gomock.Any(), "Alpha Trade SHPK").Return(nil)
	repo.EXPECT().FindCreditorByName(gomock.Any(), gomock.Any()).Return(nil, inventory.ErrNotFound)
	repo.EXPECT().CreateCreditor(gomock.Any(), "Alpha Trade SHPK").Return(&inventory.Creditor{ID: "c9", Name: "Alpha Trade SHPK"}, nil)
	repo.EXPECT().
		AddCreditorInvoice(gomock.Any(), "c9", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, ci inventory.CreditorInvoice) error {
			assert.Equal(t, "22901/U1/0003", ci.InvoiceNumber)
			assert.True(t, dec("47.00").Equal(ci.Amount))
			assert.True(t, ci.Amount.Equal(ci.Outstanding))
			assert.Equal(t, invoice.CurrencyEUR, ci.Currency)
			assert.False(t, ci.Paid)

			return nil
		})

	results := []matching.MatchResult{matching.AddNew(item("6.390-028.0", "Hochdruckschlauch", 2, "23.50"))}

	got, err := newService(repo).Reconcile(context.Background(), purchase(), results)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Added)
	assert.Equal(t, "c9", got.CreditorID)
	assert.True(t, got.PayableRecorded)
}

func TestService_Reconcile_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := inventory.NewMockRepository(ctrl)

	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		repo.EXPECT().GetProduct(gomock.Any(), id).Return(&catalog.Product{ID: id, Name: id}, nil)
	}

	repo.EXPECT().AppendBatches(gomock.Any(), "p1", gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().AppendBatches(gomock.Any(), "p2", gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().AppendBatches(gomock.Any(), "p3", gomock.Any(), gomock.Any()).Return(errors.New("db error"))
	repo.EXPECT().AppendBatches(gomock.Any(), "p4", gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().EnsureSupplier(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().FindCreditorByName(gomock.Any(), gomock.Any()).Return(&inventory.Creditor{ID: "c1"}, nil)
	repo.EXPECT().AddCreditorInvoice(gomock.Any(), "c1", gomock.Any()).Return(nil)

	results := []matching.MatchResult{
		matching.Update(item("", "one", 1, "1.00"), "p1", matching.MatchExactName, 0),
		matching.Update(item("", "two", 1, "1.00"), "p2", matching.MatchExactName, 0),
		matching.Update(item("", "three", 1, "1.00"), "p3", matching.MatchExactName, 0),
		matching.Update(item("", "four", 1, "1.00"), "p4", matching.MatchExactName, 0),
		matching.AddNew(item("", "five", 1, "1.00")),
	}

	got, err := newService(repo).Reconcile(context.Background(), purchase(), results)
	require.NoError(t, err)

	assert.Equal(t, 3, got.Updated)
	assert.Equal(t, 1, got.Added)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, 2, got.Errors[0].Index)
	assert.Equal(t, "three", got.Errors[0].Item)
	assert.True(t, got.Partial())
	assert.True(t, got.PayableRecorded)
}

func TestService_Reconcile_InvalidResults(t *testing.T) {
	type testCase struct {
		name    string
		result  matching.MatchResult
		wantErr error
	}

	tests := []testCase{
		{
			name:    "UpdateWithoutRef",
			result:  matching.MatchResult{Item: item("", "x", 1, "1"), Action: matching.ActionUpdate},
			wantErr: matching.ErrUpdateWithoutRef,
		},
		{
			name:    "UnknownAction",
			result:  matching.MatchResult{Item: item("", "x", 1, "1"), Action: "DELETE"},
			wantErr: matching.ErrUnknownAction,
		},
		{
			name:    "ZeroQuantity",
			result:  matching.MatchResult{Item: invoice.LineItem{Name: "x"}, Action: matching.ActionAddNew},
			wantErr: inventory.ErrInvalidQuantity,
		},
		{
			name:    "UnnamedItem",
			result:  matching.AddNew(item("", " ", 1, "1")),
			wantErr: inventory.ErrUnnamedItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := inventory.NewMockRepository(ctrl)
			repo.EXPECT().FindCreditorByName(gomock.Any(), gomock.Any()).Return(&inventory.Creditor{ID: "c1"}, nil)
			repo.EXPECT().AddCreditorInvoice(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

			got, err := newService(repo).Reconcile(context.Background(), purchase(), []matching.MatchResult{tt.result})
			require.NoError(t, err)
			require.Len(t, got.Errors, 1)
			assert.ErrorIs(t, got.Errors[0], tt.wantErr)
			assert.False(t, got.Partial())
		})
	}
}

func TestService_Reconcile_PayableSkipped(t *testing.T) {
	type testCase struct {
		name   string
		mutate func(inv *invoice.Invoice)
	}

	tests := []testCase{
		{
			name:   "NoSupplier",
			mutate: func(inv *invoice.Invoice) { inv.Supplier = invoice.Missing[invoice.Party]() },
		},
		{
			name:   "NoInvoiceNumber",
			mutate: func(inv *invoice.Invoice) { inv.InvoiceNumber = invoice.Missing[string]() },
		},
		{
			name: "NoTotal",
			mutate: func(inv *invoice.Invoice) {
				inv.TotalEUR = invoice.Missing[decimal.Decimal]()
				inv.TotalLocal = invoice.Missing[decimal.Decimal]()
			},
		},
		{
			name: "ZeroTotal",
			mutate: func(inv *invoice.Invoice) {
				inv.TotalEUR = invoice.Found(decimal.Zero)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// any creditor call fails the test
			repo := inventory.NewMockRepository(ctrl)

			inv := purchase()
			tt.mutate(inv)

			got, err := newService(repo).Reconcile(context.Background(), inv, nil)
			require.NoError(t, err)
			assert.False(t, got.PayableRecorded)
			assert.Empty(t, got.CreditorID)
		})
	}
}

func TestService_Reconcile_PayableFailureKeepsItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := inventory.NewMockRepository(ctrl)
	repo.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().EnsureSupplier(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
	repo.EXPECT().FindCreditorByName(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))

	got, err := newService(repo).Reconcile(context.Background(), purchase(), []matching.MatchResult{
		matching.AddNew(item("", "Kafe", 1, "1.00")),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Added)
	assert.Empty(t, got.Errors)
	assert.False(t, got.PayableRecorded)
}

func TestService_Reconcile_NilInvoice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := newService(inventory.NewMockRepository(ctrl)).Reconcile(context.Background(), nil, nil)
	assert.ErrorIs(t, err, inventory.ErrNilInvoice)
}

func TestService_Snapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snap := catalog.NewSnapshot([]catalog.Product{{ID: "p1", Name: "Kafe"}}, nil, now)

	repo := inventory.NewMockRepository(ctrl)
	repo.EXPECT().LoadCatalog(gomock.Any()).Return(snap, nil)

	got, err := newService(repo).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())

	repo.EXPECT().LoadCatalog(gomock.Any()).Return(nil, errors.New("db error"))

	_, err = newService(repo).Snapshot(context.Background())
	assert.Error(t, err)
}
