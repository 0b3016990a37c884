package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/stockscan/internal/catalog"
	"github.com/MrJamesThe3rd/stockscan/internal/inventory"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectProductColumns = `p.id, p.code, p.name, p.producer, p.stock, p.base_cost, p.cost, p.price`

const selectBatchColumns = `b.id, b.product_id, b.quantity, b.unit_cost, b.acquired_at, b.supplier, b.invoice_ref`

// scanProduct expects selectProductColumns order.
func scanProduct(s scanner) (*catalog.Product, error) {
	var p catalog.Product

	var code, producer sql.NullString

	if err := s.Scan(&p.ID, &code, &p.Name, &producer, &p.Stock, &p.BaseCost, &p.Cost, &p.Price); err != nil {
		return nil, err
	}

	p.Code = code.String
	p.Producer = producer.String

	return &p, nil
}

// scanBatch expects selectBatchColumns order and returns the owning product id.
func scanBatch(s scanner) (string, catalog.Batch, error) {
	var (
		b         catalog.Batch
		productID string
		ref       sql.NullString
	)

	if err := s.Scan(&b.ID, &productID, &b.Quantity, &b.UnitCost, &b.AcquiredAt, &b.Supplier, &ref); err != nil {
		return "", catalog.Batch{}, err
	}

	b.InvoiceRef = ref.String

	return productID, b, nil
}

// LoadCatalog reads every product with its batches and the supplier list.
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectProductColumns+` FROM products p ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product

	byID := make(map[string]int)

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}

		byID[p.ID] = len(products)
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	batchRows, err := s.db.QueryContext(ctx, `SELECT `+selectBatchColumns+` FROM product_batches b ORDER BY b.acquired_at, b.seq`)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	defer batchRows.Close()

	for batchRows.Next() {
		productID, b, err := scanBatch(batchRows)
		if err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}

		if i, ok := byID[productID]; ok {
			products[i].Batches = append(products[i].Batches, b)
		}
	}

	if err := batchRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch rows: %w", err)
	}

	suppliers, err := s.listSuppliers(ctx)
	if err != nil {
		return nil, err
	}

	return catalog.NewSnapshot(products, suppliers, time.Now()), nil
}

func (s *Store) listSuppliers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning supplier: %w", err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating supplier rows: %w", err)
	}

	return names, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, inventory.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+selectProductColumns+` FROM products p WHERE p.id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, inventory.ErrNotFound
		}

		return nil, fmt.Errorf("getting product: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+selectBatchColumns+`
		FROM product_batches b
		WHERE b.product_id = $1
		ORDER BY b.acquired_at, b.seq`, id)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		_, b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}

		p.Batches = append(p.Batches, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch rows: %w", err)
	}

	return p, nil
}

// AppendBatches inserts the batches and increments stock in one database
// transaction. Batches are never updated afterwards.
func (s *Store) AppendBatches(ctx context.Context, productID string, batches []catalog.Batch, upd inventory.ProductUpdate) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, b := range batches {
		if err := insertBatch(ctx, dbTx, productID, b); err != nil {
			return err
		}
	}

	query := `
		UPDATE products
		SET stock = stock + $1,
			base_cost = $2,
			cost = $3,
			code = COALESCE(NULLIF(code, ''), NULLIF($4, '')),
			updated_at = NOW()
		WHERE id = $5
	`

	result, err := dbTx.ExecContext(ctx, query, upd.StockDelta, upd.BaseCost, upd.Cost, upd.Code, productID)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return inventory.ErrNotFound
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO products (id, code, name, producer, stock, base_cost, cost, price, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, $6, $7, $8, NOW(), NOW())
	`

	_, err = dbTx.ExecContext(ctx, query, p.ID, p.Code, p.Name, p.Producer, p.Stock, p.BaseCost, p.Cost, p.Price)
	if err != nil {
		return fmt.Errorf("creating product: %w", err)
	}

	for _, b := range p.Batches {
		if err := insertBatch(ctx, dbTx, p.ID, b); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, productID string, b catalog.Batch) error {
	query := `
		INSERT INTO product_batches (id, product_id, quantity, unit_cost, acquired_at, supplier, invoice_ref)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`

	_, err := tx.ExecContext(ctx, query, b.ID, productID, b.Quantity, b.UnitCost, b.AcquiredAt, b.Supplier, b.InvoiceRef)
	if err != nil {
		return fmt.Errorf("inserting batch: %w", err)
	}

	return nil
}

// EnsureSupplier registers name unless a supplier with the same name in any
// case exists.
func (s *Store) EnsureSupplier(ctx context.Context, name string) error {
	query := `
		INSERT INTO suppliers (name, created_at)
		VALUES ($1, NOW())
		ON CONFLICT (lower(name)) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("ensuring supplier: %w", err)
	}

	return nil
}

func (s *Store) FindCreditorByName(ctx context.Context, name string) (*inventory.Creditor, error) {
	query := `
		SELECT id, name
		FROM creditors
		WHERE lower(name) = lower($1)
		ORDER BY created_at
		LIMIT 1
	`

	var c inventory.Creditor

	err := s.db.QueryRowContext(ctx, query, name).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, inventory.ErrNotFound
		}

		return nil, fmt.Errorf("finding creditor: %w", err)
	}

	return &c, nil
}

func (s *Store) CreateCreditor(ctx context.Context, name string) (*inventory.Creditor, error) {
	query := `
		INSERT INTO creditors (id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, name
	`

	var c inventory.Creditor

	if err := s.db.QueryRowContext(ctx, query, uuid.NewString(), name).Scan(&c.ID, &c.Name); err != nil {
		return nil, fmt.Errorf("creating creditor: %w", err)
	}

	return &c, nil
}

func (s *Store) AddCreditorInvoice(ctx context.Context, creditorID string, ci inventory.CreditorInvoice) error {
	query := `
		INSERT INTO creditor_invoices
			(id, creditor_id, invoice_number, invoice_date, amount, outstanding, currency, paid, iic, verification_url, created_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::date, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		ci.ID,
		creditorID,
		ci.InvoiceNumber,
		ci.Date,
		ci.Amount,
		ci.Outstanding,
		ci.Currency,
		ci.Paid,
		ci.IIC,
		ci.VerificationURL,
		ci.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("adding creditor invoice: %w", err)
	}

	return nil
}
