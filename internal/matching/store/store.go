package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindAlias returns the product confirmed for a normalized name, or "".
func (s *Store) FindAlias(ctx context.Context, normalizedName string) (string, error) {
	query := `
		SELECT a.product_id
		FROM product_aliases a
		JOIN products p ON p.id = a.product_id
		WHERE a.normalized_name = $1
		ORDER BY a.created_at DESC
		LIMIT 1
	`

	var productID string

	err := s.db.QueryRowContext(ctx, query, normalizedName).Scan(&productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("finding alias: %w", err)
	}

	return productID, nil
}

// SaveAlias records or moves an alias to productID.
func (s *Store) SaveAlias(ctx context.Context, normalizedName, productID string) error {
	query := `
		INSERT INTO product_aliases (normalized_name, product_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (normalized_name)
		DO UPDATE SET product_id = EXCLUDED.product_id, created_at = EXCLUDED.created_at
	`

	_, err := s.db.ExecContext(ctx, query, normalizedName, productID)
	if err != nil {
		return fmt.Errorf("saving alias: %w", err)
	}

	return nil
}
