package matching

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
)

var ErrEmptyAlias = errors.New("alias name is empty after normalization")

// Repository stores confirmed name aliases: a normalized raw line name
// mapped to the product it was confirmed as.
//
//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	FindAlias(ctx context.Context, normalizedName string) (string, error)
	SaveAlias(ctx context.Context, normalizedName, productID string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ResolveAliases looks up the names of items confirmed in an earlier scan.
// Items that already carry a product reference are skipped.
func (s *Service) ResolveAliases(ctx context.Context, items []invoice.LineItem) (Aliases, error) {
	out := make(Aliases)

	for _, item := range items {
		if item.ProductRef != "" {
			continue
		}

		key := NormalizeName(item.Name)
		if key == "" {
			continue
		}

		if _, ok := out[key]; ok {
			continue
		}

		id, err := s.repo.FindAlias(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("finding alias for %q: %w", item.Name, err)
		}

		if id != "" {
			out[key] = id
		}
	}

	return out, nil
}

// Learn remembers that rawName refers to productID.
func (s *Service) Learn(ctx context.Context, rawName, productID string) error {
	key := NormalizeName(rawName)
	if key == "" {
		return ErrEmptyAlias
	}

	return s.repo.SaveAlias(ctx, key, productID)
}
