package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/pixel/internal/domain"

	"github.com/jackc/pgx/v5"
)

type StoreRepository interface {
	CurrentStore(ctx context.Context) (*domain.Store, error)
}

type storeRepository struct {
	db        DB
	storeCode string
}

// NewStoreRepository returns a repository whose current store is the one
// with the given code.
func NewStoreRepository(db DB, storeCode string) StoreRepository {
	return &storeRepository{
		db:        db,
		storeCode: storeCode,
	}
}

func (r *storeRepository) CurrentStore(ctx context.Context) (*domain.Store, error) {
	query := `
	SELECT s.store_id, s.code, g.root_category_id, s.currency_code
	FROM store s
	JOIN store_group g ON g.group_id = s.group_id
	WHERE s.code = $1 AND s.is_active`

	var store domain.Store
	err := r.db.QueryRow(ctx, query, r.storeCode).Scan(
		&store.ID,
		&store.Code,
		&store.RootCategoryID,
		&store.CurrentCurrencyCode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("store %q: %w", r.storeCode, domain.ErrStoreNotFound)
		}
		return nil, fmt.Errorf("failed to get store %q: %w", r.storeCode, err)
	}

	return &store, nil
}
