package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/pixel/internal/domain"

	"github.com/jackc/pgx/v5"
)

type CategoryRepository interface {
	GetCategory(ctx context.Context, id domain.CategoryID, storeID domain.StoreID) (*domain.Category, error)
}

type categoryRepository struct {
	db DB
}

func NewCategoryRepository(db DB) CategoryRepository {
	return &categoryRepository{
		db: db,
	}
}

// GetCategory loads a category with its name and active flag as seen by the
// store, falling back to the admin (store 0) values.
func (r *categoryRepository) GetCategory(ctx context.Context, id domain.CategoryID, storeID domain.StoreID) (*domain.Category, error) {
	query := `
	SELECT c.id,
		COALESCE(sv.name, dv.name, ''),
		COALESCE(sv.is_active, dv.is_active, false),
		c.level,
		c.path
	FROM category c
	LEFT JOIN category_store_value dv ON dv.category_id = c.id AND dv.store_id = 0
	LEFT JOIN category_store_value sv ON sv.category_id = c.id AND sv.store_id = $2
	WHERE c.id = $1`

	var (
		category domain.Category
		path     string
	)
	err := r.db.QueryRow(ctx, query, int64(id), int64(storeID)).Scan(
		&category.ID,
		&category.Name,
		&category.IsActive,
		&category.Level,
		&path,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("category %d in store %d: %w", id, storeID, domain.ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}

	category.PathIDs, err = domain.ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse path of category %d: %w", id, err)
	}

	return &category, nil
}
