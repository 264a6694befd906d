package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/pixel/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type ProductRepository interface {
	GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error)
	CategoryIDs(ctx context.Context, product *domain.Product) ([]domain.CategoryID, error)
	FinalPrice(ctx context.Context, product *domain.Product) (decimal.Decimal, error)
}

type productRepository struct {
	db        DB
	storeCode string
}

func NewProductRepository(db DB, storeCode string) ProductRepository {
	return &productRepository{
		db:        db,
		storeCode: storeCode,
	}
}

func (r *productRepository) GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	query := `SELECT id, sku, name FROM product WHERE id = $1`

	var product domain.Product
	err := r.db.QueryRow(ctx, query, int64(id)).Scan(&product.ID, &product.SKU, &product.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}

	return &product, nil
}

func (r *productRepository) CategoryIDs(ctx context.Context, product *domain.Product) ([]domain.CategoryID, error) {
	query := `
	SELECT category_id
	FROM category_product
	WHERE product_id = $1
	ORDER BY position, category_id`

	rows, err := r.db.Query(ctx, query, int64(product.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to get categories of product %d: %w", product.ID, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[domain.CategoryID])
	if err != nil {
		return nil, fmt.Errorf("failed to read categories of product %d: %w", product.ID, err)
	}

	return ids, nil
}

// FinalPrice reads the indexed final price, after catalog rules and special
// prices, for the configured store.
func (r *productRepository) FinalPrice(ctx context.Context, product *domain.Product) (decimal.Decimal, error) {
	query := `
	SELECT p.final_price::text
	FROM product_price_index p
	JOIN store s ON s.store_id = p.store_id
	WHERE p.product_id = $1 AND s.code = $2`

	var raw string
	err := r.db.QueryRow(ctx, query, int64(product.ID), r.storeCode).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("product %d in store %q: %w", product.ID, r.storeCode, domain.ErrPriceNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to get final price of product %d: %w", product.ID, err)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid final price %q of product %d: %w", raw, product.ID, err)
	}

	return price, nil
}
