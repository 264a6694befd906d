package repository

import (
	"context"
	"errors"
	"testing"

	"storefront/pixel/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestGetCategory(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewCategoryRepository(mock)

	mock.ExpectQuery("SELECT c.id").
		WithArgs(int64(12), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "is_active", "level", "path"}).
			AddRow(domain.CategoryID(12), "Jackets", true, 4, "1/2/10/11/12"))

	category, err := repo.GetCategory(ctx, 12, 1)
	require.NoError(t, err)
	assert.Equal(t, &domain.Category{
		ID:       12,
		Name:     "Jackets",
		IsActive: true,
		Level:    4,
		PathIDs:  []domain.CategoryID{1, 2, 10, 11, 12},
	}, category)

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT c.id").
			WithArgs(int64(404), int64(1)).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetCategory(ctx, 404, 1)
		assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	})

	t.Run("Fail on broken path", func(t *testing.T) {
		mock.ExpectQuery("SELECT c.id").
			WithArgs(int64(13), int64(1)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "is_active", "level", "path"}).
				AddRow(domain.CategoryID(13), "Rain", true, 5, "1/2/x"))

		_, err := repo.GetCategory(ctx, 13, 1)
		assert.ErrorContains(t, err, "failed to parse path")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentStore(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewStoreRepository(mock, "de")

	mock.ExpectQuery("FROM store s").
		WithArgs("de").
		WillReturnRows(pgxmock.NewRows([]string{"store_id", "code", "root_category_id", "currency_code"}).
			AddRow(domain.StoreID(3), "de", domain.CategoryID(2), "EUR"))

	store, err := repo.CurrentStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.Store{ID: 3, Code: "de", RootCategoryID: 2, CurrentCurrencyCode: "EUR"}, store)

	mock.ExpectQuery("FROM store s").
		WithArgs("de").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.CurrentStore(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewProductRepository(mock, "de")
	product := &domain.Product{ID: 7}

	t.Run("GetProduct", func(t *testing.T) {
		mock.ExpectQuery("FROM product WHERE").
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "sku", "name"}).
				AddRow(domain.ProductID(7), "MJ-07", "Rain Jacket"))

		found, err := repo.GetProduct(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, &domain.Product{ID: 7, SKU: "MJ-07", Name: "Rain Jacket"}, found)

		mock.ExpectQuery("FROM product WHERE").
			WithArgs(int64(8)).
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetProduct(ctx, 8)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("CategoryIDs", func(t *testing.T) {
		mock.ExpectQuery("FROM category_product").
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"category_id"}).
				AddRow(domain.CategoryID(12)).
				AddRow(domain.CategoryID(22)))

		ids, err := repo.CategoryIDs(ctx, product)
		require.NoError(t, err)
		assert.Equal(t, []domain.CategoryID{12, 22}, ids)
	})

	t.Run("CategoryIDs query failure", func(t *testing.T) {
		mock.ExpectQuery("FROM category_product").
			WithArgs(int64(7)).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.CategoryIDs(ctx, product)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("FinalPrice", func(t *testing.T) {
		mock.ExpectQuery("FROM product_price_index").
			WithArgs(int64(7), "de").
			WillReturnRows(pgxmock.NewRows([]string{"final_price"}).AddRow("59.9000"))

		price, err := repo.FinalPrice(ctx, product)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("59.9").Equal(price))

		mock.ExpectQuery("FROM product_price_index").
			WithArgs(int64(7), "de").
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.FinalPrice(ctx, product)
		assert.ErrorIs(t, err, domain.ErrPriceNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
