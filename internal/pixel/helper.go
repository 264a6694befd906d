package pixel

import (
	"context"
	"fmt"
	"math"

	"storefront/pixel/internal/config"
	"storefront/pixel/internal/domain"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// minNamedLevel is the first category level shown to shoppers. Levels 0 and 1
// are the tree root and the store root.
const minNamedLevel = 2

type CategoryRepository interface {
	GetCategory(ctx context.Context, id domain.CategoryID, storeID domain.StoreID) (*domain.Category, error)
}

type StoreManager interface {
	CurrentStore(ctx context.Context) (*domain.Store, error)
}

type ProductCatalog interface {
	CategoryIDs(ctx context.Context, product *domain.Product) ([]domain.CategoryID, error)
	FinalPrice(ctx context.Context, product *domain.Product) (decimal.Decimal, error)
}

// Helper derives the product values an analytics pixel reports: category
// lineage, store currency and final price. It holds no state besides its
// collaborators and is safe for concurrent use if they are.
type Helper struct {
	config     config.PixelConfig
	stores     StoreManager
	categories CategoryRepository
	products   ProductCatalog
}

func NewHelper(
	cfg config.PixelConfig,
	stores StoreManager,
	categories CategoryRepository,
	products ProductCatalog,
) *Helper {
	return &Helper{
		config:     cfg,
		stores:     stores,
		categories: categories,
		products:   products,
	}
}

func (h *Helper) Enabled() bool {
	return h.config.Enabled
}

func (h *Helper) PixelID() string {
	return h.config.PixelID
}

// CategoryNames returns the names along the product's primary category path,
// root first, leaving out the structural levels. A failed lookup of any path
// entry is returned as an error.
func (h *Helper) CategoryNames(ctx context.Context, product *domain.Product) ([]string, error) {
	names := []string{}

	primary, err := h.ResolvePrimaryCategory(ctx, product)
	if err != nil {
		return nil, err
	}
	if primary == nil {
		return names, nil
	}

	store, err := h.stores.CurrentStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current store: %w", err)
	}

	for _, id := range primary.PathIDs {
		category, err := h.categories.GetCategory(ctx, id, store.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get category %d on path of %d: %w", id, primary.ID, err)
		}

		if category.Level < minNamedLevel {
			continue
		}

		names = append(names, category.Name)
	}

	return names, nil
}

// CurrentCurrencyCode returns the currency code of the current store
func (h *Helper) CurrentCurrencyCode(ctx context.Context) (string, error) {
	store, err := h.stores.CurrentStore(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current store: %w", err)
	}

	return store.CurrentCurrencyCode, nil
}

// FormatPrice renders price with two fixed decimals, a dot separator and no
// grouping, e.g. 1234.5 as "1234.50". NaN and infinities have no decimal
// form and render as "nan", "inf" and "-inf".
func (h *Helper) FormatPrice(price float64) string {
	switch {
	case math.IsNaN(price):
		return "nan"
	case math.IsInf(price, 1):
		return "inf"
	case math.IsInf(price, -1):
		return "-inf"
	}
	return formatAmount(decimal.NewFromFloat(price))
}

// Price returns the formatted final price of the product
func (h *Helper) Price(ctx context.Context, product *domain.Product) (string, error) {
	amount, err := h.products.FinalPrice(ctx, product)
	if err != nil {
		return "", fmt.Errorf("failed to get final price of product %d: %w", product.ID, err)
	}

	return formatAmount(amount), nil
}

// StringFixed rounds half away from zero
func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// View derives all values for the product in one go
func (h *Helper) View(ctx context.Context, product *domain.Product) (*domain.ProductView, error) {
	names, err := h.CategoryNames(ctx, product)
	if err != nil {
		return nil, err
	}

	currency, err := h.CurrentCurrencyCode(ctx)
	if err != nil {
		return nil, err
	}

	price, err := h.Price(ctx, product)
	if err != nil {
		return nil, err
	}

	log.Debugf("Derived view for product %d: %v %s %s", product.ID, names, price, currency)

	return &domain.ProductView{
		ProductID:     product.ID,
		SKU:           product.SKU,
		CategoryNames: names,
		Currency:      currency,
		Price:         price,
	}, nil
}
