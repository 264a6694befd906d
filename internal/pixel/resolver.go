package pixel

import (
	"context"
	"fmt"

	"storefront/pixel/internal/domain"

	log "github.com/sirupsen/logrus"
)

// candidate is the outcome of looking at one of the product's categories.
// Exactly one of category and skipped is set.
type candidate struct {
	category *domain.Category
	skipped  error
}

func (c candidate) accepted() bool {
	return c.skipped == nil
}

// inspectCandidate looks the category up in the store and checks that it is
// active and belongs to the store's tree.
func (h *Helper) inspectCandidate(ctx context.Context, id domain.CategoryID, store *domain.Store) candidate {
	category, err := h.categories.GetCategory(ctx, id, store.ID)
	if err != nil {
		return candidate{skipped: err}
	}

	if !category.IsActive {
		return candidate{skipped: fmt.Errorf("category %d is inactive", id)}
	}

	if !category.HasAncestor(store.RootCategoryID) {
		return candidate{skipped: fmt.Errorf("category %d is outside root %d", id, store.RootCategoryID)}
	}

	return candidate{category: category}
}

// ResolvePrimaryCategory picks the deepest active category of the product
// that lives under the current store's root. The first one wins on equal
// depth. Categories that cannot be loaded are skipped. It returns nil when no
// category qualifies.
func (h *Helper) ResolvePrimaryCategory(ctx context.Context, product *domain.Product) (*domain.Category, error) {
	ids, err := h.products.CategoryIDs(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("failed to get category ids of product %d: %w", product.ID, err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	store, err := h.stores.CurrentStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current store: %w", err)
	}

	var primary *domain.Category
	level := -1

	for _, id := range ids {
		c := h.inspectCandidate(ctx, id, store)
		if !c.accepted() {
			log.Debugf("Skipping category %d of product %d: %v", id, product.ID, c.skipped)
			continue
		}

		if c.category.Level > level {
			level = c.category.Level
			primary = c.category
		}
	}

	return primary, nil
}
