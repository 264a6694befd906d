package domain

import "errors"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrStoreNotFound    = errors.New("store not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrPriceNotFound    = errors.New("final price not found")
)
