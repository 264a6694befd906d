package task

import "storefront/pixel/internal/domain"

const ProductViewTaskType = "ProductViewTask"

type ProductViewTask struct {
	ProductID domain.ProductID `json:"product_id"`
	Attempt   int              `json:"attempt"` // Incremented when the task is re-queued
}

func (t *ProductViewTask) TaskType() string {
	return ProductViewTaskType
}

func (t *ProductViewTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
