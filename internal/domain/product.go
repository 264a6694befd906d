package domain

type ProductID int64

type Product struct {
	ID   ProductID `json:"id"`
	SKU  string    `json:"sku"`
	Name string    `json:"name"`
}

// ProductView holds the presentation values derived for a product
type ProductView struct {
	ProductID     ProductID `json:"product_id"`
	SKU           string    `json:"sku"`
	CategoryNames []string  `json:"category_names"`
	Currency      string    `json:"currency"`
	Price         string    `json:"price"`
	Error         string    `json:"error,omitempty"` // Set when derivation failed
}
