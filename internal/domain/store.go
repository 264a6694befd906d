package domain

type StoreID int64

type Store struct {
	ID                  StoreID    `json:"id"`
	Code                string     `json:"code"`
	RootCategoryID      CategoryID `json:"root_category_id"`
	CurrentCurrencyCode string     `json:"current_currency_code"` // ISO 4217, e.g. "EUR"
}
