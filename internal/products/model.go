package products

import "github.com/shopspring/decimal"

// Product is a product record as served by the product API.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
}

// Input is a validated create or update payload.
type Input struct {
	Name        string
	Price       decimal.Decimal
	Description string
}
