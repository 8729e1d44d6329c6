package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario.
// Stock solo se modifica a través de transacciones de stock (stock_in / stock_out).
type Product struct {
	ID          int64
	Name        string
	Description string
	CategoryID  int64
	Stock       int64
	Price       decimal.Decimal
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
