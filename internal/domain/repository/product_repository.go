package repository

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// StockUpdateMode cómo UpdateStock aplica el valor.
type StockUpdateMode string

const (
	StockSet      StockUpdateMode = "set"
	StockAdd      StockUpdateMode = "add"
	StockSubtract StockUpdateMode = "subtract"
)

// ProductFilter criterios de listado de productos.
type ProductFilter struct {
	CategoryID *int64
	Search     string
	SortBy     string // ya validado contra la lista permitida
	SortOrder  string // ASC | DESC
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	// Update no modifica Stock (se maneja vía transacciones de stock).
	Update(ctx context.Context, product *entity.Product) error
	UpdateStock(ctx context.Context, id int64, value int64, mode StockUpdateMode) (bool, error)
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, int, error)
	CountByCategory(ctx context.Context, categoryID int64) (int, error)
	Delete(ctx context.Context, id int64) error
}
