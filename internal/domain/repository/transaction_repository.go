package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// TransactionFilter criterios de listado del libro de movimientos.
type TransactionFilter struct {
	ProductID *int64
	Type      *entity.MovementType
	From      *time.Time
	To        *time.Time
	BatchID   string
	SortBy    string // ya validado contra la lista permitida
	SortOrder string // ASC | DESC
	Limit     int
	Offset    int
}

// ProductMovementTotals totales por producto para el reporte de movimientos.
type ProductMovementTotals struct {
	ProductID    int64
	ProductName  string
	CurrentStock int64
	inventory.Totals
}

// TransactionRepository define el puerto de persistencia para transacciones de stock.
// GetByID devuelve (nil, nil) si no existe.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	// CreateBulk inserta todas las filas en una sola operación y devuelve los IDs en orden.
	CreateBulk(ctx context.Context, txs []*entity.Transaction) ([]int64, error)
	GetByID(ctx context.Context, id int64) (*entity.Transaction, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, int, error)
	Totals(ctx context.Context, productID int64, from, to *time.Time) (inventory.Totals, error)
	// NetChangeAfter suma con signo de los movimientos del producto creados después de at.
	NetChangeAfter(ctx context.Context, productID int64, at time.Time) (int64, error)
	Report(ctx context.Context, from, to *time.Time) ([]ProductMovementTotals, error)
	CountByProduct(ctx context.Context, productID int64) (int, error)
}
