package inventory

import (
	"math"
	"strconv"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// MaxQuantity cantidad máxima aceptada en una línea de movimiento.
const MaxQuantity int64 = 1_000_000_000

// AddStock suma dos cantidades de stock; ok es false si el resultado desborda int64.
func AddStock(a, b int64) (sum int64, ok bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// Delta devuelve el efecto con signo de un movimiento sobre el stock (servicio de dominio).
// stock_in suma, stock_out resta.
func Delta(t entity.MovementType, quantity int64) int64 {
	if t == entity.MovementStockOut {
		return -quantity
	}
	return quantity
}

// ReverseDelta efecto de deshacer un movimiento (usado al eliminar una transacción).
func ReverseDelta(t entity.MovementType, quantity int64) int64 {
	return -Delta(t, quantity)
}

// Line una línea de movimiento solicitada (individual o dentro de un lote).
type Line struct {
	ProductID int64
	Type      entity.MovementType
	Quantity  int64
	Notes     string
}

// ValidateLine verifica los campos de una línea sin tocar el almacenamiento.
func ValidateLine(l Line) error {
	if l.ProductID <= 0 {
		return domain.Invalid("productId", "is required")
	}
	if !l.Type.Valid() {
		return domain.Invalid("type", "must be stock_in or stock_out")
	}
	if l.Quantity <= 0 {
		return domain.Invalid("quantity", "must be a positive integer")
	}
	if l.Quantity > MaxQuantity {
		return domain.Invalid("quantity", "must not exceed "+strconv.FormatInt(MaxQuantity, 10))
	}
	return nil
}

// CheckApply verifica que un movimiento individual deje el stock en [0, MaxInt64].
func CheckApply(p *entity.Product, l Line) error {
	if l.Type == entity.MovementStockIn {
		if _, ok := AddStock(p.Stock, l.Quantity); !ok {
			return domain.Invalid("quantity", "would overflow product stock")
		}
		return nil
	}
	if l.Quantity > p.Stock {
		return &domain.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.Stock,
			Requested:   l.Quantity,
		}
	}
	return nil
}
