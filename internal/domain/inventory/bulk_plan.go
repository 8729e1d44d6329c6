package inventory

import (
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// PlanEntry acumulado de un producto dentro de un lote.
type PlanEntry struct {
	ProductID    int64
	ProductName  string
	CurrentStock int64
	NetChange    int64
	TotalIn      int64
	TotalOut     int64
}

// FinalStock stock resultante si el lote se aplica.
func (e PlanEntry) FinalStock() int64 {
	return e.CurrentStock + e.NetChange
}

// BulkPlan agrega el cambio neto por producto de un lote.
// El stock actual de cada producto se toma una sola vez, la primera vez que el lote lo toca.
type BulkPlan struct {
	order   []int64
	entries map[int64]*PlanEntry
}

// NewBulkPlan construye un plan vacío.
func NewBulkPlan() *BulkPlan {
	return &BulkPlan{entries: make(map[int64]*PlanEntry)}
}

// Seeded indica si el producto ya tiene stock inicial en el plan.
func (p *BulkPlan) Seeded(productID int64) bool {
	_, ok := p.entries[productID]
	return ok
}

// Seed registra el stock actual del producto. Llamadas repetidas se ignoran.
func (p *BulkPlan) Seed(product *entity.Product) {
	if p.Seeded(product.ID) {
		return
	}
	p.order = append(p.order, product.ID)
	p.entries[product.ID] = &PlanEntry{
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentStock: product.Stock,
	}
}

// Add acumula una línea ya validada. El producto debe estar sembrado.
// Falla si el acumulado o el stock final resultante desbordan int64; el plan no cambia en ese caso.
func (p *BulkPlan) Add(l Line) error {
	e, ok := p.entries[l.ProductID]
	if !ok {
		return nil
	}
	net, ok := AddStock(e.NetChange, Delta(l.Type, l.Quantity))
	if ok {
		_, ok = AddStock(e.CurrentStock, net)
	}
	if !ok {
		return domain.Invalid("quantity", "batch total would overflow product stock")
	}
	total := &e.TotalIn
	if l.Type == entity.MovementStockOut {
		total = &e.TotalOut
	}
	sum, ok := AddStock(*total, l.Quantity)
	if !ok {
		return domain.Invalid("quantity", "batch total would overflow product stock")
	}
	e.NetChange = net
	*total = sum
	return nil
}

// Check evalúa el efecto neto de cada producto; falla con el primero que quedaría en negativo.
func (p *BulkPlan) Check() error {
	for _, id := range p.order {
		e := p.entries[id]
		if e.FinalStock() < 0 {
			return &domain.InsufficientStockError{
				ProductID:   e.ProductID,
				ProductName: e.ProductName,
				Available:   e.CurrentStock,
				Requested:   e.TotalOut,
			}
		}
	}
	return nil
}

// Entries devuelve los acumulados en el orden en que el lote tocó cada producto.
func (p *BulkPlan) Entries() []PlanEntry {
	out := make([]PlanEntry, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.entries[id])
	}
	return out
}
