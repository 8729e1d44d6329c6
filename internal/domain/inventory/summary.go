package inventory

import (
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
)

// Totals agregados de entradas y salidas en una ventana.
type Totals struct {
	TotalIn          int64
	TotalOut         int64
	TransactionCount int64
}

// NetChange entradas menos salidas.
func (t Totals) NetChange() int64 {
	return t.TotalIn - t.TotalOut
}

// Summarize agrega transacciones dentro de [from, to]; límites nil no restringen.
func Summarize(txs []*entity.Transaction, from, to *time.Time) Totals {
	var out Totals
	for _, tx := range txs {
		if !InWindow(tx.CreatedAt, from, to) {
			continue
		}
		out.TransactionCount++
		if tx.Type == entity.MovementStockOut {
			out.TotalOut += tx.Quantity
		} else {
			out.TotalIn += tx.Quantity
		}
	}
	return out
}

// InWindow indica si t cae dentro de [from, to].
func InWindow(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// StockAt reconstruye el stock en el instante at a partir del stock actual:
// se deshace el efecto de cada transacción creada después de at.
func StockAt(current int64, txs []*entity.Transaction, at time.Time) int64 {
	stock := current
	for _, tx := range txs {
		if tx.CreatedAt.After(at) {
			stock += ReverseDelta(tx.Type, tx.Quantity)
		}
	}
	return stock
}
