package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación en memoria de TransactionRepository.
type TransactionRepo struct {
	s    *Store
	inTx bool
}

// Create inserta una transacción y asigna ID y CreatedAt.
func (r *TransactionRepo) Create(_ context.Context, tx *entity.Transaction) error {
	defer guard(r.s, r.inTx)()
	r.insert(tx)
	return nil
}

// CreateBulk inserta todas las transacciones y devuelve sus IDs en orden.
func (r *TransactionRepo) CreateBulk(_ context.Context, txs []*entity.Transaction) ([]int64, error) {
	defer guard(r.s, r.inTx)()
	now := r.s.now()
	ids := make([]int64, 0, len(txs))
	for _, tx := range txs {
		r.insertAt(tx, now)
		ids = append(ids, tx.ID)
	}
	return ids, nil
}

func (r *TransactionRepo) insert(tx *entity.Transaction) {
	r.insertAt(tx, r.s.now())
}

func (r *TransactionRepo) insertAt(tx *entity.Transaction, at time.Time) {
	r.s.seq.tx++
	tx.ID = r.s.seq.tx
	tx.CreatedAt = at
	cp := *tx
	cp.ProductName = ""
	r.s.txs[cp.ID] = &cp
}

// GetByID obtiene una transacción con el nombre de su producto.
func (r *TransactionRepo) GetByID(_ context.Context, id int64) (*entity.Transaction, error) {
	defer guard(r.s, r.inTx)()
	tx, ok := r.s.txs[id]
	if !ok {
		return nil, nil
	}
	return r.withProduct(tx), nil
}

func (r *TransactionRepo) withProduct(tx *entity.Transaction) *entity.Transaction {
	cp := *tx
	if p, ok := r.s.products[tx.ProductID]; ok {
		cp.ProductName = p.Name
	}
	return &cp
}

// Delete elimina una transacción por ID.
func (r *TransactionRepo) Delete(_ context.Context, id int64) error {
	defer guard(r.s, r.inTx)()
	delete(r.s.txs, id)
	return nil
}

// List filtra, ordena y pagina el libro.
func (r *TransactionRepo) List(_ context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, int, error) {
	defer guard(r.s, r.inTx)()
	var all []*entity.Transaction
	for _, tx := range r.s.txs {
		if filter.ProductID != nil && tx.ProductID != *filter.ProductID {
			continue
		}
		if filter.Type != nil && tx.Type != *filter.Type {
			continue
		}
		if filter.BatchID != "" && tx.BatchID != filter.BatchID {
			continue
		}
		if !inventory.InWindow(tx.CreatedAt, filter.From, filter.To) {
			continue
		}
		all = append(all, r.withProduct(tx))
	}
	desc := filter.SortOrder != "ASC"
	sort.Slice(all, func(i, j int) bool {
		c := compareTransactions(all[i], all[j], filter.SortBy)
		if c == 0 {
			c = compareInt(all[i].ID, all[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	return paginate(all, filter.Limit, filter.Offset), len(all), nil
}

func compareTransactions(a, b *entity.Transaction, field string) int {
	switch field {
	case "quantity":
		return compareInt(a.Quantity, b.Quantity)
	case "type":
		return strings.Compare(string(a.Type), string(b.Type))
	case "product_id":
		return compareInt(a.ProductID, b.ProductID)
	case "id":
		return compareInt(a.ID, b.ID)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *TransactionRepo) byProduct(productID int64) []*entity.Transaction {
	var out []*entity.Transaction
	for _, tx := range r.s.txs {
		if tx.ProductID == productID {
			out = append(out, tx)
		}
	}
	return out
}

// Totals agrega entradas y salidas del producto en la ventana.
func (r *TransactionRepo) Totals(_ context.Context, productID int64, from, to *time.Time) (inventory.Totals, error) {
	defer guard(r.s, r.inTx)()
	return inventory.Summarize(r.byProduct(productID), from, to), nil
}

// NetChangeAfter suma con signo de los movimientos posteriores a at.
func (r *TransactionRepo) NetChangeAfter(_ context.Context, productID int64, at time.Time) (int64, error) {
	defer guard(r.s, r.inTx)()
	var net int64
	for _, tx := range r.byProduct(productID) {
		if tx.CreatedAt.After(at) {
			net += inventory.Delta(tx.Type, tx.Quantity)
		}
	}
	return net, nil
}

// Report totales por producto (todos los productos, ordenados por ID).
func (r *TransactionRepo) Report(_ context.Context, from, to *time.Time) ([]repository.ProductMovementTotals, error) {
	defer guard(r.s, r.inTx)()
	out := make([]repository.ProductMovementTotals, 0, len(r.s.products))
	for _, p := range r.s.products {
		out = append(out, repository.ProductMovementTotals{
			ProductID:    p.ID,
			ProductName:  p.Name,
			CurrentStock: p.Stock,
			Totals:       inventory.Summarize(r.byProduct(p.ID), from, to),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// CountByProduct cuenta transacciones de un producto.
func (r *TransactionRepo) CountByProduct(_ context.Context, productID int64) (int, error) {
	defer guard(r.s, r.inTx)()
	return len(r.byProduct(productID)), nil
}
