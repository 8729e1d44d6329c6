// Package memory implementa los puertos de persistencia en memoria.
// Las transacciones se serializan con un único candado y se revierten restaurando una copia del estado,
// lo que da las mismas garantías que SELECT FOR UPDATE + Rollback en PostgreSQL.
package memory

import (
	"context"
	"sync"
	"time"

	appinventory "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ appinventory.TxRunner = (*Store)(nil)

// Store estado compartido de categorías, productos y transacciones.
type Store struct {
	mu         sync.Mutex
	categories map[int64]*entity.Category
	products   map[int64]*entity.Product
	txs        map[int64]*entity.Transaction
	seq        sequences
	now        func() time.Time
}

type sequences struct {
	category, product, tx int64
}

type snapshot struct {
	categories map[int64]*entity.Category
	products   map[int64]*entity.Product
	txs        map[int64]*entity.Transaction
	seq        sequences
}

// New construye un store vacío.
func New() *Store {
	return &Store{
		categories: make(map[int64]*entity.Category),
		products:   make(map[int64]*entity.Product),
		txs:        make(map[int64]*entity.Transaction),
		now:        time.Now,
	}
}

// SetClock reemplaza el reloj usado para CreatedAt/UpdatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Categories repositorio de categorías fuera de transacción.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s: s} }

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Transactions repositorio de transacciones fuera de transacción.
func (s *Store) Transactions() *TransactionRepo { return &TransactionRepo{s: s} }

// Run ejecuta fn con acceso exclusivo al store. Si fn falla o entra en pánico, el estado vuelve al de antes de Run.
func (s *Store) Run(ctx context.Context, fn func(
	txRepo repository.TransactionRepository,
	productRepo repository.ProductRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.restore(saved)
			panic(r)
		}
	}()
	err := fn(&TransactionRepo{s: s, inTx: true}, &ProductRepo{s: s, inTx: true})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	out := snapshot{
		categories: make(map[int64]*entity.Category, len(s.categories)),
		products:   make(map[int64]*entity.Product, len(s.products)),
		txs:        make(map[int64]*entity.Transaction, len(s.txs)),
		seq:        s.seq,
	}
	for id, c := range s.categories {
		cp := *c
		out.categories[id] = &cp
	}
	for id, p := range s.products {
		cp := *p
		out.products[id] = &cp
	}
	for id, tx := range s.txs {
		cp := *tx
		out.txs[id] = &cp
	}
	return out
}

func (s *Store) restore(snap snapshot) {
	s.categories = snap.categories
	s.products = snap.products
	s.txs = snap.txs
	s.seq = snap.seq
}

// guard toma el candado salvo que el repositorio ya opere dentro de Run.
func guard(s *Store, inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
