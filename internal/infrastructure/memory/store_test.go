package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
)

func seedProduct(t *testing.T, s *memory.Store, stock int64) *entity.Product {
	t.Helper()
	ctx := context.Background()
	cat := &entity.Category{Name: "General"}
	if existing, _ := s.Categories().GetByName(ctx, "General"); existing != nil {
		cat = existing
	} else {
		require.NoError(t, s.Categories().Create(ctx, cat))
	}
	p := &entity.Product{Name: "Widget", CategoryID: cat.ID, Stock: stock, Price: decimal.NewFromInt(10)}
	require.NoError(t, s.Products().Create(ctx, p))
	return p
}

func TestRun_RollbackRestauraEstado(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	p := seedProduct(t, s, 10)

	boom := errors.New("fallo simulado")
	err := s.Run(ctx, func(txRepo repository.TransactionRepository, productRepo repository.ProductRepository) error {
		require.NoError(t, txRepo.Create(ctx, &entity.Transaction{Type: entity.MovementStockOut, ProductID: p.ID, Quantity: 3}))
		ok, err := productRepo.UpdateStock(ctx, p.ID, 3, repository.StockSubtract)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Stock)

	n, err := s.Transactions().CountByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// La secuencia también se revierte.
	tx := &entity.Transaction{Type: entity.MovementStockIn, ProductID: p.ID, Quantity: 1}
	require.NoError(t, s.Transactions().Create(ctx, tx))
	assert.Equal(t, int64(1), tx.ID)
}

func TestRun_PanicoRestauraEstado(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	p := seedProduct(t, s, 10)

	assert.PanicsWithValue(t, "fallo a mitad de la escritura", func() {
		_ = s.Run(ctx, func(txRepo repository.TransactionRepository, productRepo repository.ProductRepository) error {
			require.NoError(t, txRepo.Create(ctx, &entity.Transaction{Type: entity.MovementStockOut, ProductID: p.ID, Quantity: 4}))
			_, err := productRepo.UpdateStock(ctx, p.ID, 4, repository.StockSubtract)
			require.NoError(t, err)
			panic("fallo a mitad de la escritura")
		})
	})

	got, err := s.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Stock)
	n, err := s.Transactions().CountByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// El candado quedó libre.
	require.NoError(t, s.Run(ctx, func(repository.TransactionRepository, repository.ProductRepository) error { return nil }))
}

func TestRun_ContextoCancelado(t *testing.T) {
	s := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.Run(ctx, func(repository.TransactionRepository, repository.ProductRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestUpdateStock_Modos(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	p := seedProduct(t, s, 5)
	repo := s.Products()

	ok, err := repo.UpdateStock(ctx, p.ID, 3, repository.StockAdd)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = repo.UpdateStock(ctx, p.ID, 2, repository.StockSubtract)
	assert.True(t, ok)
	got, _ := repo.GetByID(ctx, p.ID)
	assert.Equal(t, int64(6), got.Stock)

	ok, _ = repo.UpdateStock(ctx, p.ID, 42, repository.StockSet)
	assert.True(t, ok)
	got, _ = repo.GetByID(ctx, p.ID)
	assert.Equal(t, int64(42), got.Stock)

	ok, err = repo.UpdateStock(ctx, 999, 1, repository.StockAdd)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.UpdateStock(ctx, p.ID, 1, "multiply")
	assert.Error(t, err)
}

func TestTransactionRepo_ListFiltraOrdenaPagina(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	})
	p := seedProduct(t, s, 0)
	repo := s.Transactions()
	for i := 1; i <= 5; i++ {
		typ := entity.MovementStockIn
		if i%2 == 0 {
			typ = entity.MovementStockOut
		}
		require.NoError(t, repo.Create(ctx, &entity.Transaction{Type: typ, ProductID: p.ID, Quantity: int64(i)}))
	}

	list, total, err := repo.List(ctx, repository.TransactionFilter{SortBy: "created_at", SortOrder: "DESC", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, list, 2)
	assert.Equal(t, int64(5), list[0].ID)
	assert.Equal(t, "Widget", list[0].ProductName)

	out := entity.MovementStockOut
	list, total, err = repo.List(ctx, repository.TransactionFilter{Type: &out, SortBy: "quantity", SortOrder: "ASC", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, int64(2), list[0].Quantity)
	assert.Equal(t, int64(4), list[1].Quantity)

	list, _, err = repo.List(ctx, repository.TransactionFilter{Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, list)

	// Offset negativo se trata como 0.
	list, _, err = repo.List(ctx, repository.TransactionFilter{Limit: 2, Offset: -5})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCategoryRepo_NombreUnico(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	require.NoError(t, s.Categories().Create(ctx, &entity.Category{Name: "Bebidas"}))
	err := s.Categories().Create(ctx, &entity.Category{Name: "bebidas"})
	assert.Error(t, err)
}
