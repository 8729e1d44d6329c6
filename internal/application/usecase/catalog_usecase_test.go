package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	appinventory "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
)

func newCatalog() (*memory.Store, *usecase.CategoryUseCase, *usecase.ProductUseCase) {
	s := memory.New()
	return s,
		usecase.NewCategoryUseCase(s.Categories(), s.Products()),
		usecase.NewProductUseCase(s, s.Products(), s.Categories())
}

func TestCategoryUseCase_CrearDuplicadoYBorrar(t *testing.T) {
	_, cats, products := newCatalog()
	ctx := context.Background()

	c, err := cats.Create(ctx, dto.CreateCategoryRequest{Name: "  Bebidas "})
	require.NoError(t, err)
	assert.Equal(t, "Bebidas", c.Name)

	_, err = cats.Create(ctx, dto.CreateCategoryRequest{Name: "BEBIDAS"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = products.Create(ctx, dto.CreateProductRequest{Name: "Agua", CategoryID: c.ID, Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	err = cats.Delete(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	empty, err := cats.Create(ctx, dto.CreateCategoryRequest{Name: "Vacía"})
	require.NoError(t, err)
	require.NoError(t, cats.Delete(ctx, empty.ID))
	_, err = cats.GetByID(ctx, empty.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_Validaciones(t *testing.T) {
	_, cats, products := newCatalog()
	ctx := context.Background()
	c, err := cats.Create(ctx, dto.CreateCategoryRequest{Name: "General"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      dto.CreateProductRequest
		wantErr error
	}{
		{"sin nombre", dto.CreateProductRequest{CategoryID: c.ID}, domain.ErrInvalidInput},
		{"stock negativo", dto.CreateProductRequest{Name: "X", CategoryID: c.ID, Stock: -1}, domain.ErrInvalidInput},
		{"precio negativo", dto.CreateProductRequest{Name: "X", CategoryID: c.ID, Price: decimal.NewFromInt(-2)}, domain.ErrInvalidInput},
		{"categoría inexistente", dto.CreateProductRequest{Name: "X", CategoryID: 99}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := products.Create(ctx, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProductUseCase_UpdateNoTocaStock(t *testing.T) {
	_, cats, products := newCatalog()
	ctx := context.Background()
	c, _ := cats.Create(ctx, dto.CreateCategoryRequest{Name: "General"})
	p, err := products.Create(ctx, dto.CreateProductRequest{Name: "Café", CategoryID: c.ID, Stock: 7, Price: decimal.RequireFromString("3.50")})
	require.NoError(t, err)

	price := decimal.RequireFromString("4.25")
	name := "Café molido"
	got, err := products.Update(ctx, p.ID, dto.UpdateProductRequest{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Café molido", got.Name)
	assert.True(t, price.Equal(got.Price))
	assert.Equal(t, int64(7), got.Stock)

	_, err = products.Update(ctx, 404, dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_ListOrdenYFiltros(t *testing.T) {
	_, cats, products := newCatalog()
	ctx := context.Background()
	a, _ := cats.Create(ctx, dto.CreateCategoryRequest{Name: "A"})
	b, _ := cats.Create(ctx, dto.CreateCategoryRequest{Name: "B"})
	for i, n := range []string{"Manzana", "Pera", "Mango"} {
		_, err := products.Create(ctx, dto.CreateProductRequest{Name: n, CategoryID: a.ID, Stock: int64(i)})
		require.NoError(t, err)
	}
	_, err := products.Create(ctx, dto.CreateProductRequest{Name: "Tornillo", CategoryID: b.ID})
	require.NoError(t, err)

	res, err := products.List(ctx, dto.ProductListQuery{CategoryID: &a.ID, PageRequest: dto.PageRequest{SortBy: "name", SortOrder: "ASC"}})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "Mango", res.Items[0].Name)
	assert.Equal(t, 3, res.Page.Total)

	res, err = products.List(ctx, dto.ProductListQuery{Search: "man", PageRequest: dto.PageRequest{SortBy: "stock"}})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Mango", res.Items[0].Name)
}

func TestProductUseCase_DeleteConHistorialEsConflicto(t *testing.T) {
	s, cats, products := newCatalog()
	ctx := context.Background()
	c, _ := cats.Create(ctx, dto.CreateCategoryRequest{Name: "General"})
	p, err := products.Create(ctx, dto.CreateProductRequest{Name: "Café", CategoryID: c.ID})
	require.NoError(t, err)
	require.NoError(t, s.Transactions().Create(ctx, &entity.Transaction{Type: entity.MovementStockIn, ProductID: p.ID, Quantity: 1}))

	assert.ErrorIs(t, products.Delete(ctx, p.ID), domain.ErrConflict)

	q, err := products.Create(ctx, dto.CreateProductRequest{Name: "Té", CategoryID: c.ID})
	require.NoError(t, err)
	require.NoError(t, products.Delete(ctx, q.ID))
	_, err = products.GetByID(ctx, q.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_DeleteConcurrenteNoDejaHuerfanas(t *testing.T) {
	for round := 0; round < 50; round++ {
		s, cats, products := newCatalog()
		ctx := context.Background()
		txs := appinventory.NewTransactionUseCase(s, s.Products(), s.Transactions(), nil, nil, appinventory.Options{})
		c, _ := cats.Create(ctx, dto.CreateCategoryRequest{Name: "General"})
		p, err := products.Create(ctx, dto.CreateProductRequest{Name: "Café", CategoryID: c.ID})
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = txs.ApplyTransaction(ctx, inventory.Line{ProductID: p.ID, Type: entity.MovementStockIn, Quantity: 1})
		}()
		go func() {
			defer wg.Done()
			_ = products.Delete(ctx, p.ID)
		}()
		wg.Wait()

		n, err := s.Transactions().CountByProduct(ctx, p.ID)
		require.NoError(t, err)
		_, getErr := products.GetByID(ctx, p.ID)
		if getErr != nil {
			assert.ErrorIs(t, getErr, domain.ErrNotFound)
			assert.Zero(t, n, "producto borrado con transacciones")
		} else {
			assert.Equal(t, 1, n)
		}
	}
}
