package inventory_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

func TestBulkPlan_SalidaCompensadaPorEntrada(t *testing.T) {
	plan := inventory.NewBulkPlan()
	plan.Seed(&entity.Product{ID: 1, Name: "Widget", Stock: 10})
	require.NoError(t, plan.Add(inventory.Line{ProductID: 1, Type: entity.MovementStockOut, Quantity: 15}))
	require.NoError(t, plan.Add(inventory.Line{ProductID: 1, Type: entity.MovementStockIn, Quantity: 20}))

	require.NoError(t, plan.Check())
	entries := plan.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].NetChange)
	assert.Equal(t, int64(15), entries[0].FinalStock())
	assert.Equal(t, int64(20), entries[0].TotalIn)
	assert.Equal(t, int64(15), entries[0].TotalOut)
}

func TestBulkPlan_EfectoAgregadoInviable(t *testing.T) {
	plan := inventory.NewBulkPlan()
	plan.Seed(&entity.Product{ID: 1, Name: "Widget", Stock: 10})
	// Ninguna línea por separado supera el stock, pero juntas sí.
	require.NoError(t, plan.Add(inventory.Line{ProductID: 1, Type: entity.MovementStockOut, Quantity: 6}))
	require.NoError(t, plan.Add(inventory.Line{ProductID: 1, Type: entity.MovementStockOut, Quantity: 6}))

	err := plan.Check()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, "Widget", ise.ProductName)
	assert.Equal(t, int64(10), ise.Available)
	assert.Equal(t, int64(12), ise.Requested)
}

func TestBulkPlan_SeedSoloUnaVez(t *testing.T) {
	plan := inventory.NewBulkPlan()
	plan.Seed(&entity.Product{ID: 2, Stock: 3})
	plan.Seed(&entity.Product{ID: 2, Stock: 100})
	plan.Seed(&entity.Product{ID: 1, Stock: 0})

	entries := plan.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].ProductID, "orden de primer contacto")
	assert.Equal(t, int64(3), entries[0].CurrentStock)
	assert.True(t, plan.Seeded(1))
	assert.False(t, plan.Seeded(3))
}

func TestValidateLine(t *testing.T) {
	tests := []struct {
		name  string
		line  inventory.Line
		field string
	}{
		{"sin producto", inventory.Line{Type: entity.MovementStockIn, Quantity: 1}, "productId"},
		{"tipo inválido", inventory.Line{ProductID: 1, Type: "adjust", Quantity: 1}, "type"},
		{"cantidad cero", inventory.Line{ProductID: 1, Type: entity.MovementStockIn}, "quantity"},
		{"cantidad negativa", inventory.Line{ProductID: 1, Type: entity.MovementStockOut, Quantity: -2}, "quantity"},
		{"cantidad sobre el máximo", inventory.Line{ProductID: 1, Type: entity.MovementStockIn, Quantity: inventory.MaxQuantity + 1}, "quantity"},
		{"cantidad máxima", inventory.Line{ProductID: 1, Type: entity.MovementStockIn, Quantity: inventory.MaxQuantity}, ""},
		{"válida", inventory.Line{ProductID: 1, Type: entity.MovementStockOut, Quantity: 2}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := inventory.ValidateLine(tt.line)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestCheckApply(t *testing.T) {
	p := &entity.Product{ID: 1, Name: "Widget", Stock: 5}

	assert.NoError(t, inventory.CheckApply(p, inventory.Line{ProductID: 1, Type: entity.MovementStockOut, Quantity: 5}))
	assert.NoError(t, inventory.CheckApply(p, inventory.Line{ProductID: 1, Type: entity.MovementStockIn, Quantity: 500}))

	err := inventory.CheckApply(p, inventory.Line{ProductID: 1, Type: entity.MovementStockOut, Quantity: 6})
	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	assert.Equal(t, int64(5), ise.Available)
	assert.Equal(t, int64(6), ise.Requested)
}

func TestCheckApply_EntradaQueDesbordaElStock(t *testing.T) {
	p := &entity.Product{ID: 1, Name: "Widget", Stock: math.MaxInt64 - 3}

	assert.NoError(t, inventory.CheckApply(p, inventory.Line{ProductID: 1, Type: entity.MovementStockIn, Quantity: 3}))
	err := inventory.CheckApply(p, inventory.Line{ProductID: 1, Type: entity.MovementStockIn, Quantity: 4})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, errors.Is(err, domain.ErrInsufficientStock))
}

func TestAddStock(t *testing.T) {
	sum, ok := inventory.AddStock(10, -4)
	assert.True(t, ok)
	assert.Equal(t, int64(6), sum)

	_, ok = inventory.AddStock(math.MaxInt64, 1)
	assert.False(t, ok)
	_, ok = inventory.AddStock(math.MinInt64, -1)
	assert.False(t, ok)
}

func TestBulkPlan_AcumuladoQueDesbordaSeRechaza(t *testing.T) {
	plan := inventory.NewBulkPlan()
	plan.Seed(&entity.Product{ID: 1, Name: "Widget", Stock: 0})
	big := inventory.Line{ProductID: 1, Type: entity.MovementStockIn, Quantity: math.MaxInt64}

	require.NoError(t, plan.Add(big))
	err := plan.Add(big)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// La línea rechazada no altera el acumulado.
	require.NoError(t, plan.Add(inventory.Line{ProductID: 1, Type: entity.MovementStockOut, Quantity: 5}))
	entries := plan.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(math.MaxInt64-5), entries[0].NetChange)
	assert.Equal(t, int64(5), entries[0].TotalOut)
}
