package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Valores por defecto de la lista de reposición.
const (
	DefaultReorderPoint = 10
	DefaultDemandDays   = 90
	maxDemandDays       = 365
)

// ReplenishmentUseCase genera la lista de reposición a partir del libro de movimientos.
// La demanda de cada producto son sus salidas en la ventana; no modifica estado.
type ReplenishmentUseCase struct {
	txRepo repository.TransactionRepository
	now    func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(txRepo repository.TransactionRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{txRepo: txRepo, now: time.Now}
}

// GenerateReplenishmentList devuelve los productos con stock en o bajo el punto de reorden,
// con la cantidad sugerida para llegar a 1.5 veces ese punto. Prioriza mayor demanda y luego mayor déficit.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, q dto.ReplenishmentQuery) (*dto.ReplenishmentResponse, error) {
	if q.ReorderPoint < 0 {
		return nil, domain.Invalid("reorderPoint", "must be zero or positive")
	}
	if q.ReorderPoint == 0 {
		q.ReorderPoint = DefaultReorderPoint
	}
	switch {
	case q.Days < 0:
		return nil, domain.Invalid("days", "must be zero or positive")
	case q.Days == 0:
		q.Days = DefaultDemandDays
	case q.Days > maxDemandDays:
		q.Days = maxDemandDays
	}

	since := uc.now().UTC().AddDate(0, 0, -q.Days)
	rows, err := uc.txRepo.Report(ctx, &since, nil)
	if err != nil {
		return nil, err
	}

	idealStock := q.ReorderPoint * 3 / 2
	items := make([]dto.ReplenishmentSuggestionDTO, 0)
	for _, r := range rows {
		if r.CurrentStock > q.ReorderPoint {
			continue
		}
		items = append(items, dto.ReplenishmentSuggestionDTO{
			ProductID:         r.ProductID,
			ProductName:       r.ProductName,
			CurrentStock:      r.CurrentStock,
			ReorderPoint:      q.ReorderPoint,
			IdealStock:        idealStock,
			SuggestedOrderQty: max(idealStock-r.CurrentStock, 0),
			UnitsOut:          r.TotalOut,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.UnitsOut != b.UnitsOut {
			return a.UnitsOut > b.UnitsOut
		}
		if a.CurrentStock != b.CurrentStock {
			return a.CurrentStock < b.CurrentStock
		}
		return a.ProductID < b.ProductID
	})

	// 1 = más urgente
	for i := range items {
		items[i].Priority = i + 1
	}
	return &dto.ReplenishmentResponse{Since: since, Items: items}, nil
}
