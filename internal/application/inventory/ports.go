package inventory

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

//go:generate mockgen -source=ports.go -destination=ports_mock.go -package=inventory

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; nada de lo escrito dentro de fn persiste.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		txRepo repository.TransactionRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// SummaryCache caché de resúmenes de stock por producto y ventana de fechas.
// GetSummary devuelve (nil, nil) cuando no hay entrada.
// Invalidate incrementa la generación del producto; SetSummary solo guarda si la generación
// sigue siendo la leída antes de calcular el resumen.
type SummaryCache interface {
	Generation(ctx context.Context, productID int64) (int64, error)
	GetSummary(ctx context.Context, productID int64, window string) (*dto.StockSummaryResponse, error)
	SetSummary(ctx context.Context, productID int64, window string, generation int64, summary *dto.StockSummaryResponse) error
	Invalidate(ctx context.Context, productIDs ...int64) error
}

// EventPublisher difunde eventos de stock ya confirmados. No debe bloquear.
type EventPublisher interface {
	Publish(event dto.StockEvent)
}

type noopCache struct{}

func (noopCache) Generation(context.Context, int64) (int64, error) { return 0, nil }
func (noopCache) GetSummary(context.Context, int64, string) (*dto.StockSummaryResponse, error) {
	return nil, nil
}
func (noopCache) SetSummary(context.Context, int64, string, int64, *dto.StockSummaryResponse) error {
	return nil
}
func (noopCache) Invalidate(context.Context, ...int64) error { return nil }

type noopPublisher struct{}

func (noopPublisher) Publish(dto.StockEvent) {}
