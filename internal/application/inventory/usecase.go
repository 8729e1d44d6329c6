package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Options políticas configurables del motor de stock.
type Options struct {
	// AllowNegativeOnDelete permite que revertir una entrada deje el stock en negativo
	// (señal de conciliación). Por defecto la eliminación se rechaza con stock insuficiente.
	AllowNegativeOnDelete bool
}

// TransactionUseCase aplica movimientos de stock de forma transaccional
// (individual, lote con cambio neto, eliminación con reversa) y expone las consultas del libro.
type TransactionUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	txRepo      repository.TransactionRepository
	cache       SummaryCache
	publisher   EventPublisher
	opts        Options
	now         func() time.Time
}

// NewTransactionUseCase construye el caso de uso. cache y publisher pueden ser nil.
func NewTransactionUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	txRepo repository.TransactionRepository,
	cache SummaryCache,
	publisher EventPublisher,
	opts Options,
) *TransactionUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &TransactionUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		txRepo:      txRepo,
		cache:       cache,
		publisher:   publisher,
		opts:        opts,
		now:         time.Now,
	}
}

// ApplyTransaction valida y aplica un movimiento: bloquea el producto (SELECT FOR UPDATE),
// verifica stock para salidas, inserta la transacción y actualiza el stock en la misma tx.
func (uc *TransactionUseCase) ApplyTransaction(ctx context.Context, line inventory.Line) (*dto.TransactionResponse, error) {
	if err := inventory.ValidateLine(line); err != nil {
		return nil, err
	}

	var (
		created *entity.Transaction
		event   dto.StockEvent
	)
	err := uc.txRunner.Run(ctx, func(
		txRepo repository.TransactionRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := productRepo.GetForUpdate(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return &domain.NotFoundError{Resource: "product", ID: line.ProductID}
		}
		if err := inventory.CheckApply(product, line); err != nil {
			return err
		}

		tx := &entity.Transaction{
			Type:      line.Type,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Notes:     line.Notes,
		}
		if err := txRepo.Create(ctx, tx); err != nil {
			return err
		}
		mode := repository.StockAdd
		if line.Type == entity.MovementStockOut {
			mode = repository.StockSubtract
		}
		if err := updateStock(ctx, productRepo, product.ID, line.Quantity, mode); err != nil {
			return err
		}

		tx.ProductName = product.Name
		created = tx
		event = dto.StockEvent{
			Action:         dto.StockActionTransactionCreated,
			ProductID:      product.ID,
			ProductName:    product.Name,
			OldStock:       product.Stock,
			NewStock:       product.Stock + inventory.Delta(line.Type, line.Quantity),
			TransactionIDs: []int64{tx.ID},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, event)
	return toTransactionResponse(created), nil
}

// DeleteTransaction elimina una transacción aplicando primero la reversa de su efecto sobre el stock.
func (uc *TransactionUseCase) DeleteTransaction(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.Invalid("id", "must be a positive integer")
	}

	var event *dto.StockEvent
	err := uc.txRunner.Run(ctx, func(
		txRepo repository.TransactionRepository,
		productRepo repository.ProductRepository,
	) error {
		tx, err := txRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if tx == nil {
			return &domain.NotFoundError{Resource: "transaction", ID: id}
		}

		product, err := productRepo.GetForUpdate(ctx, tx.ProductID)
		if err != nil {
			return err
		}
		// Transacción huérfana: no hay stock que revertir.
		if product == nil {
			return txRepo.Delete(ctx, id)
		}

		delta := inventory.ReverseDelta(tx.Type, tx.Quantity)
		if _, ok := inventory.AddStock(product.Stock, delta); !ok {
			return domain.Invalid("quantity", "reversal would overflow product stock")
		}
		if product.Stock+delta < 0 && !uc.opts.AllowNegativeOnDelete {
			return &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   tx.Quantity,
			}
		}
		mode := repository.StockAdd
		if delta < 0 {
			mode = repository.StockSubtract
		}
		if err := updateStock(ctx, productRepo, product.ID, tx.Quantity, mode); err != nil {
			return err
		}
		if err := txRepo.Delete(ctx, id); err != nil {
			return err
		}

		event = &dto.StockEvent{
			Action:         dto.StockActionTransactionDeleted,
			ProductID:      product.ID,
			ProductName:    product.Name,
			OldStock:       product.Stock,
			NewStock:       product.Stock + delta,
			TransactionIDs: []int64{id},
		}
		return nil
	})
	if err != nil {
		return err
	}

	if event != nil {
		uc.afterCommit(ctx, *event)
	}
	return nil
}

// ApplyBulk aplica un lote como una unidad: valida cada línea en orden (error con índice base 1),
// acumula el cambio neto por producto y solo si todos los productos quedan con stock >= 0
// inserta las transacciones y fija el stock final (modo set).
func (uc *TransactionUseCase) ApplyBulk(ctx context.Context, lines []inventory.Line) (*dto.BulkTransactionResponse, error) {
	if len(lines) == 0 {
		return nil, domain.Invalid("transactions", "must be a non-empty array")
	}

	batchID := uuid.New().String()
	var (
		result *dto.BulkTransactionResponse
		events []dto.StockEvent
	)
	err := uc.txRunner.Run(ctx, func(
		txRepo repository.TransactionRepository,
		productRepo repository.ProductRepository,
	) error {
		// Bloqueo en orden ascendente de ID para que lotes concurrentes no se bloqueen mutuamente.
		products, err := lockProducts(ctx, productRepo, lines)
		if err != nil {
			return err
		}

		plan := inventory.NewBulkPlan()
		for i, line := range lines {
			if err := inventory.ValidateLine(line); err != nil {
				return &domain.BatchItemError{Index: i + 1, Err: err}
			}
			product := products[line.ProductID]
			if product == nil {
				return &domain.BatchItemError{
					Index: i + 1,
					Err:   &domain.NotFoundError{Resource: "product", ID: line.ProductID},
				}
			}
			plan.Seed(product)
			if err := plan.Add(line); err != nil {
				return &domain.BatchItemError{Index: i + 1, Err: err}
			}
		}
		if err := plan.Check(); err != nil {
			return err
		}

		txs := make([]*entity.Transaction, len(lines))
		for i, line := range lines {
			txs[i] = &entity.Transaction{
				Type:      line.Type,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Notes:     line.Notes,
				BatchID:   batchID,
			}
		}
		ids, err := txRepo.CreateBulk(ctx, txs)
		if err != nil {
			return err
		}

		for _, e := range plan.Entries() {
			if err := updateStock(ctx, productRepo, e.ProductID, e.FinalStock(), repository.StockSet); err != nil {
				return err
			}
			events = append(events, dto.StockEvent{
				Action:         dto.StockActionBulkApplied,
				ProductID:      e.ProductID,
				ProductName:    e.ProductName,
				OldStock:       e.CurrentStock,
				NewStock:       e.FinalStock(),
				TransactionIDs: idsForProduct(txs, ids, e.ProductID),
				BatchID:        batchID,
			})
		}

		result = &dto.BulkTransactionResponse{
			BatchID:       batchID,
			InsertedCount: len(ids),
			InsertedIDs:   ids,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, events...)
	return result, nil
}

// lockProducts bloquea cada producto distinto del lote y devuelve id → producto (nil si no existe).
func lockProducts(ctx context.Context, productRepo repository.ProductRepository, lines []inventory.Line) (map[int64]*entity.Product, error) {
	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if l.ProductID <= 0 {
			continue
		}
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := make(map[int64]*entity.Product, len(ids))
	for _, id := range ids {
		p, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		products[id] = p
	}
	return products, nil
}

func updateStock(ctx context.Context, productRepo repository.ProductRepository, id, value int64, mode repository.StockUpdateMode) error {
	ok, err := productRepo.UpdateStock(ctx, id, value, mode)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.NotFoundError{Resource: "product", ID: id}
	}
	return nil
}

func idsForProduct(txs []*entity.Transaction, ids []int64, productID int64) []int64 {
	var out []int64
	for i, tx := range txs {
		if tx.ProductID == productID && i < len(ids) {
			out = append(out, ids[i])
		}
	}
	return out
}

// afterCommit invalida la caché de resúmenes y publica los eventos. Nunca falla la operación.
func (uc *TransactionUseCase) afterCommit(ctx context.Context, events ...dto.StockEvent) {
	if len(events) == 0 {
		return
	}
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ProductID)
	}
	_ = uc.cache.Invalidate(ctx, ids...)

	now := uc.now()
	for _, e := range events {
		e.Type = "stock_update"
		e.At = now
		uc.publisher.Publish(e)
	}
}

func toTransactionResponse(tx *entity.Transaction) *dto.TransactionResponse {
	if tx == nil {
		return nil
	}
	return &dto.TransactionResponse{
		ID:          tx.ID,
		Type:        string(tx.Type),
		ProductID:   tx.ProductID,
		ProductName: tx.ProductName,
		Quantity:    tx.Quantity,
		Notes:       tx.Notes,
		BatchID:     tx.BatchID,
		CreatedAt:   tx.CreatedAt,
	}
}
