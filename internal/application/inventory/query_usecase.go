package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Campos por los que se permite ordenar el listado de transacciones.
var transactionSortFields = map[string]bool{
	"created_at": true,
	"quantity":   true,
	"type":       true,
	"product_id": true,
	"id":         true,
}

const defaultTransactionSort = "created_at"

// GetTransaction obtiene una transacción por ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id int64) (*dto.TransactionResponse, error) {
	if id <= 0 {
		return nil, domain.Invalid("id", "must be a positive integer")
	}
	tx, err := uc.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &domain.NotFoundError{Resource: "transaction", ID: id}
	}
	return toTransactionResponse(tx), nil
}

// ListTransactions lista el libro con filtros opcionales, paginación y orden (por defecto created_at DESC).
func (uc *TransactionUseCase) ListTransactions(ctx context.Context, q dto.TransactionListQuery) (*dto.TransactionListResponse, error) {
	filter, page, err := buildTransactionFilter(q)
	if err != nil {
		return nil, err
	}
	list, total, err := uc.txRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransactionResponse, 0, len(list))
	for _, tx := range list {
		items = append(items, *toTransactionResponse(tx))
	}
	return &dto.TransactionListResponse{
		Items: items,
		Page:  dto.NewPageResponse(page, total),
	}, nil
}

// ListByProduct lista las transacciones de un producto existente.
func (uc *TransactionUseCase) ListByProduct(ctx context.Context, productID int64, q dto.TransactionListQuery) (*dto.TransactionListResponse, error) {
	if _, err := uc.requireProduct(ctx, productID); err != nil {
		return nil, err
	}
	q.ProductID = &productID
	return uc.ListTransactions(ctx, q)
}

// ListByType lista las transacciones de un tipo (acepta "in"/"out").
func (uc *TransactionUseCase) ListByType(ctx context.Context, movementType string, q dto.TransactionListQuery) (*dto.TransactionListResponse, error) {
	if _, ok := entity.ParseMovementType(movementType); !ok {
		return nil, domain.Invalid("type", "must be stock_in or stock_out")
	}
	q.Type = movementType
	return uc.ListTransactions(ctx, q)
}

// ListByDateRange lista las transacciones entre dos fechas (ambas obligatorias).
func (uc *TransactionUseCase) ListByDateRange(ctx context.Context, startDate, endDate string, q dto.TransactionListQuery) (*dto.TransactionListResponse, error) {
	if startDate == "" || endDate == "" {
		return nil, domain.Invalid("dates", "Start date and end date are required")
	}
	q.StartDate, q.EndDate = startDate, endDate
	return uc.ListTransactions(ctx, q)
}

// ListByBatch lista las transacciones creadas por un mismo lote.
func (uc *TransactionUseCase) ListByBatch(ctx context.Context, batchID string, q dto.TransactionListQuery) (*dto.TransactionListResponse, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, domain.Invalid("batchId", "is required")
	}
	q.BatchID = batchID
	return uc.ListTransactions(ctx, q)
}

// GetStockSummary agrega entradas y salidas de un producto en la ventana opcional [startDate, endDate].
// Producto y totales se leen con el producto bloqueado, así el resumen corresponde a un único estado.
// El resultado se guarda en caché solo si ninguna mutación invalidó el producto mientras se calculaba.
func (uc *TransactionUseCase) GetStockSummary(ctx context.Context, productID int64, startDate, endDate string) (*dto.StockSummaryResponse, error) {
	from, to, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	if _, err := uc.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	window := windowKey(from, to)
	generation, genErr := uc.cache.Generation(ctx, productID)
	if genErr == nil {
		if cached, err := uc.cache.GetSummary(ctx, productID, window); err == nil && cached != nil {
			return cached, nil
		}
	}

	var out *dto.StockSummaryResponse
	err = uc.txRunner.Run(ctx, func(
		txRepo repository.TransactionRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := productRepo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return &domain.NotFoundError{Resource: "product", ID: productID}
		}
		totals, err := txRepo.Totals(ctx, productID, from, to)
		if err != nil {
			return err
		}
		out = &dto.StockSummaryResponse{
			ProductID:        product.ID,
			ProductName:      product.Name,
			CurrentStock:     product.Stock,
			TotalIn:          totals.TotalIn,
			TotalOut:         totals.TotalOut,
			NetChange:        totals.NetChange(),
			TransactionCount: totals.TransactionCount,
			StartDate:        from,
			EndDate:          to,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		_ = uc.cache.SetSummary(ctx, productID, window, generation, out)
	}
	return out, nil
}

// GetStockAt reconstruye el stock de un producto en el instante indicado.
func (uc *TransactionUseCase) GetStockAt(ctx context.Context, productID int64, at string) (*dto.StockAtResponse, error) {
	if at == "" {
		return nil, domain.Invalid("at", "is required")
	}
	t, err := ParseDate(at, true)
	if err != nil {
		return nil, err
	}
	product, err := uc.requireProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	later, err := uc.txRepo.NetChangeAfter(ctx, productID, *t)
	if err != nil {
		return nil, err
	}
	return &dto.StockAtResponse{
		ProductID:    product.ID,
		ProductName:  product.Name,
		At:           *t,
		Stock:        product.Stock - later,
		CurrentStock: product.Stock,
	}, nil
}

// GetMovementReport totales de entradas/salidas por producto en la ventana opcional.
func (uc *TransactionUseCase) GetMovementReport(ctx context.Context, startDate, endDate string) (*dto.MovementReportResponse, error) {
	from, to, err := ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	rows, err := uc.txRepo.Report(ctx, from, to)
	if err != nil {
		return nil, err
	}
	products := make([]dto.ProductMovementDTO, 0, len(rows))
	for _, r := range rows {
		products = append(products, dto.ProductMovementDTO{
			ProductID:        r.ProductID,
			ProductName:      r.ProductName,
			CurrentStock:     r.CurrentStock,
			TotalIn:          r.TotalIn,
			TotalOut:         r.TotalOut,
			NetChange:        r.NetChange(),
			TransactionCount: r.TransactionCount,
		})
	}
	return &dto.MovementReportResponse{StartDate: from, EndDate: to, Products: products}, nil
}

func (uc *TransactionUseCase) requireProduct(ctx context.Context, productID int64) (*entity.Product, error) {
	if productID <= 0 {
		return nil, domain.Invalid("productId", "is required")
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "product", ID: productID}
	}
	return product, nil
}

func buildTransactionFilter(q dto.TransactionListQuery) (repository.TransactionFilter, dto.PageRequest, error) {
	page := q.PageRequest
	page.Normalize()

	filter := repository.TransactionFilter{
		ProductID: q.ProductID,
		BatchID:   strings.TrimSpace(q.BatchID),
		SortBy:    defaultTransactionSort,
		SortOrder: "DESC",
		Limit:     page.Limit,
		Offset:    page.Offset(),
	}
	if sortBy := strings.ToLower(strings.TrimSpace(page.SortBy)); transactionSortFields[sortBy] {
		filter.SortBy = sortBy
	}
	if strings.EqualFold(page.SortOrder, "ASC") {
		filter.SortOrder = "ASC"
	}
	if q.Type != "" {
		t, ok := entity.ParseMovementType(q.Type)
		if !ok {
			return filter, page, domain.Invalid("type", "must be stock_in or stock_out")
		}
		filter.Type = &t
	}
	from, to, err := ParseDateRange(q.StartDate, q.EndDate)
	if err != nil {
		return filter, page, err
	}
	filter.From, filter.To = from, to
	return filter, page, nil
}

// ParseDateRange interpreta fechas opcionales; si ambas existen exige start <= end.
func ParseDateRange(startDate, endDate string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	var err error
	if startDate != "" {
		if from, err = ParseDate(startDate, false); err != nil {
			return nil, nil, err
		}
	}
	if endDate != "" {
		if to, err = ParseDate(endDate, true); err != nil {
			return nil, nil, err
		}
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, domain.Invalid("dates", "Start date must be before end date")
	}
	return from, to, nil
}

// ParseDate acepta RFC3339 o YYYY-MM-DD. Con endOfDay, una fecha sin hora cubre el día completo.
func ParseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, domain.Invalid("dates", "Invalid date format")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func windowKey(from, to *time.Time) string {
	var b strings.Builder
	if from != nil {
		b.WriteString(from.UTC().Format(time.RFC3339Nano))
	}
	b.WriteByte('|')
	if to != nil {
		b.WriteString(to.UTC().Format(time.RFC3339Nano))
	}
	return b.String()
}
