package dto

import "time"

// CreateTransactionRequest body para POST /api/transactions.
// Type acepta "stock_in"/"stock_out" y también "in"/"out".
type CreateTransactionRequest struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0,lte=1000000000"`
	Notes     string `json:"notes" validate:"max=1000"`
}

// BulkTransactionRequest body para POST /api/transactions/bulk.
// Las líneas se validan en el caso de uso para poder reportar el índice de la primera inválida.
type BulkTransactionRequest struct {
	Transactions []CreateTransactionRequest `json:"transactions"`
}

// TransactionResponse salida de una transacción de stock.
type TransactionResponse struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	ProductID   int64     `json:"productId"`
	ProductName string    `json:"productName,omitempty"`
	Quantity    int64     `json:"quantity"`
	Notes       string    `json:"notes,omitempty"`
	BatchID     string    `json:"batchId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BulkTransactionResponse resultado de un lote aplicado.
type BulkTransactionResponse struct {
	BatchID       string  `json:"batchId"`
	InsertedCount int     `json:"insertedCount"`
	InsertedIDs   []int64 `json:"insertedIds"`
}

// TransactionListQuery filtros de GET /api/transactions.
type TransactionListQuery struct {
	PageRequest
	ProductID *int64 `query:"productId"`
	Type      string `query:"type"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
	BatchID   string `query:"batchId"`
}

// TransactionListResponse lista paginada de transacciones.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// StockSummaryResponse totales de entradas/salidas de un producto en una ventana opcional.
type StockSummaryResponse struct {
	ProductID        int64      `json:"productId"`
	ProductName      string     `json:"productName"`
	CurrentStock     int64      `json:"currentStock"`
	TotalIn          int64      `json:"totalIn"`
	TotalOut         int64      `json:"totalOut"`
	NetChange        int64      `json:"netChange"`
	TransactionCount int64      `json:"transactionCount"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
}

// StockAtResponse stock reconstruido en un instante.
type StockAtResponse struct {
	ProductID    int64     `json:"productId"`
	ProductName  string    `json:"productName"`
	At           time.Time `json:"at"`
	Stock        int64     `json:"stock"`
	CurrentStock int64     `json:"currentStock"`
}

// ProductMovementDTO fila del reporte de movimientos por producto.
type ProductMovementDTO struct {
	ProductID        int64  `json:"productId"`
	ProductName      string `json:"productName"`
	CurrentStock     int64  `json:"currentStock"`
	TotalIn          int64  `json:"totalIn"`
	TotalOut         int64  `json:"totalOut"`
	NetChange        int64  `json:"netChange"`
	TransactionCount int64  `json:"transactionCount"`
}

// MovementReportResponse reporte de entradas/salidas de todos los productos.
type MovementReportResponse struct {
	StartDate *time.Time           `json:"startDate,omitempty"`
	EndDate   *time.Time           `json:"endDate,omitempty"`
	Products  []ProductMovementDTO `json:"products"`
}

// ReplenishmentQuery parámetros de GET /api/transactions/replenishment.
type ReplenishmentQuery struct {
	ReorderPoint int64 `query:"reorderPoint"`
	Days         int   `query:"days"`
}

// ReplenishmentSuggestionDTO producto bajo el punto de reorden con la cantidad sugerida de pedido.
type ReplenishmentSuggestionDTO struct {
	Priority          int    `json:"priority"`
	ProductID         int64  `json:"productId"`
	ProductName       string `json:"productName"`
	CurrentStock      int64  `json:"currentStock"`
	ReorderPoint      int64  `json:"reorderPoint"`
	IdealStock        int64  `json:"idealStock"`
	SuggestedOrderQty int64  `json:"suggestedOrderQty"`
	UnitsOut          int64  `json:"unitsOut"` // salidas en la ventana de demanda
}

// ReplenishmentResponse lista de reposición priorizada.
type ReplenishmentResponse struct {
	Since time.Time                    `json:"since"`
	Items []ReplenishmentSuggestionDTO `json:"items"`
}
