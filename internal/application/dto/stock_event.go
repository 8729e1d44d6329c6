package dto

import "time"

// Acciones de StockEvent.
const (
	StockActionTransactionCreated = "transaction_created"
	StockActionTransactionDeleted = "transaction_deleted"
	StockActionBulkApplied        = "bulk_applied"
)

// StockEvent payload publicado después de cada cambio de stock confirmado.
type StockEvent struct {
	Type           string    `json:"type"` // siempre "stock_update"
	Action         string    `json:"action"`
	ProductID      int64     `json:"productId"`
	ProductName    string    `json:"productName"`
	OldStock       int64     `json:"oldStock"`
	NewStock       int64     `json:"newStock"`
	TransactionIDs []int64   `json:"transactionIds,omitempty"`
	BatchID        string    `json:"batchId,omitempty"`
	At             time.Time `json:"at"`
}
