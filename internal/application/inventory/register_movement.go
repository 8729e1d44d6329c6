package inventory

import (
	"context"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
)

// ApplyFromRequest adapta el request HTTP al caso de uso ApplyTransaction.
func (uc *TransactionUseCase) ApplyFromRequest(ctx context.Context, in dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	return uc.ApplyTransaction(ctx, lineFromRequest(in))
}

// ApplyBulkFromRequest adapta el body de un lote al caso de uso ApplyBulk.
func (uc *TransactionUseCase) ApplyBulkFromRequest(ctx context.Context, in dto.BulkTransactionRequest) (*dto.BulkTransactionResponse, error) {
	lines := make([]inventory.Line, len(in.Transactions))
	for i, r := range in.Transactions {
		lines[i] = lineFromRequest(r)
	}
	return uc.ApplyBulk(ctx, lines)
}

// lineFromRequest traduce el vocabulario externo del tipo ("in"/"out") al canónico.
// Un tipo desconocido se conserva tal cual para que ValidateLine lo rechace en su posición.
func lineFromRequest(in dto.CreateTransactionRequest) inventory.Line {
	t, ok := entity.ParseMovementType(in.Type)
	if !ok {
		t = entity.MovementType(in.Type)
	}
	return inventory.Line{
		ProductID: in.ProductID,
		Type:      t,
		Quantity:  in.Quantity,
		Notes:     in.Notes,
	}
}
