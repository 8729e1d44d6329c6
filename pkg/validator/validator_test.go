package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/pkg/validator"
)

func TestValidate_TransaccionValida(t *testing.T) {
	err := validator.Validate(dto.CreateTransactionRequest{ProductID: 1, Type: "stock_in", Quantity: 3})
	assert.NoError(t, err)
}

func TestValidate_ReportaNombreJSON(t *testing.T) {
	err := validator.Validate(dto.CreateTransactionRequest{ProductID: 1, Type: "in", Quantity: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Field)
	assert.Equal(t, "is required", ve.Reason)
}

func TestValidateStruct_TodosLosFallos(t *testing.T) {
	errs := validator.ValidateStruct(dto.CreateProductRequest{Stock: -1, ImageURL: "no-es-url"})
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"name", "categoryId", "stock", "imageUrl"}, fields)
}
