package dto_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
)

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         dto.PageRequest
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"vacío usa defaults", dto.PageRequest{}, 1, dto.DefaultLimit, 0},
		{"limit sobre el máximo", dto.PageRequest{Page: 2, Limit: 500}, 2, dto.MaxLimit, 100},
		{"limit negativo", dto.PageRequest{Page: 3, Limit: -4}, 3, 1, 2},
		{"page negativa", dto.PageRequest{Page: -1, Limit: 20}, 1, 20, 0},
		{"page enorme no desborda el offset", dto.PageRequest{Page: math.MaxInt, Limit: 100}, dto.MaxPage, 100, (dto.MaxPage - 1) * 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Normalize()
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	assert.Equal(t, 3, dto.NewPageResponse(dto.PageRequest{Page: 1, Limit: 10}, 21).TotalPages)
	assert.Equal(t, 0, dto.NewPageResponse(dto.PageRequest{Page: 1, Limit: 10}, 0).TotalPages)
}
