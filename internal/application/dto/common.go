package dto

// PageRequest paginación para listados (page base 1).
type PageRequest struct {
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
	SortBy    string `query:"sortBy"`
	SortOrder string `query:"sortOrder" validate:"omitempty,oneof=ASC DESC asc desc"`
}

// Límites de paginación.
const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage mantiene (Page-1)*Limit lejos del desbordamiento en cualquier plataforma.
	MaxPage = 1_000_000
)

// Normalize aplica valores por defecto, limita Page a [1, MaxPage] y Limit a [1, MaxLimit].
// Limit 0 (ausente) usa DefaultLimit.
func (p *PageRequest) Normalize() {
	switch {
	case p.Page < 1:
		p.Page = 1
	case p.Page > MaxPage:
		p.Page = MaxPage
	}
	switch {
	case p.Limit == 0:
		p.Limit = DefaultLimit
	case p.Limit < 1:
		p.Limit = 1
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
}

// Offset desplazamiento equivalente a Page/Limit (llamar después de Normalize).
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPageResponse calcula el total de páginas.
func NewPageResponse(p PageRequest, total int) PageResponse {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageResponse{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
