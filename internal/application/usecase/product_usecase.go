package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

// Campos por los que se permite ordenar el listado de productos.
var productSortFields = map[string]bool{
	"name":       true,
	"price":      true,
	"stock":      true,
	"created_at": true,
}

// ProductUseCase casos de uso CRUD para productos. Stock solo cambia vía transacciones de stock.
type ProductUseCase struct {
	txRunner     inventory.TxRunner
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(
	txRunner inventory.TxRunner,
	repo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner, repo: repo, categoryRepo: categoryRepo}
}

// Create crea un producto con su stock inicial.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name", "is required")
	}
	if in.Stock < 0 {
		return nil, domain.Invalid("stock", "must be zero or positive")
	}
	if in.Price.IsNegative() {
		return nil, domain.Invalid("price", "must be zero or positive")
	}
	if err := uc.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	product := &entity.Product{
		Name:        name,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Stock:       in.Stock,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update actualiza los campos enviados. Stock no se puede modificar aquí.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Invalid("name", "is required")
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.CategoryID != nil && *in.CategoryID != product.CategoryID {
		if err := uc.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *in.CategoryID
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.Invalid("price", "must be zero or positive")
		}
		product.Price = *in.Price
	}
	if in.ImageURL != nil {
		product.ImageURL = *in.ImageURL
	}
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con filtros, orden (allow-list) y paginación.
func (uc *ProductUseCase) List(ctx context.Context, q dto.ProductListQuery) (*dto.ProductListResponse, error) {
	page := q.PageRequest
	page.Normalize()
	filter := repository.ProductFilter{
		CategoryID: q.CategoryID,
		Search:     strings.TrimSpace(q.Search),
		SortBy:     "created_at",
		SortOrder:  "DESC",
		Limit:      page.Limit,
		Offset:     page.Offset(),
	}
	if sortBy := strings.ToLower(strings.TrimSpace(page.SortBy)); productSortFields[sortBy] {
		filter.SortBy = sortBy
	}
	if strings.EqualFold(page.SortOrder, "ASC") {
		filter.SortOrder = "ASC"
	}
	list, total, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{Items: items, Page: dto.NewPageResponse(page, total)}, nil
}

// Delete elimina un producto sin transacciones; con historial devuelve ErrConflict.
// El producto queda bloqueado mientras se cuenta su historial, así ningún movimiento concurrente
// puede quedar huérfano.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.Invalid("id", "must be a positive integer")
	}
	return uc.txRunner.Run(ctx, func(
		txRepo repository.TransactionRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return &domain.NotFoundError{Resource: "product", ID: id}
		}
		n, err := txRepo.CountByProduct(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("product %d has %d transactions: %w", id, n, domain.ErrConflict)
		}
		return productRepo.Delete(ctx, id)
	})
}

func (uc *ProductUseCase) get(ctx context.Context, id int64) (*entity.Product, error) {
	if id <= 0 {
		return nil, domain.Invalid("id", "must be a positive integer")
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.NotFoundError{Resource: "product", ID: id}
	}
	return product, nil
}

func (uc *ProductUseCase) requireCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.Invalid("categoryId", "is required")
	}
	ok, err := uc.categoryRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.NotFoundError{Resource: "category", ID: id}
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Stock:       p.Stock,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
