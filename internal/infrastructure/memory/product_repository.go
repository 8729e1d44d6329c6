package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	s    *Store
	inTx bool
}

// Create persiste un producto nuevo con su stock inicial.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	defer guard(r.s, r.inTx)()
	r.s.seq.product++
	now := r.s.now()
	product.ID = r.s.seq.product
	product.CreatedAt, product.UpdatedAt = now, now
	cp := *product
	r.s.products[cp.ID] = &cp
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	defer guard(r.s, r.inTx)()
	return r.get(id), nil
}

// GetForUpdate dentro de Run el candado del store ya es exclusivo.
func (r *ProductRepo) GetForUpdate(_ context.Context, id int64) (*entity.Product, error) {
	defer guard(r.s, r.inTx)()
	return r.get(id), nil
}

func (r *ProductRepo) get(id int64) *entity.Product {
	p, ok := r.s.products[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// Update actualiza los datos descriptivos. Stock no se modifica.
func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	defer guard(r.s, r.inTx)()
	p, ok := r.s.products[product.ID]
	if !ok {
		return nil
	}
	p.Name = product.Name
	p.Description = product.Description
	p.CategoryID = product.CategoryID
	p.Price = product.Price
	p.ImageURL = product.ImageURL
	p.UpdatedAt = r.s.now()
	product.UpdatedAt = p.UpdatedAt
	return nil
}

// UpdateStock fija, suma o resta stock. Devuelve false si el producto no existe.
func (r *ProductRepo) UpdateStock(_ context.Context, id int64, value int64, mode repository.StockUpdateMode) (bool, error) {
	defer guard(r.s, r.inTx)()
	p, ok := r.s.products[id]
	if !ok {
		return false, nil
	}
	switch mode {
	case repository.StockSet:
		p.Stock = value
	case repository.StockAdd:
		p.Stock += value
	case repository.StockSubtract:
		p.Stock -= value
	default:
		return false, fmt.Errorf("update stock: modo desconocido %q", mode)
	}
	p.UpdatedAt = r.s.now()
	return true, nil
}

// List lista productos con filtro por categoría/búsqueda y orden.
func (r *ProductRepo) List(_ context.Context, filter repository.ProductFilter) ([]*entity.Product, int, error) {
	defer guard(r.s, r.inTx)()
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	all := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	desc := filter.SortOrder != "ASC"
	sort.Slice(all, func(i, j int) bool {
		c := compareProducts(all[i], all[j], filter.SortBy)
		if c == 0 {
			c = compareInt(all[i].ID, all[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
	return paginate(all, filter.Limit, filter.Offset), len(all), nil
}

func compareProducts(a, b *entity.Product, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "price":
		return a.Price.Cmp(b.Price)
	case "stock":
		return compareInt(a.Stock, b.Stock)
	case "id":
		return compareInt(a.ID, b.ID)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CountByCategory cuenta productos de una categoría.
func (r *ProductRepo) CountByCategory(_ context.Context, categoryID int64) (int, error) {
	defer guard(r.s, r.inTx)()
	n := 0
	for _, p := range r.s.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(_ context.Context, id int64) error {
	defer guard(r.s, r.inTx)()
	delete(r.s.products, id)
	return nil
}
