package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

// CategoryRepo implementación en memoria de CategoryRepository.
type CategoryRepo struct {
	s    *Store
	inTx bool
}

// Create persiste una categoría; el nombre es único sin distinguir mayúsculas.
func (r *CategoryRepo) Create(_ context.Context, category *entity.Category) error {
	defer guard(r.s, r.inTx)()
	for _, c := range r.s.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return domain.ErrDuplicate
		}
	}
	r.s.seq.category++
	now := r.s.now()
	category.ID = r.s.seq.category
	category.CreatedAt, category.UpdatedAt = now, now
	cp := *category
	r.s.categories[cp.ID] = &cp
	return nil
}

// GetByID obtiene una categoría por ID.
func (r *CategoryRepo) GetByID(_ context.Context, id int64) (*entity.Category, error) {
	defer guard(r.s, r.inTx)()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// GetByName obtiene una categoría por nombre.
func (r *CategoryRepo) GetByName(_ context.Context, name string) (*entity.Category, error) {
	defer guard(r.s, r.inTx)()
	for _, c := range r.s.categories {
		if strings.EqualFold(c.Name, name) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

// Exists indica si la categoría existe.
func (r *CategoryRepo) Exists(_ context.Context, id int64) (bool, error) {
	defer guard(r.s, r.inTx)()
	_, ok := r.s.categories[id]
	return ok, nil
}

// Update actualiza nombre y descripción.
func (r *CategoryRepo) Update(_ context.Context, category *entity.Category) error {
	defer guard(r.s, r.inTx)()
	c, ok := r.s.categories[category.ID]
	if !ok {
		return nil
	}
	for _, other := range r.s.categories {
		if other.ID != category.ID && strings.EqualFold(other.Name, category.Name) {
			return domain.ErrDuplicate
		}
	}
	c.Name = category.Name
	c.Description = category.Description
	c.UpdatedAt = r.s.now()
	category.UpdatedAt = c.UpdatedAt
	return nil
}

// List lista categorías ordenadas por nombre.
func (r *CategoryRepo) List(_ context.Context, limit, offset int) ([]*entity.Category, int, error) {
	defer guard(r.s, r.inTx)()
	all := make([]*entity.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, limit, offset), len(all), nil
}

// Delete elimina una categoría por ID.
func (r *CategoryRepo) Delete(_ context.Context, id int64) error {
	defer guard(r.s, r.inTx)()
	delete(r.s.categories, id)
	return nil
}
