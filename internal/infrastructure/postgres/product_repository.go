package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, name, description, category_id, stock, price, image_url, created_at, updated_at`

var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"stock":      "stock",
	"created_at": "created_at",
	"id":         "id",
}

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.Stock, &p.Price,
		&p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto con su stock inicial.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (name, description, category_id, stock, price, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		product.Name, product.Description, product.CategoryID, product.Stock, product.Price, product.ImageURL,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.NotFoundError{Resource: "category", ID: product.CategoryID}
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetForUpdate obtiene el producto bloqueando su fila hasta el fin de la transacción.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock product: %w", err)
	}
	return p, nil
}

// Update actualiza un producto existente. No permite modificar Stock (se maneja vía transacciones).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products SET name = $2, description = $3, category_id = $4, price = $5, image_url = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.CategoryID, product.Price, product.ImageURL,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if isForeignKeyViolation(err) {
			return &domain.NotFoundError{Resource: "category", ID: product.CategoryID}
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// UpdateStock fija, suma o resta stock. Devuelve false si ninguna fila fue afectada.
func (r *ProductRepo) UpdateStock(ctx context.Context, id int64, value int64, mode repository.StockUpdateMode) (bool, error) {
	var expr string
	switch mode {
	case repository.StockSet:
		expr = "$2"
	case repository.StockAdd:
		expr = "stock + $2"
	case repository.StockSubtract:
		expr = "stock - $2"
	default:
		return false, fmt.Errorf("update stock: modo desconocido %q", mode)
	}
	cmd, err := r.q.Exec(ctx, `UPDATE products SET stock = `+expr+`, updated_at = now() WHERE id = $1`, id, value)
	if err != nil {
		return false, fmt.Errorf("update stock: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

// List lista productos con filtro por categoría/búsqueda, orden y paginación. Devuelve también el total.
func (r *ProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*entity.Product, int, error) {
	var w where
	if filter.CategoryID != nil {
		w.add("category_id = $%d", *filter.CategoryID)
	}
	if filter.Search != "" {
		w.add("(name ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+filter.Search+"%")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	pos := w.next()
	query := `SELECT ` + productColumns + ` FROM products` + w.sql() +
		orderClause(productSortColumns, filter.SortBy, filter.SortOrder, "created_at") +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
	args := append(w.args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Product, 0, filter.Limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

// CountByCategory cuenta productos de una categoría.
func (r *ProductRepo) CountByCategory(ctx context.Context, categoryID int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products by category: %w", err)
	}
	return n, nil
}

// Delete elimina un producto por ID. Si aún tiene transacciones devuelve ErrConflict.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("producto %d tiene transacciones: %w", id, domain.ErrConflict)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
