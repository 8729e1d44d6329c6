package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventory-ledger/internal/domain/entity"
	"github.com/jhoicas/inventory-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

const transactionColumns = `t.id, t.type, t.product_id, COALESCE(p.name, ''), t.quantity, t.notes, COALESCE(t.batch_id::text, ''), t.created_at`

const transactionFrom = ` FROM stock_transactions t LEFT JOIN products p ON p.id = t.product_id`

var transactionSortColumns = map[string]string{
	"created_at": "t.created_at",
	"quantity":   "t.quantity",
	"type":       "t.type",
	"product_id": "t.product_id",
	"id":         "t.id",
}

// Expresión de delta con signo: stock_in suma, stock_out resta.
const signedQuantity = `CASE WHEN t.type = 'stock_in' THEN t.quantity ELSE -t.quantity END`

// TransactionRepo implementación del libro de movimientos sobre PostgreSQL (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var tx entity.Transaction
	var typ string
	if err := row.Scan(&tx.ID, &typ, &tx.ProductID, &tx.ProductName, &tx.Quantity, &tx.Notes, &tx.BatchID, &tx.CreatedAt); err != nil {
		return nil, err
	}
	tx.Type = entity.MovementType(typ)
	return &tx, nil
}

// Create persiste una transacción y asigna ID y CreatedAt.
func (r *TransactionRepo) Create(ctx context.Context, tx *entity.Transaction) error {
	query := `
		INSERT INTO stock_transactions (type, product_id, quantity, notes, batch_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid)
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query, string(tx.Type), tx.ProductID, tx.Quantity, tx.Notes, tx.BatchID).
		Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateBulk inserta todas las filas con un único INSERT multi-fila y devuelve los IDs en orden de entrada.
func (r *TransactionRepo) CreateBulk(ctx context.Context, txs []*entity.Transaction) ([]int64, error) {
	if len(txs) == 0 {
		return []int64{}, nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO stock_transactions (type, product_id, quantity, notes, batch_id) VALUES `)
	args := make([]any, 0, len(txs)*5)
	for i, tx := range txs {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, NULLIF($%d, '')::uuid)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, string(tx.Type), tx.ProductID, tx.Quantity, tx.Notes, tx.BatchID)
	}
	sb.WriteString(` RETURNING id, created_at`)

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("bulk insert transactions: %w", err)
	}
	defer rows.Close()
	ids := make([]int64, 0, len(txs))
	for rows.Next() {
		var id int64
		var createdAt time.Time
		if err := rows.Scan(&id, &createdAt); err != nil {
			return nil, fmt.Errorf("scan inserted id: %w", err)
		}
		if i := len(ids); i < len(txs) {
			txs[i].ID, txs[i].CreatedAt = id, createdAt
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bulk insert transactions: %w", err)
	}
	if len(ids) != len(txs) {
		return nil, fmt.Errorf("bulk insert transactions: %d filas insertadas, %d esperadas", len(ids), len(txs))
	}
	return ids, nil
}

// GetByID obtiene una transacción con el nombre de su producto.
func (r *TransactionRepo) GetByID(ctx context.Context, id int64) (*entity.Transaction, error) {
	tx, err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+transactionFrom+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// Delete elimina una transacción por ID.
func (r *TransactionRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_transactions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func transactionWhere(filter repository.TransactionFilter) *where {
	w := &where{}
	if filter.ProductID != nil {
		w.add("t.product_id = $%d", *filter.ProductID)
	}
	if filter.Type != nil {
		w.add("t.type = $%d", string(*filter.Type))
	}
	if filter.BatchID != "" {
		w.add("t.batch_id::text = $%d", filter.BatchID)
	}
	if filter.From != nil {
		w.add("t.created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.add("t.created_at <= $%d", *filter.To)
	}
	return w
}

// List filtra, ordena y pagina el libro. Devuelve también el total sin paginar.
func (r *TransactionRepo) List(ctx context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, int, error) {
	w := transactionWhere(filter)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_transactions t`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	pos := w.next()
	query := `SELECT ` + transactionColumns + transactionFrom + w.sql() +
		orderClause(transactionSortColumns, filter.SortBy, filter.SortOrder, "created_at") +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
	args := append(w.args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.Transaction, 0, filter.Limit)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, tx)
	}
	return list, total, rows.Err()
}

// Totals agrega entradas y salidas del producto en la ventana [from, to].
func (r *TransactionRepo) Totals(ctx context.Context, productID int64, from, to *time.Time) (inventory.Totals, error) {
	w := transactionWhere(repository.TransactionFilter{ProductID: &productID, From: from, To: to})
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN t.type = 'stock_in' THEN t.quantity ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.type = 'stock_out' THEN t.quantity ELSE 0 END), 0),
			COUNT(*)
		FROM stock_transactions t` + w.sql()
	var tot inventory.Totals
	if err := r.q.QueryRow(ctx, query, w.args...).Scan(&tot.TotalIn, &tot.TotalOut, &tot.TransactionCount); err != nil {
		return inventory.Totals{}, fmt.Errorf("transaction totals: %w", err)
	}
	return tot, nil
}

// NetChangeAfter suma con signo de los movimientos del producto creados después de at.
func (r *TransactionRepo) NetChangeAfter(ctx context.Context, productID int64, at time.Time) (int64, error) {
	var net int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(`+signedQuantity+`), 0) FROM stock_transactions t WHERE t.product_id = $1 AND t.created_at > $2`,
		productID, at,
	).Scan(&net)
	if err != nil {
		return 0, fmt.Errorf("net change after: %w", err)
	}
	return net, nil
}

// Report totales por producto en la ventana. Incluye productos sin movimientos, ordenados por ID.
func (r *TransactionRepo) Report(ctx context.Context, from, to *time.Time) ([]repository.ProductMovementTotals, error) {
	join := "t.product_id = p.id"
	var args []any
	if from != nil {
		args = append(args, *from)
		join += fmt.Sprintf(" AND t.created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		join += fmt.Sprintf(" AND t.created_at <= $%d", len(args))
	}
	query := `
		SELECT p.id, p.name, p.stock,
			COALESCE(SUM(CASE WHEN t.type = 'stock_in' THEN t.quantity ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.type = 'stock_out' THEN t.quantity ELSE 0 END), 0),
			COUNT(t.id)
		FROM products p
		LEFT JOIN stock_transactions t ON ` + join + `
		GROUP BY p.id, p.name, p.stock
		ORDER BY p.id`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("movement report: %w", err)
	}
	defer rows.Close()
	out := make([]repository.ProductMovementTotals, 0)
	for rows.Next() {
		var m repository.ProductMovementTotals
		if err := rows.Scan(&m.ProductID, &m.ProductName, &m.CurrentStock, &m.TotalIn, &m.TotalOut, &m.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountByProduct cuenta transacciones de un producto.
func (r *TransactionRepo) CountByProduct(ctx context.Context, productID int64) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_transactions WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions by product: %w", err)
	}
	return n, nil
}
