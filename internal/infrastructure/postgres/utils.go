package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return hasCode(err, "23505")
}

// isForeignKeyViolation verifica si un error es una violación de llave foránea (23503).
func isForeignKeyViolation(err error) bool {
	return hasCode(err, "23503")
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return strings.Contains(err.Error(), code)
}

// orderClause arma ORDER BY desde una lista blanca de columnas; nunca interpola entrada del cliente.
// El desempate es siempre por columns["id"].
func orderClause(columns map[string]string, sortBy, sortOrder, fallback string) string {
	col, ok := columns[sortBy]
	if !ok {
		col = columns[fallback]
	}
	dir := "DESC"
	if sortOrder == "ASC" {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s %s", col, dir, columns["id"], dir)
}

// where acumula condiciones con placeholders $n.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// next devuelve el siguiente placeholder libre.
func (w *where) next() int { return len(w.args) + 1 }
