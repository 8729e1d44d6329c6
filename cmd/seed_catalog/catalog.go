package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type catalogRow struct {
	category    string
	name        string
	price       decimal.Decimal
	description string
}

// decodeInput devuelve el contenido en UTF-8. Si no es UTF-8 válido se asume ISO-8859-1.
func decodeInput(raw []byte) io.Reader {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	return transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder())
}

// parseCatalog lee las filas del CSV. Acepta ',' o ';' como separador (según la primera línea).
func parseCatalog(raw []byte) ([]catalogRow, error) {
	r := csv.NewReader(decodeInput(raw))
	if first, _, _ := bytes.Cut(raw, []byte("\n")); bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		r.Comma = ';'
	}
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV vacío")
	}

	var rows []catalogRow
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) < 3 {
			return nil, fmt.Errorf("línea %d: se esperaban al menos 3 columnas", line)
		}
		row := catalogRow{
			category: strings.TrimSpace(rec[0]),
			name:     strings.TrimSpace(rec[1]),
		}
		if row.category == "" || row.name == "" {
			return nil, fmt.Errorf("línea %d: category y name son requeridos", line)
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[2]), ",", "."))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("línea %d: precio inválido %q", line, rec[2])
		}
		row.price = price.Round(2)
		if len(rec) > 3 {
			row.description = strings.TrimSpace(rec[3])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// writeSeed escribe el SQL idempotente: categorías por nombre (sin distinguir mayúsculas) y productos
// que aún no existan en su categoría.
func writeSeed(w io.Writer, rows []catalogRow, source string) (int, int) {
	seen := make(map[string]string)
	for _, r := range rows {
		key := strings.ToLower(r.category)
		if _, ok := seen[key]; !ok {
			seen[key] = r.category
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "-- Catálogo inicial\n-- Generado desde %s\n\n", source)

	fmt.Fprintln(w, "-- 1. Categorías")
	if len(keys) > 0 {
		fmt.Fprintln(w, "INSERT INTO categories (name) VALUES")
		for i, k := range keys {
			sep := ","
			if i == len(keys)-1 {
				sep = ""
			}
			fmt.Fprintf(w, "  ('%s')%s\n", escapeSQL(seen[k]), sep)
		}
		fmt.Fprintln(w, "ON CONFLICT ((lower(name))) DO NOTHING;")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "-- 2. Productos (stock 0)")
	for _, r := range rows {
		name := escapeSQL(r.name)
		fmt.Fprintln(w, "INSERT INTO products (name, description, category_id, price)")
		fmt.Fprintf(w, "SELECT '%s', '%s', c.id, %s FROM categories c\n",
			name, escapeSQL(r.description), r.price.StringFixed(2))
		fmt.Fprintf(w, "WHERE lower(c.name) = lower('%s')\n", escapeSQL(r.category))
		fmt.Fprintf(w, "  AND NOT EXISTS (SELECT 1 FROM products p WHERE p.category_id = c.id AND lower(p.name) = lower('%s'));\n", name)
	}
	return len(keys), len(rows)
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
