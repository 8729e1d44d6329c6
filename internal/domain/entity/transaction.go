package entity

import (
	"strings"
	"time"
)

// MovementType dirección de un movimiento de stock.
type MovementType string

const (
	MovementStockIn  MovementType = "stock_in"  // entrada
	MovementStockOut MovementType = "stock_out" // salida
)

// ParseMovementType traduce el vocabulario externo ("in"/"out", "stock_in"/"stock_out") al canónico.
func ParseMovementType(s string) (MovementType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stock_in", "in":
		return MovementStockIn, true
	case "stock_out", "out":
		return MovementStockOut, true
	}
	return "", false
}

// Valid indica si el tipo es uno de los dos reconocidos.
func (t MovementType) Valid() bool {
	return t == MovementStockIn || t == MovementStockOut
}

// Short devuelve la forma corta ("in"/"out").
func (t MovementType) Short() string {
	switch t {
	case MovementStockIn:
		return "in"
	case MovementStockOut:
		return "out"
	}
	return ""
}

// Transaction es un registro inmutable del libro de movimientos.
// BatchID se asigna cuando la transacción se creó dentro de un lote.
type Transaction struct {
	ID          int64
	Type        MovementType
	ProductID   int64
	ProductName string // cargado vía JOIN en listados
	Quantity    int64
	Notes       string
	BatchID     string
	CreatedAt   time.Time
}
