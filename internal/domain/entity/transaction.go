package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción de inventario.
const (
	TransactionTypePurchase   = "purchase"   // compra, suma stock
	TransactionTypeSale       = "sale"       // venta, resta stock
	TransactionTypeAdjustment = "adjustment" // ajuste manual, suma stock
)

// IsValidTransactionType indica si t es uno de los tipos conocidos.
func IsValidTransactionType(t string) bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeSale, TransactionTypeAdjustment:
		return true
	}
	return false
}

// Transaction es un asiento inmutable del ledger de inventario.
// Quantity siempre es positiva; la dirección la da Type.
type Transaction struct {
	ID              string
	Type            string
	ProductID       string
	BatchID         *string // nil: movimiento sin lote
	Quantity        int64
	UnitCost        *decimal.Decimal
	ReferenceNumber string
	Notes           string
	TransactionDate time.Time
	CreatedBy       string
	CreatedAt       time.Time
}

// HasBatch reporta si la transacción afecta el stock de un lote.
func (t *Transaction) HasBatch() bool {
	return t.BatchID != nil && *t.BatchID != ""
}

// TotalCost devuelve UnitCost × Quantity, o cero si no hay costo unitario.
func (t *Transaction) TotalCost() decimal.Decimal {
	if t.UnitCost == nil {
		return decimal.Zero
	}
	return t.UnitCost.Mul(decimal.NewFromInt(t.Quantity))
}

// Clone devuelve una copia profunda; los stores nunca comparten punteros con el llamador.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	if t.BatchID != nil {
		b := *t.BatchID
		c.BatchID = &b
	}
	if t.UnitCost != nil {
		u := *t.UnitCost
		c.UnitCost = &u
	}
	return &c
}
