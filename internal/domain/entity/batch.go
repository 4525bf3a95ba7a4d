package entity

import "time"

// Batch es un lote de un producto con su propio contador de stock.
// CurrentStock es un valor derivado: la suma de los deltas del ledger que lo referencian.
type Batch struct {
	ID           string
	ProductID    string
	BatchNumber  string
	CurrentStock int64
	IsActive     bool
	ExpiryDate   *time.Time
	StockedAt    *time.Time // última vez que entró stock
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAvailable: activo y con stock.
func (b *Batch) IsAvailable() bool {
	return b.IsActive && b.CurrentStock > 0
}

// LastStocked devuelve StockedAt o, si nunca entró stock, CreatedAt.
func (b *Batch) LastStocked() time.Time {
	if b.StockedAt != nil {
		return *b.StockedAt
	}
	return b.CreatedAt
}

func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	c := *b
	if b.ExpiryDate != nil {
		e := *b.ExpiryDate
		c.ExpiryDate = &e
	}
	if b.StockedAt != nil {
		s := *b.StockedAt
		c.StockedAt = &s
	}
	return &c
}
