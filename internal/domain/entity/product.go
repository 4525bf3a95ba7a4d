package entity

import "time"

// Product es de solo lectura para el ledger: se crea fuera de este servicio.
type Product struct {
	ID        string
	Code      string // product_code
	Name      string // product_name
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
