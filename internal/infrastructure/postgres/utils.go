package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// constraintFields relaciona cada restricción con el campo de entrada que la viola.
var constraintFields = map[string]struct{ field, reason string }{
	"inventory_transactions_quantity_check":  {"quantity", "debe ser un entero positivo"},
	"inventory_transactions_type_check":      {"type", "tipo de transacción desconocido"},
	"inventory_transactions_unit_cost_check": {"unit_cost", "no puede ser negativo"},
	"inventory_transactions_product_fk":      {"product_id", "el producto no existe"},
	"inventory_transactions_batch_fk":        {"batch_id", "el lote no existe o no pertenece al producto"},
	"inventory_transactions_created_by_fk":   {"created_by", "el usuario no existe"},
}

// mapError traduce errores de PostgreSQL a la taxonomía de dominio; el resto queda como StorageError.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeCheckViolation, codeForeignKeyViolation:
			if f, ok := constraintFields[pgErr.ConstraintName]; ok {
				return domain.NewValidationError(f.field, f.reason)
			}
			if pgErr.ConstraintName == "batches_current_stock_check" {
				return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, pgErr.Message)
			}
		case codeSerializationFailure, codeDeadlockDetected:
			return &domain.ConflictError{Op: op}
		}
	}
	return domain.WrapStorage(op, err)
}

// withBatch completa el lote de un ConflictError que salió de mapError sin él.
func withBatch(err error, batchID string) error {
	var cErr *domain.ConflictError
	if errors.As(err, &cErr) && cErr.BatchID == "" {
		cErr.BatchID = batchID
	}
	return err
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
