package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrValidation        = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrStorage           = errors.New("fallo de almacenamiento")
)

// ValidationError indica qué campo de la entrada fue rechazado y por qué.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InsufficientStockError: una venta dejaría el lote con stock negativo.
type InsufficientStockError struct {
	BatchID   string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en lote %s: disponible %d, solicitado %d",
		e.BatchID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ConflictError: el stock del lote cambió entre la lectura y la escritura,
// o la base abortó la transacción por serialización o deadlock (Op indica dónde).
type ConflictError struct {
	BatchID  string
	Expected int64
	Op       string
}

func (e *ConflictError) Error() string {
	switch {
	case e.BatchID != "" && e.Op != "":
		return fmt.Sprintf("el lote %s fue modificado concurrentemente (%s)", e.BatchID, e.Op)
	case e.BatchID != "":
		return fmt.Sprintf("el lote %s fue modificado concurrentemente (esperado %d)", e.BatchID, e.Expected)
	case e.Op != "":
		return fmt.Sprintf("conflicto de concurrencia en %s", e.Op)
	}
	return "conflicto de concurrencia"
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// StorageError envuelve una falla del almacenamiento subyacente.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("almacenamiento (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// WrapStorage envuelve err como StorageError salvo que ya sea un error de dominio conocido.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrStorage):
		return err
	}
	return &StorageError{Op: op, Err: err}
}
