package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

func TestMapError_RestriccionesAValidacion(t *testing.T) {
	cases := map[string]string{
		"inventory_transactions_quantity_check": "quantity",
		"inventory_transactions_batch_fk":       "batch_id",
		"inventory_transactions_product_fk":     "product_id",
		"inventory_transactions_created_by_fk":  "created_by",
	}
	for constraint, field := range cases {
		code := codeCheckViolation
		if constraint != "inventory_transactions_quantity_check" {
			code = codeForeignKeyViolation
		}
		err := mapError("append", fmt.Errorf("exec: %w", &pgconn.PgError{Code: code, ConstraintName: constraint}))

		var vErr *domain.ValidationError
		require.True(t, errors.As(err, &vErr), constraint)
		assert.Equal(t, field, vErr.Field)
	}
}

func TestMapError_StockNegativo(t *testing.T) {
	err := mapError("adjust", &pgconn.PgError{Code: codeCheckViolation, ConstraintName: "batches_current_stock_check"})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestMapError_SerializacionEsConflicto(t *testing.T) {
	for _, code := range []string{codeSerializationFailure, codeDeadlockDetected} {
		err := mapError("commit transaction", &pgconn.PgError{Code: code})
		assert.ErrorIs(t, err, domain.ErrConflict)

		var cErr *domain.ConflictError
		require.True(t, errors.As(err, &cErr))
		assert.Equal(t, "commit transaction", cErr.Op)
		assert.Contains(t, err.Error(), "commit transaction")
	}
}

func TestWithBatch_CompletaElLote(t *testing.T) {
	err := withBatch(mapError("lock batch", &pgconn.PgError{Code: codeDeadlockDetected}), "B1")

	var cErr *domain.ConflictError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, "B1", cErr.BatchID)
	assert.Equal(t, "lock batch", cErr.Op)
	assert.Contains(t, err.Error(), "B1")

	kept := withBatch(&domain.ConflictError{BatchID: "B2", Expected: 4}, "B1")
	assert.Contains(t, kept.Error(), "B2")

	assert.NoError(t, withBatch(nil, "B1"))
	other := errors.New("otro")
	assert.Same(t, other, withBatch(other, "B1"))
}

func TestMapError_RestoEsStorage(t *testing.T) {
	cause := errors.New("connection reset")
	err := mapError("list", cause)

	var sErr *domain.StorageError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "list", sErr.Op)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, mapError("list", nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: codeUniqueViolation}))
	assert.False(t, isUniqueViolation(errors.New("23505 en el texto no cuenta")))
}
