package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

func TestTransactionRepo_ListSinFiltros(t *testing.T) {
	q := &querierSpy{}
	_, err := NewTransactionRepository(q).List(context.Background(), repository.TransactionFilter{})
	assert.ErrorIs(t, err, domain.ErrStorage)

	call := q.last()
	assert.NotContains(t, call.sql, "WHERE")
	assert.NotContains(t, call.sql, "LIMIT")
	assert.True(t, strings.HasSuffix(call.sql, "ORDER BY transaction_date DESC, created_at DESC, id DESC"), call.sql)
	assert.Empty(t, call.args)
}

func TestTransactionRepo_ListArmaFiltrosEnOrden(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 31, 23, 59, 59, 0, time.UTC)
	q := &querierSpy{}

	_, _ = NewTransactionRepository(q).List(context.Background(), repository.TransactionFilter{
		ProductID: "P1",
		BatchID:   "B1",
		Type:      "sale",
		From:      &from,
		To:        &to,
		Limit:     50,
		Offset:    100,
	})

	call := q.last()
	assert.Contains(t, call.sql,
		" WHERE product_id = $1 AND batch_id = $2 AND type = $3 AND transaction_date >= $4 AND transaction_date <= $5 ")
	assert.True(t, strings.HasSuffix(call.sql, "ORDER BY transaction_date DESC, created_at DESC, id DESC LIMIT $6 OFFSET $7"), call.sql)
	assert.Equal(t, []any{"P1", "B1", "sale", from, to, 50, 100}, call.args)
}

func TestTransactionRepo_ListPorLote(t *testing.T) {
	q := &querierSpy{}
	_, _ = NewTransactionRepository(q).ListByBatch(context.Background(), "B9")

	call := q.last()
	assert.Contains(t, call.sql, " WHERE batch_id = $1 ORDER BY")
	assert.Equal(t, []any{"B9"}, call.args)
}
