package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

type rendererSpy struct {
	got inventory.StatementData
	err error
}

func (r *rendererSpy) RenderStatement(data inventory.StatementData) ([]byte, error) {
	r.got = data
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-fake"), nil
}

func TestStatement_ArmaHistorialYResumen(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})
	ctx := context.Background()
	for _, in := range []inventory.RecordTransactionInput{purchase("B1", 4), sale("B1", 1)} {
		_, err := uc.RecordTransaction(ctx, in)
		require.NoError(t, err)
	}
	query := inventory.NewQueryUseCase(s.Transactions(), s.Batches(), s.Products(), s.Users(), nil, nil)
	spy := &rendererSpy{}

	doc, err := inventory.NewStatementUseCase(query, spy).Generate(ctx, repository.TransactionFilter{ProductID: "P1"})
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF-fake"), doc)
	assert.Len(t, spy.got.Entries, 2)
	assert.Equal(t, 1, spy.got.Summary.Purchases)
	assert.Equal(t, 1, spy.got.Summary.Sales)
	assert.Equal(t, "P1", spy.got.Filter.ProductID)
	assert.Equal(t, 1000, spy.got.Filter.Limit)
}

func TestStatement_ErrorDelRenderizador(t *testing.T) {
	s := seedStore(t)
	query := inventory.NewQueryUseCase(s.Transactions(), s.Batches(), s.Products(), s.Users(), nil, nil)

	_, err := inventory.NewStatementUseCase(query, &rendererSpy{err: errors.New("fuente faltante")}).
		Generate(context.Background(), repository.TransactionFilter{})
	assert.Error(t, err)
}
