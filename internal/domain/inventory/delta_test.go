package inventory_test

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
)

func TestSignedDelta_PorTipo(t *testing.T) {
	cases := []struct {
		txType string
		want   int64
	}{
		{entity.TransactionTypePurchase, 5},
		{entity.TransactionTypeAdjustment, 5},
		{entity.TransactionTypeSale, -5},
	}
	for _, tc := range cases {
		t.Run(tc.txType, func(t *testing.T) {
			got, err := inventory.SignedDelta(tc.txType, 5)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSignedDelta_CantidadNoPositiva(t *testing.T) {
	for _, q := range []int64{0, -3} {
		_, err := inventory.SignedDelta(entity.TransactionTypePurchase, q)
		var vErr *domain.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "quantity", vErr.Field)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
}

func TestSignedDelta_TipoDesconocido(t *testing.T) {
	_, err := inventory.SignedDelta("transfer", 1)
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "type", vErr.Field)
}

func TestApplyDelta(t *testing.T) {
	next, err := inventory.ApplyDelta("B1", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), next)

	next, err = inventory.ApplyDelta("B1", 15, -15)
	require.NoError(t, err)
	assert.Equal(t, int64(0), next)

	next, err = inventory.ApplyDelta("B1", 15, -20)
	var sErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, int64(15), next)
	assert.Equal(t, int64(15), sErr.Available)
	assert.Equal(t, int64(20), sErr.Requested)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestApplyDelta_DesbordeEsValidacion(t *testing.T) {
	next, err := inventory.ApplyDelta("B1", 10, math.MaxInt64)
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "quantity", vErr.Field)
	assert.Equal(t, int64(10), next)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)

	next, err = inventory.ApplyDelta("B1", 0, math.MaxInt64)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), next)
}

func TestWeightedAverageCost(t *testing.T) {
	// 10 u a 100 + 10 u a 200 = 150
	got := inventory.WeightedAverageCost(
		decimal.NewFromInt(10), decimal.NewFromInt(100),
		decimal.NewFromInt(10), decimal.NewFromInt(200),
	)
	assert.True(t, got.Equal(decimal.NewFromInt(150)), got.String())

	assert.True(t, inventory.WeightedAverageCost(decimal.Zero, decimal.Zero, decimal.Zero, decimal.NewFromInt(5)).IsZero())
}
