package inventory_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

// ─── Escenarios ──────────────────────────────────────────────────────────────

func TestRecordTransaction_CompraSumaStock(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})

	tx, err := uc.RecordTransaction(context.Background(), purchase("B1", 5))
	require.NoError(t, err)

	assert.Equal(t, int64(15), stockOf(t, s, "B1"))
	assert.Equal(t, entity.TransactionTypePurchase, tx.Type)
	assert.Equal(t, int64(5), tx.Quantity)
	assert.Equal(t, "U1", tx.CreatedBy)
	assert.NotEmpty(t, tx.ID)
	require.Len(t, ledgerOf(t, s), 1)
}

func TestRecordTransaction_VentaSinStockSeRechaza(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})
	_, err := uc.RecordTransaction(context.Background(), purchase("B1", 5))
	require.NoError(t, err)

	_, err = uc.RecordTransaction(context.Background(), sale("B1", 20))

	var sErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "B1", sErr.BatchID)
	assert.Equal(t, int64(15), sErr.Available)
	assert.Equal(t, int64(20), sErr.Requested)
	assert.Equal(t, int64(15), stockOf(t, s, "B1"))
	assert.Len(t, ledgerOf(t, s), 1)
}

func TestRecordTransaction_CantidadCeroSeRechaza(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})

	_, err := uc.RecordTransaction(context.Background(), purchase("B1", 0))

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "quantity", vErr.Field)
	assert.Empty(t, ledgerOf(t, s))
	assert.Equal(t, int64(10), stockOf(t, s, "B1"))
}

func TestRecordTransaction_AjusteSinLote(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})
	in := purchase("", 3)
	in.Type = entity.TransactionTypeAdjustment

	tx, err := uc.RecordTransaction(context.Background(), in)
	require.NoError(t, err)

	assert.Nil(t, tx.BatchID)
	assert.Equal(t, int64(10), stockOf(t, s, "B1"))
	assert.Equal(t, int64(0), stockOf(t, s, "B2"))
	require.Len(t, ledgerOf(t, s), 1)
}

func TestRecordTransaction_HistorialTrasCompraYRechazo(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})
	query := inventory.NewQueryUseCase(s.Transactions(), s.Batches(), s.Products(), s.Users(), nil, nil)

	recorded, err := uc.RecordTransaction(context.Background(), purchase("B1", 5))
	require.NoError(t, err)
	_, err = uc.RecordTransaction(context.Background(), purchase("B1", 0))
	require.Error(t, err)

	history, err := query.History(context.Background(), repository.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, recorded.ID, history[0].Transaction.ID)
}

func TestRecordTransaction_AjusteEsAditivo(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})
	in := purchase("B1", 4)
	in.Type = entity.TransactionTypeAdjustment

	_, err := uc.RecordTransaction(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(14), stockOf(t, s, "B1"))
}

// ─── Validación ──────────────────────────────────────────────────────────────

func TestRecordTransaction_Validaciones(t *testing.T) {
	cases := []struct {
		name  string
		mod   func(*inventory.RecordTransactionInput)
		field string
	}{
		{"tipo desconocido", func(in *inventory.RecordTransactionInput) { in.Type = "transfer" }, "type"},
		{"cantidad negativa", func(in *inventory.RecordTransactionInput) { in.Quantity = -1 }, "quantity"},
		{"sin producto", func(in *inventory.RecordTransactionInput) { in.ProductID = "" }, "product_id"},
		{"producto inexistente", func(in *inventory.RecordTransactionInput) { in.ProductID = "NOPE"; in.BatchID = nil }, "product_id"},
		{"producto inactivo", func(in *inventory.RecordTransactionInput) { in.ProductID = "P3"; in.BatchID = nil }, "product_id"},
		{"lote inexistente", func(in *inventory.RecordTransactionInput) { in.BatchID = strPtr("NOPE") }, "batch_id"},
		{"lote de otro producto", func(in *inventory.RecordTransactionInput) { in.BatchID = strPtr("B2") }, "batch_id"},
		{"sin actor", func(in *inventory.RecordTransactionInput) { in.ActorID = "" }, "created_by"},
		{"actor suspendido", func(in *inventory.RecordTransactionInput) { in.ActorID = "U2" }, "created_by"},
		{"actor desconocido", func(in *inventory.RecordTransactionInput) { in.ActorID = "ghost" }, "created_by"},
		{"sin fecha", func(in *inventory.RecordTransactionInput) { in.TransactionDate = time.Time{} }, "transaction_date"},
		{"referencia larga", func(in *inventory.RecordTransactionInput) { in.ReferenceNumber = strings.Repeat("x", 101) }, "reference_number"},
		{"notas largas", func(in *inventory.RecordTransactionInput) { in.Notes = strings.Repeat("ñ", 1001) }, "notes"},
		{"costo negativo", func(in *inventory.RecordTransactionInput) { c := decimal.NewFromInt(-1); in.UnitCost = &c }, "unit_cost"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := seedStore(t)
			uc := newRecorder(s, nil, inventory.RecordOptions{})
			in := purchase("B1", 2)
			tc.mod(&in)

			_, err := uc.RecordTransaction(context.Background(), in)

			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr), "error: %v", err)
			assert.Equal(t, tc.field, vErr.Field)
			assert.Empty(t, ledgerOf(t, s))
			assert.Equal(t, int64(10), stockOf(t, s, "B1"))
		})
	}
}

func TestRecordTransaction_LoteInactivoAceptaMovimientos(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})

	_, err := uc.RecordTransaction(context.Background(), purchase("BX", 3))
	require.NoError(t, err)
	assert.Equal(t, int64(8), stockOf(t, s, "BX"))

	_, err = uc.RecordTransaction(context.Background(), sale("BX", 8))
	require.NoError(t, err)
	assert.Equal(t, int64(0), stockOf(t, s, "BX"))
	assert.Len(t, ledgerOf(t, s), 2)
}

func TestRecordTransaction_CompraQueDesbordaElStock(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})

	_, err := uc.RecordTransaction(context.Background(), purchase("B1", math.MaxInt64))

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr), "error: %v", err)
	assert.Equal(t, "quantity", vErr.Field)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(10), stockOf(t, s, "B1"))
	assert.Empty(t, ledgerOf(t, s))
}

func TestRecordTransaction_NormalizaEntrada(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})
	in := purchase("  ", 1)
	in.Type = "  Purchase "
	in.ReferenceNumber = "  OC-77 "

	tx, err := uc.RecordTransaction(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, entity.TransactionTypePurchase, tx.Type)
	assert.Nil(t, tx.BatchID)
	assert.Equal(t, "OC-77", tx.ReferenceNumber)
}

// ─── Atomicidad ──────────────────────────────────────────────────────────────

func TestRecordTransaction_FalloEntreAsientoYLoteNoDejaRastro(t *testing.T) {
	s := seedStore(t)
	runner := &faultyRunner{
		inner:   memory.NewTxRunner(s),
		batches: func(b repository.BatchRepository) repository.BatchRepository { return failingAdjust{b} },
	}
	uc := newRecorder(s, runner, inventory.RecordOptions{})

	_, err := uc.RecordTransaction(context.Background(), purchase("B1", 5))

	var stErr *domain.StorageError
	require.True(t, errors.As(err, &stErr))
	assert.ErrorIs(t, err, errDiskFull)
	assert.Empty(t, ledgerOf(t, s))
	assert.Equal(t, int64(10), stockOf(t, s, "B1"))
	pending, _ := s.Outbox().ListPending(context.Background(), 0)
	assert.Empty(t, pending)
}

func TestRecordTransaction_FalloEnOutboxRevierteTodo(t *testing.T) {
	s := seedStore(t)
	runner := &faultyRunner{
		inner:  memory.NewTxRunner(s),
		outbox: func(o repository.OutboxRepository) repository.OutboxRepository { return failingOutbox{o} },
	}
	uc := newRecorder(s, runner, inventory.RecordOptions{})

	_, err := uc.RecordTransaction(context.Background(), sale("B1", 3))

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Empty(t, ledgerOf(t, s))
	assert.Equal(t, int64(10), stockOf(t, s, "B1"))
}

func TestRecordTransaction_EscribeEventoDeOutbox(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})

	tx, err := uc.RecordTransaction(context.Background(), sale("B1", 3))
	require.NoError(t, err)

	pending, err := s.Outbox().ListPending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, entity.EventTransactionRecorded, pending[0].EventType)
	assert.Equal(t, tx.ID, pending[0].AggregateID)
	assert.Equal(t, "P1", pending[0].Key)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(pending[0].Payload, &payload))
	assert.EqualValues(t, -3, payload["delta"])
	assert.Equal(t, "B1", payload["batch_id"])
}

// ─── Inmutabilidad ───────────────────────────────────────────────────────────

func TestRecordTransaction_ResultadoNoAlteraElLedger(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})
	cost := decimal.RequireFromString("12.50")
	in := purchase("B1", 2)
	in.UnitCost = &cost

	tx, err := uc.RecordTransaction(context.Background(), in)
	require.NoError(t, err)

	tx.Quantity = 999
	*tx.BatchID = "B2"
	*tx.UnitCost = decimal.NewFromInt(1)
	cost = decimal.NewFromInt(7)
	_, err = uc.RecordTransaction(context.Background(), purchase("B1", 1))
	require.NoError(t, err)

	stored, err := s.Transactions().GetByID(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Quantity)
	assert.Equal(t, "B1", *stored.BatchID)
	assert.True(t, stored.UnitCost.Equal(decimal.RequireFromString("12.50")))
}

// ─── Concurrencia ────────────────────────────────────────────────────────────

func TestRecordTransaction_ConcurrenciaSinActualizacionesPerdidas(t *testing.T) {
	s := seedStore(t)
	s.PutBatch(entity.Batch{ID: "B9", ProductID: "P1", CurrentStock: 100, IsActive: true})
	uc := newRecorder(s, nil, inventory.RecordOptions{})

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := purchase("B9", 3)
			if i%2 == 1 {
				in = sale("B9", 2)
			}
			_, err := uc.RecordTransaction(context.Background(), in)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 100 + 25×3 − 25×2
	assert.Equal(t, int64(125), stockOf(t, s, "B9"))

	var sum int64
	for _, tx := range ledgerOf(t, s) {
		if tx.HasBatch() && *tx.BatchID == "B9" {
			if tx.Type == entity.TransactionTypeSale {
				sum -= tx.Quantity
			} else {
				sum += tx.Quantity
			}
		}
	}
	assert.Equal(t, int64(25), sum)
	assert.Equal(t, int64(100)+sum, stockOf(t, s, "B9"))
}

func TestRecordTransaction_VentasConcurrentesNoSobregiran(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})

	// 10 en stock, 8 ventas de 2: solo 5 pueden entrar
	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, rejected := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.RecordTransaction(context.Background(), sale("B1", 2))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 3, rejected)
	assert.Equal(t, int64(0), stockOf(t, s, "B1"))
	assert.Len(t, ledgerOf(t, s), 5)
}

func TestRecordTransaction_ReintentaAnteConflicto(t *testing.T) {
	s := seedStore(t)
	spy := newMetricsSpy()
	uc := newRecorder(s, staleRunner(s, 2), inventory.RecordOptions{MaxAttempts: 3, Metrics: spy})

	_, err := uc.RecordTransaction(context.Background(), purchase("B1", 5))
	require.NoError(t, err)

	assert.Equal(t, int64(15), stockOf(t, s, "B1"))
	assert.Len(t, ledgerOf(t, s), 1)
	assert.Equal(t, 2, spy.retries)
	assert.Equal(t, 1, spy.outcomes["recorded"])
}

func TestRecordTransaction_ConflictoAgotaReintentos(t *testing.T) {
	s := seedStore(t)
	spy := newMetricsSpy()
	uc := newRecorder(s, staleRunner(s, 10), inventory.RecordOptions{MaxAttempts: 3, Metrics: spy})

	_, err := uc.RecordTransaction(context.Background(), purchase("B1", 5))

	var cErr *domain.ConflictError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, "B1", cErr.BatchID)
	assert.Equal(t, 2, spy.retries)
	assert.Equal(t, 1, spy.outcomes["conflict"])
	assert.Empty(t, ledgerOf(t, s))
	assert.Equal(t, int64(10), stockOf(t, s, "B1"))
}

// abortingRunner simula una transacción que la base aborta por serialización.
type abortingRunner struct{ calls int }

func (r *abortingRunner) Run(context.Context, func(
	repository.TransactionRepository,
	repository.BatchRepository,
	repository.OutboxRepository,
) error) error {
	r.calls++
	return &domain.ConflictError{Op: "commit transaction"}
}

func TestRecordTransaction_ConflictoDeSerializacionIndicaLote(t *testing.T) {
	s := seedStore(t)
	runner := &abortingRunner{}
	uc := newRecorder(s, runner, inventory.RecordOptions{MaxAttempts: 2})

	_, err := uc.RecordTransaction(context.Background(), purchase("B1", 5))

	var cErr *domain.ConflictError
	require.True(t, errors.As(err, &cErr))
	assert.Equal(t, "B1", cErr.BatchID)
	assert.Equal(t, "commit transaction", cErr.Op)
	assert.Contains(t, err.Error(), "B1")
	assert.Equal(t, 2, runner.calls)
}

func TestJitteredBackoff_Acotado(t *testing.T) {
	first := inventory.JitteredBackoff(1)
	assert.GreaterOrEqual(t, first, 10*time.Millisecond)
	assert.Less(t, first, 20*time.Millisecond)

	ceiling := 10*time.Millisecond<<10 + 10*time.Millisecond
	for _, attempt := range []int{11, 40, 64, 1000} {
		d := inventory.JitteredBackoff(attempt)
		assert.Positive(t, d, "intento %d", attempt)
		assert.Less(t, d, ceiling, "intento %d", attempt)
	}
	assert.GreaterOrEqual(t, inventory.JitteredBackoff(0), time.Duration(0))
}

func TestRecordTransaction_ContextoCanceladoEsStorage(t *testing.T) {
	s := seedStore(t)
	uc := newRecorder(s, nil, inventory.RecordOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := uc.RecordTransaction(ctx, purchase("B1", 1))
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ledgerOf(t, s))
}

func TestRecordTransaction_InvalidaCacheDelProducto(t *testing.T) {
	s := seedStore(t)
	cache := newCacheSpy()
	uc := newRecorder(s, nil, inventory.RecordOptions{Cache: cache})

	_, err := uc.RecordTransaction(context.Background(), purchase("B1", 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, cache.invalidated)

	// sin lote no hay nada que invalidar
	_, err = uc.RecordTransaction(context.Background(), purchase("", 1))
	require.NoError(t, err)
	assert.Len(t, cache.invalidated, 1)
}
