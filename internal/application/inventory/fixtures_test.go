package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

var fixedNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func noBackoff(int) time.Duration { return 0 }

// seedStore: P1 activo con lote B1 (stock 10), P2 activo sin lotes, P3 inactivo, U1 activo, U2 suspendido.
func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewStore()
	s.SetClock(func() time.Time { return fixedNow })
	s.PutProduct(entity.Product{ID: "P1", Code: "AMX-500", Name: "Amoxicilina 500mg", IsActive: true})
	s.PutProduct(entity.Product{ID: "P2", Code: "IBU-400", Name: "Ibuprofeno 400mg", IsActive: true})
	s.PutProduct(entity.Product{ID: "P3", Code: "OLD-001", Name: "Descontinuado", IsActive: false})
	s.PutBatch(entity.Batch{ID: "B1", ProductID: "P1", BatchNumber: "L-001", CurrentStock: 10, IsActive: true})
	s.PutBatch(entity.Batch{ID: "B2", ProductID: "P2", BatchNumber: "L-002", CurrentStock: 0, IsActive: true})
	s.PutBatch(entity.Batch{ID: "BX", ProductID: "P1", BatchNumber: "L-X", CurrentStock: 5, IsActive: false})
	s.PutUser(entity.User{ID: "U1", Name: "Ana Gómez", Email: "ana@example.com", Status: entity.UserStatusActive})
	s.PutUser(entity.User{ID: "U2", Name: "Luis Pérez", Email: "luis@example.com", Status: entity.UserStatusSuspended})
	return s
}

func newRecorder(s *memory.Store, runner inventory.TxRunner, opts inventory.RecordOptions) *inventory.RecordTransactionUseCase {
	if runner == nil {
		runner = memory.NewTxRunner(s)
	}
	if opts.Backoff == nil {
		opts.Backoff = noBackoff
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return fixedNow }
	}
	return inventory.NewRecordTransactionUseCase(runner, s.Products(), s.Batches(), s.Users(), opts)
}

func purchase(batchID string, qty int64) inventory.RecordTransactionInput {
	in := inventory.RecordTransactionInput{
		Type:            entity.TransactionTypePurchase,
		ProductID:       "P1",
		Quantity:        qty,
		TransactionDate: fixedNow,
		ActorID:         "U1",
	}
	if batchID != "" {
		in.BatchID = strPtr(batchID)
	}
	return in
}

func sale(batchID string, qty int64) inventory.RecordTransactionInput {
	in := purchase(batchID, qty)
	in.Type = entity.TransactionTypeSale
	return in
}

func stockOf(t *testing.T, s *memory.Store, batchID string) int64 {
	t.Helper()
	n, err := s.Batches().GetCurrentStock(context.Background(), batchID)
	if err != nil {
		t.Fatalf("stock de %s: %v", batchID, err)
	}
	return n
}

func ledgerOf(t *testing.T, s *memory.Store) []*entity.Transaction {
	t.Helper()
	txs, err := s.Transactions().List(context.Background(), repository.TransactionFilter{})
	if err != nil {
		t.Fatalf("listar ledger: %v", err)
	}
	return txs
}

// ─── Dobles de prueba ────────────────────────────────────────────────────────

// faultyRunner envuelve el TxRunner real y sustituye los repos que ve el caso de uso.
type faultyRunner struct {
	inner   inventory.TxRunner
	batches func(repository.BatchRepository) repository.BatchRepository
	outbox  func(repository.OutboxRepository) repository.OutboxRepository
}

func (r *faultyRunner) Run(ctx context.Context, fn func(
	ledger repository.TransactionRepository,
	batches repository.BatchRepository,
	outbox repository.OutboxRepository,
) error) error {
	return r.inner.Run(ctx, func(l repository.TransactionRepository, b repository.BatchRepository, o repository.OutboxRepository) error {
		if r.batches != nil {
			b = r.batches(b)
		}
		if r.outbox != nil {
			o = r.outbox(o)
		}
		return fn(l, b, o)
	})
}

var errDiskFull = errors.New("disco lleno")

// failingAdjust falla la actualización del lote, después de que el asiento ya está en staging.
type failingAdjust struct {
	repository.BatchRepository
}

func (f failingAdjust) ConditionalAdjust(context.Context, string, int64, int64) error {
	return errDiskFull
}

type failingOutbox struct {
	repository.OutboxRepository
}

func (failingOutbox) Add(context.Context, *entity.OutboxEvent) error { return errDiskFull }

// staleReads devuelve un stock desactualizado en las primeras 'lies' lecturas con bloqueo,
// como si otro escritor hubiera confirmado entre la lectura y el CAS.
type staleReads struct {
	repository.BatchRepository
	mu   *sync.Mutex
	lies *int
}

func (s staleReads) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	b, err := s.BatchRepository.GetForUpdate(ctx, id)
	if err != nil || b == nil {
		return b, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if *s.lies > 0 {
		*s.lies--
		b.CurrentStock += 100
	}
	return b, nil
}

func staleRunner(s *memory.Store, lies int) *faultyRunner {
	mu := &sync.Mutex{}
	return &faultyRunner{
		inner: memory.NewTxRunner(s),
		batches: func(b repository.BatchRepository) repository.BatchRepository {
			return staleReads{BatchRepository: b, mu: mu, lies: &lies}
		},
	}
}

type metricsSpy struct {
	mu       sync.Mutex
	outcomes map[string]int
	retries  int
	drift    int
}

func newMetricsSpy() *metricsSpy { return &metricsSpy{outcomes: map[string]int{}} }

func (m *metricsSpy) ObserveRecord(_ string, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome]++
}

func (m *metricsSpy) ObserveConflictRetry(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

func (m *metricsSpy) SetDriftBatches(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drift = n
}

// cacheSpy es una BatchCache en memoria que registra invalidaciones.
type cacheSpy struct {
	mu          sync.Mutex
	data        map[string][]*entity.Batch
	gets        int
	invalidated []string
}

func newCacheSpy() *cacheSpy { return &cacheSpy{data: map[string][]*entity.Batch{}} }

func (c *cacheSpy) GetAvailable(_ context.Context, productID string) ([]*entity.Batch, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.data[productID]
	return v, ok, nil
}

func (c *cacheSpy) SetAvailable(_ context.Context, productID string, batches []*entity.Batch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[productID] = batches
	return nil
}

func (c *cacheSpy) Invalidate(_ context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, productID)
	c.invalidated = append(c.invalidated, productID)
	return nil
}
