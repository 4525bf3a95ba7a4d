package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, con repositorios atados a ella.
// Si fn devuelve error se hace rollback: ni asiento, ni ajuste de stock, ni evento.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledger repository.TransactionRepository,
		batches repository.BatchRepository,
		outbox repository.OutboxRepository,
	) error) error
}

// BatchCache guarda la lista de lotes disponibles por producto. Es opcional.
type BatchCache interface {
	GetAvailable(ctx context.Context, productID string) ([]*entity.Batch, bool, error)
	SetAvailable(ctx context.Context, productID string, batches []*entity.Batch) error
	Invalidate(ctx context.Context, productID string) error
}

// EventPublisher entrega eventos del outbox al broker.
type EventPublisher interface {
	Publish(ctx context.Context, events []*entity.OutboxEvent) error
}

// StatementRenderer convierte un extracto del ledger en un documento (PDF).
type StatementRenderer interface {
	RenderStatement(data StatementData) ([]byte, error)
}

// Metrics recibe las observaciones del ledger.
type Metrics interface {
	ObserveRecord(txType, outcome string, elapsed time.Duration)
	ObserveConflictRetry(txType string)
	SetDriftBatches(n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRecord(string, string, time.Duration) {}
func (noopMetrics) ObserveConflictRetry(string)                 {}
func (noopMetrics) SetDriftBatches(int)                         {}
