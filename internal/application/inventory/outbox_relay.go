package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// OutboxRelayUseCase publica los eventos pendientes y los marca como publicados.
// Entrega al menos una vez: si falla el marcado, el lote se reenvía en la próxima corrida.
type OutboxRelayUseCase struct {
	outbox    repository.OutboxRepository
	publisher EventPublisher
	batchSize int
	log       *logger.Logger
	now       func() time.Time
}

func NewOutboxRelayUseCase(outbox repository.OutboxRepository, publisher EventPublisher, batchSize int, log *logger.Logger) *OutboxRelayUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OutboxRelayUseCase{
		outbox:    outbox,
		publisher: publisher,
		batchSize: batchSize,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RelayPending devuelve cuántos eventos quedaron publicados.
func (uc *OutboxRelayUseCase) RelayPending(ctx context.Context) (int, error) {
	total := 0
	for {
		events, err := uc.outbox.ListPending(ctx, uc.batchSize)
		if err != nil {
			return total, fmt.Errorf("list pending events: %w", err)
		}
		if len(events) == 0 {
			return total, nil
		}
		if err := uc.publisher.Publish(ctx, events); err != nil {
			return total, fmt.Errorf("publish events: %w", err)
		}

		ids := make([]string, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		if err := uc.outbox.MarkPublished(ctx, ids, uc.now()); err != nil {
			return total, fmt.Errorf("mark published: %w", err)
		}
		total += len(events)
		uc.log.Debug().Int("count", len(events)).Msg("eventos de outbox publicados")

		if len(events) < uc.batchSize {
			return total, nil
		}
	}
}
