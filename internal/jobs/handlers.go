package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// Reconciler es la parte de ReconcileUseCase que usa el worker.
type Reconciler interface {
	Reconcile(ctx context.Context) (*inventory.ReconciliationReport, error)
}

// Relayer es la parte de OutboxRelayUseCase que usa el worker.
type Relayer interface {
	RelayPending(ctx context.Context) (int, error)
}

// Handlers conecta las tareas asynq con los casos de uso del ledger.
type Handlers struct {
	reconciler Reconciler
	relayer    Relayer
	log        *logger.Logger
}

func NewHandlers(reconciler Reconciler, relayer Relayer, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{reconciler: reconciler, relayer: relayer, log: log.Component("jobs")}
}

// TaskHandlers devuelve el registro para NewWorker; omite los casos de uso ausentes.
func (h *Handlers) TaskHandlers() []TaskHandler {
	var out []TaskHandler
	if h.reconciler != nil {
		out = append(out, TaskHandler{Type: TaskReconcile, Handler: h.HandleReconcile})
	}
	if h.relayer != nil {
		out = append(out, TaskHandler{Type: TaskOutboxRelay, Handler: h.HandleOutboxRelay})
	}
	return out
}

// HandleReconcile solo informa la deriva; nunca corrige stock.
func (h *Handlers) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	payload, err := decodeScheduled(t)
	if err != nil {
		return fmt.Errorf("payload inválido: %v: %w", err, asynq.SkipRetry)
	}
	report, err := h.reconciler.Reconcile(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	ev := h.log.Info()
	if !report.Consistent() {
		ev = h.log.Warn()
	}
	ev.Time("scheduled_for", payload.ScheduledFor).
		Int("batches_checked", report.BatchesChecked).
		Int("drifts", len(report.Drifts)).
		Msg("conciliación terminada")
	return nil
}

func (h *Handlers) HandleOutboxRelay(ctx context.Context, t *asynq.Task) error {
	if _, err := decodeScheduled(t); err != nil {
		return fmt.Errorf("payload inválido: %v: %w", err, asynq.SkipRetry)
	}
	n, err := h.relayer.RelayPending(ctx)
	if n > 0 {
		h.log.Info().Int("published", n).Msg("outbox publicado")
	}
	if err != nil {
		return fmt.Errorf("outbox relay: %w", err)
	}
	return nil
}
