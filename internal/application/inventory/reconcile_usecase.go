package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// BatchDrift: lote cuyo contador no coincide con la suma de su ledger.
type BatchDrift struct {
	BatchID      string
	ProductID    string
	CurrentStock int64
	LedgerStock  int64
	Difference   int64 // CurrentStock - LedgerStock
}

type ReconciliationReport struct {
	CheckedAt      time.Time
	BatchesChecked int
	Drifts         []BatchDrift
}

func (r *ReconciliationReport) Consistent() bool { return len(r.Drifts) == 0 }

// ReconcileUseCase recalcula el stock de cada lote desde el ledger y reporta diferencias.
// No corrige nada: el stock solo cambia registrando transacciones.
type ReconcileUseCase struct {
	repo    repository.ReconciliationRepository
	metrics Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewReconcileUseCase(repo repository.ReconciliationRepository, metrics Metrics, log *logger.Logger) *ReconcileUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileUseCase{repo: repo, metrics: metrics, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (uc *ReconcileUseCase) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	balances, err := uc.repo.LedgerBalances(ctx)
	if err != nil {
		return nil, domain.WrapStorage("ledger balances", err)
	}

	report := &ReconciliationReport{CheckedAt: uc.now(), BatchesChecked: len(balances), Drifts: []BatchDrift{}}
	for _, b := range balances {
		if b.CurrentStock == b.LedgerStock {
			continue
		}
		report.Drifts = append(report.Drifts, BatchDrift{
			BatchID:      b.BatchID,
			ProductID:    b.ProductID,
			CurrentStock: b.CurrentStock,
			LedgerStock:  b.LedgerStock,
			Difference:   b.CurrentStock - b.LedgerStock,
		})
	}

	uc.metrics.SetDriftBatches(len(report.Drifts))
	for _, d := range report.Drifts {
		uc.log.Warn().
			Str("batch_id", d.BatchID).
			Int64("current_stock", d.CurrentStock).
			Int64("ledger_stock", d.LedgerStock).
			Msg("stock del lote no cuadra con el ledger")
	}
	return report, nil
}
