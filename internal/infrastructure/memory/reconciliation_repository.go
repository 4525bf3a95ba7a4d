package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

type ReconciliationRepo struct{ s *Store }

// LedgerBalances lee contadores y ledger bajo el mismo bloqueo de lectura.
func (r *ReconciliationRepo) LedgerBalances(ctx context.Context) ([]repository.BatchBalance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	byBatch := make(map[string]*repository.BatchBalance, len(r.s.batches))
	for id, b := range r.s.batches {
		byBatch[id] = &repository.BatchBalance{BatchID: id, ProductID: b.ProductID, CurrentStock: b.CurrentStock}
	}
	for _, tx := range r.s.txs {
		if !tx.HasBatch() {
			continue
		}
		bal, ok := byBatch[*tx.BatchID]
		if !ok {
			continue
		}
		delta, err := inventory.SignedDelta(tx.Type, tx.Quantity)
		if err != nil {
			return nil, err
		}
		bal.LedgerStock += delta
		bal.TransactionCount++
	}

	out := make([]repository.BatchBalance, 0, len(byBatch))
	for _, bal := range byBatch {
		out = append(out, *bal)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out, nil
}

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)
