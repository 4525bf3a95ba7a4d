package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TransactionRepo es el ledger en memoria. Con u != nil opera dentro de una unidad de trabajo.
type TransactionRepo struct {
	s *Store
	u *unitOfWork
}

func (r *TransactionRepo) Append(ctx context.Context, tx *entity.Transaction) (string, error) {
	if r.u != nil {
		return r.u.appendTransaction(tx)
	}
	var id string
	err := r.s.atomically(func(u *unitOfWork) error {
		var err error
		id, err = u.appendTransaction(tx)
		return err
	})
	return id, err
}

func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	for _, tx := range r.snapshot() {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, nil
}

func (r *TransactionRepo) List(ctx context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	all := r.snapshot()
	out := make([]*entity.Transaction, 0, len(all))
	for _, tx := range all {
		if matches(tx, f) {
			out = append(out, tx)
		}
	}
	sortLedger(out)

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*entity.Transaction{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *TransactionRepo) ListByBatch(ctx context.Context, batchID string) ([]*entity.Transaction, error) {
	return r.List(ctx, repository.TransactionFilter{BatchID: batchID})
}

// snapshot copia el ledger confirmado más lo que esté en staging en la unidad actual.
func (r *TransactionRepo) snapshot() []*entity.Transaction {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.Transaction, 0, len(r.s.txs))
	for _, tx := range r.s.txs {
		out = append(out, tx.Clone())
	}
	if r.u != nil {
		for _, tx := range r.u.txs {
			out = append(out, tx.Clone())
		}
	}
	return out
}

func matches(tx *entity.Transaction, f repository.TransactionFilter) bool {
	if f.ProductID != "" && tx.ProductID != f.ProductID {
		return false
	}
	if f.BatchID != "" && (!tx.HasBatch() || *tx.BatchID != f.BatchID) {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.From != nil && tx.TransactionDate.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.TransactionDate.After(*f.To) {
		return false
	}
	return true
}
