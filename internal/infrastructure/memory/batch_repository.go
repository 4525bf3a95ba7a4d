package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// BatchRepo guarda los contadores de stock. Con u != nil ve y acumula ajustes en staging.
type BatchRepo struct {
	s *Store
	u *unitOfWork
}

func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return viewBatch(r.s, r.u, id), nil
}

func (r *BatchRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Batch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Batch, 0, len(ids))
	for _, id := range ids {
		if b := viewBatch(r.s, r.u, id); b != nil {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *BatchRepo) GetCurrentStock(ctx context.Context, id string) (int64, error) {
	b, _ := r.GetByID(ctx, id)
	if b == nil {
		return 0, domain.ErrNotFound
	}
	return b.CurrentStock, nil
}

// GetForUpdate no necesita bloqueo propio: la unidad de trabajo ya es el único escritor.
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.GetByID(ctx, id)
}

func (r *BatchRepo) ConditionalAdjust(ctx context.Context, id string, delta, expectedCurrent int64) error {
	if r.u != nil {
		return r.u.conditionalAdjust(id, delta, expectedCurrent)
	}
	return r.s.atomically(func(u *unitOfWork) error {
		return u.conditionalAdjust(id, delta, expectedCurrent)
	})
}

func (r *BatchRepo) ListAvailableByProduct(ctx context.Context, productID string) ([]*entity.Batch, error) {
	all, _ := r.ListAll(ctx)
	out := make([]*entity.Batch, 0, len(all))
	for _, b := range all {
		if b.ProductID == productID && b.IsAvailable() {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastStocked().After(out[j].LastStocked())
	})
	return out, nil
}

func (r *BatchRepo) ListAll(ctx context.Context) ([]*entity.Batch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Batch, 0, len(r.s.batches))
	for id := range r.s.batches {
		out = append(out, viewBatch(r.s, r.u, id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
