package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

type OutboxRepo struct {
	s *Store
	u *unitOfWork
}

func (r *OutboxRepo) Add(ctx context.Context, evt *entity.OutboxEvent) error {
	c := *evt
	c.Payload = append([]byte(nil), evt.Payload...)
	if r.u != nil {
		r.u.events = append(r.u.events, &c)
		return nil
	}
	return r.s.atomically(func(u *unitOfWork) error {
		u.events = append(u.events, &c)
		return nil
	})
}

func (r *OutboxRepo) ListPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.OutboxEvent
	for _, e := range r.s.outbox {
		if e.PublishedAt != nil {
			continue
		}
		c := *e
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.outbox {
		if _, ok := set[e.ID]; ok && e.PublishedAt == nil {
			t := at
			e.PublishedAt = &t
		}
	}
	return nil
}
