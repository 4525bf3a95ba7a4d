package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.OutboxRepository = (*OutboxRepo)(nil)

// OutboxRepo: inventory_outbox, escrita en la misma tx que el asiento.
type OutboxRepo struct {
	q Querier
}

func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

func (r *OutboxRepo) Add(ctx context.Context, evt *entity.OutboxEvent) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_outbox (id, event_type, aggregate_id, partition_key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		evt.ID, evt.EventType, evt.AggregateID, evt.Key, evt.Payload, evt.CreatedAt,
	)
	return mapError("add outbox event", err)
}

func (r *OutboxRepo) ListPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, event_type, aggregate_id, partition_key, payload, created_at
		FROM inventory_outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, mapError("list outbox", err)
	}
	defer rows.Close()

	out := make([]*entity.OutboxEvent, 0)
	for rows.Next() {
		var e entity.OutboxEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.AggregateID, &e.Key, &e.Payload, &e.CreatedAt); err != nil {
			return nil, mapError("scan outbox", err)
		}
		out = append(out, &e)
	}
	return out, mapError("list outbox", rows.Err())
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		UPDATE inventory_outbox SET published_at = $2
		WHERE id = ANY($1) AND published_at IS NULL`, ids, at)
	return mapError("mark outbox published", err)
}
