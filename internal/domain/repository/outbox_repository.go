package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// OutboxRepository persiste eventos pendientes de publicar.
type OutboxRepository interface {
	Add(ctx context.Context, evt *entity.OutboxEvent) error
	// ListPending devuelve los no publicados en orden de creación.
	ListPending(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}
