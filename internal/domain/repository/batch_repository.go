package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// BatchRepository guarda el contador current_stock por lote.
// El stock solo cambia vía ConditionalAdjust, dentro de la misma unidad de trabajo que el asiento del ledger.
type BatchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Batch, error)
	GetCurrentStock(ctx context.Context, id string) (int64, error)
	// GetForUpdate bloquea la fila del lote hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Batch, error)
	// ConditionalAdjust suma delta solo si current_stock == expectedCurrent; si no, *domain.ConflictError.
	ConditionalAdjust(ctx context.Context, id string, delta, expectedCurrent int64) error
	// ListAvailableByProduct: activos, stock > 0, más recientemente abastecidos primero.
	ListAvailableByProduct(ctx context.Context, productID string) ([]*entity.Batch, error)
	ListAll(ctx context.Context) ([]*entity.Batch, error)
}
