package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `id, product_id, batch_number, current_stock, is_active, expiry_date, stocked_at, created_at, updated_at`

// BatchRepo guarda current_stock por lote (pool o tx).
type BatchRepo struct {
	q Querier
}

func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	return r.getOne(ctx, "get batch", `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila hasta el commit; otros escritores del mismo lote esperan.
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	b, err := r.getOne(ctx, "lock batch", `SELECT `+batchColumns+` FROM batches WHERE id = $1 FOR UPDATE`, id)
	return b, withBatch(err, id)
}

func (r *BatchRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Batch, error) {
	if len(ids) == 0 {
		return []*entity.Batch{}, nil
	}
	return r.list(ctx, "get batches", `SELECT `+batchColumns+` FROM batches WHERE id = ANY($1)`, ids)
}

func (r *BatchRepo) GetCurrentStock(ctx context.Context, id string) (int64, error) {
	var stock int64
	err := r.q.QueryRow(ctx, `SELECT current_stock FROM batches WHERE id = $1`, id).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, mapError("get current stock", err)
	}
	return stock, nil
}

// ConditionalAdjust es un compare-and-swap sobre current_stock.
// 0 filas afectadas: el lote no existe (ErrNotFound) o su stock cambió (ConflictError).
func (r *BatchRepo) ConditionalAdjust(ctx context.Context, id string, delta, expectedCurrent int64) error {
	query := `
		UPDATE batches
		SET current_stock = current_stock + $2::bigint,
		    stocked_at = CASE WHEN $2::bigint > 0 THEN now() ELSE stocked_at END,
		    updated_at = now()
		WHERE id = $1 AND current_stock = $3`
	tag, err := r.q.Exec(ctx, query, id, delta, expectedCurrent)
	if err != nil {
		return withBatch(mapError("adjust batch stock", err), id)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetCurrentStock(ctx, id); err != nil {
		return err
	}
	return &domain.ConflictError{BatchID: id, Expected: expectedCurrent}
}

// ListAvailableByProduct: activos con stock, por última entrada de stock descendente.
func (r *BatchRepo) ListAvailableByProduct(ctx context.Context, productID string) ([]*entity.Batch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		WHERE product_id = $1 AND is_active AND current_stock > 0
		ORDER BY COALESCE(stocked_at, created_at) DESC, id`
	return r.list(ctx, "list available batches", query, productID)
}

func (r *BatchRepo) ListAll(ctx context.Context) ([]*entity.Batch, error) {
	return r.list(ctx, "list batches", `SELECT `+batchColumns+` FROM batches ORDER BY id`)
}

func (r *BatchRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return b, nil
}

func (r *BatchRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	out := make([]*entity.Batch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return out, nil
}

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var b entity.Batch
	err := row.Scan(&b.ID, &b.ProductID, &b.BatchNumber, &b.CurrentStock, &b.IsActive,
		&b.ExpiryDate, &b.StockedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
