package postgres

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.ReconciliationRepository = (*ReconciliationRepo)(nil)

type ReconciliationRepo struct {
	q Querier
}

func NewReconciliationRepository(q Querier) *ReconciliationRepo {
	return &ReconciliationRepo{q: q}
}

// LedgerBalances usa una sola sentencia: contador y suma salen de la misma instantánea.
func (r *ReconciliationRepo) LedgerBalances(ctx context.Context) ([]repository.BatchBalance, error) {
	rows, err := r.q.Query(ctx, `
		SELECT b.id, b.product_id, b.current_stock,
		       COALESCE(SUM(CASE WHEN t.type = 'sale' THEN -t.quantity ELSE t.quantity END), 0)::bigint,
		       COUNT(t.id)
		FROM batches b
		LEFT JOIN inventory_transactions t ON t.batch_id = b.id
		GROUP BY b.id, b.product_id, b.current_stock
		ORDER BY b.id`)
	if err != nil {
		return nil, mapError("ledger balances", err)
	}
	defer rows.Close()

	out := make([]repository.BatchBalance, 0)
	for rows.Next() {
		var (
			b     repository.BatchBalance
			count int64
		)
		if err := rows.Scan(&b.BatchID, &b.ProductID, &b.CurrentStock, &b.LedgerStock, &count); err != nil {
			return nil, mapError("scan balance", err)
		}
		b.TransactionCount = int(count)
		out = append(out, b)
	}
	return out, mapError("ledger balances", rows.Err())
}
