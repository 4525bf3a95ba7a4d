package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

var errDuplicateTransaction = errors.New("id de transacción duplicado")

const transactionColumns = `id, type, product_id, batch_id, quantity, unit_cost, reference_number, notes,
	transaction_date, created_by, created_at`

// TransactionRepo es el ledger sobre PostgreSQL (pool o tx). Solo INSERT y SELECT.
type TransactionRepo struct {
	q Querier
}

func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Append inserta el asiento. Las restricciones de la tabla cubren cantidad, tipo y lote/producto.
func (r *TransactionRepo) Append(ctx context.Context, tx *entity.Transaction) (string, error) {
	query := `
		INSERT INTO inventory_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11::timestamptz, now()))
		RETURNING created_at`
	var createdAtArg any
	if !tx.CreatedAt.IsZero() {
		createdAtArg = tx.CreatedAt
	}
	err := r.q.QueryRow(ctx, query,
		tx.ID, tx.Type, tx.ProductID, tx.BatchID, tx.Quantity, tx.UnitCost,
		tx.ReferenceNumber, tx.Notes, tx.TransactionDate, tx.CreatedBy, createdAtArg,
	).Scan(&tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return "", &domain.StorageError{Op: "append transaction", Err: errDuplicateTransaction}
		}
		return "", mapError("append transaction", err)
	}
	return tx.ID, nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM inventory_transactions WHERE id = $1`
	tx, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get transaction", err)
	}
	return tx, nil
}

// List arma el WHERE según los filtros presentes y ordena por transaction_date DESC, created_at DESC.
func (r *TransactionRepo) List(ctx context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.BatchID != "" {
		add("batch_id = $%d", f.BatchID)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.From != nil {
		add("transaction_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("transaction_date <= $%d", *f.To)
	}

	var b strings.Builder
	b.WriteString("SELECT " + transactionColumns + " FROM inventory_transactions")
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY transaction_date DESC, created_at DESC, id DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, mapError("list transactions", err)
	}
	defer rows.Close()

	out := make([]*entity.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, mapError("scan transaction", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("list transactions", err)
	}
	return out, nil
}

func (r *TransactionRepo) ListByBatch(ctx context.Context, batchID string) ([]*entity.Transaction, error) {
	return r.List(ctx, repository.TransactionFilter{BatchID: batchID})
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	var tx entity.Transaction
	err := row.Scan(
		&tx.ID, &tx.Type, &tx.ProductID, &tx.BatchID, &tx.Quantity, &tx.UnitCost,
		&tx.ReferenceNumber, &tx.Notes, &tx.TransactionDate, &tx.CreatedBy, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
