package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// TransactionFilter acota los listados del ledger. Campos vacíos no filtran; Limit 0 = sin límite.
type TransactionFilter struct {
	ProductID string
	BatchID   string
	Type      string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// TransactionRepository es el ledger: solo agrega y lee. No existe camino de update ni delete.
type TransactionRepository interface {
	Append(ctx context.Context, tx *entity.Transaction) (string, error)
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// List ordena por transaction_date DESC, created_at DESC.
	List(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, error)
	ListByBatch(ctx context.Context, batchID string) ([]*entity.Transaction, error)
}
