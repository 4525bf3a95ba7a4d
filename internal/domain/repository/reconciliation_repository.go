package repository

import "context"

// BatchBalance compara el contador de un lote con lo que dice el ledger.
type BatchBalance struct {
	BatchID          string
	ProductID        string
	CurrentStock     int64
	LedgerStock      int64 // Σ deltas con signo
	TransactionCount int
}

// ReconciliationRepository lee contadores y sumas del ledger en una misma instantánea.
type ReconciliationRepository interface {
	LedgerBalances(ctx context.Context) ([]BatchBalance, error)
}
