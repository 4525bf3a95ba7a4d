package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// maxStatementEntries acota el extracto cuando el llamador no pagina.
const maxStatementEntries = 1000

// StatementData es lo que necesita el renderizador del extracto.
type StatementData struct {
	GeneratedAt time.Time
	Filter      repository.TransactionFilter
	Entries     []HistoryEntry
	Summary     Summary
}

// StatementUseCase arma el extracto del ledger (historial + resumen) y lo renderiza.
type StatementUseCase struct {
	query    *QueryUseCase
	renderer StatementRenderer
	now      func() time.Time
}

func NewStatementUseCase(query *QueryUseCase, renderer StatementRenderer) *StatementUseCase {
	return &StatementUseCase{query: query, renderer: renderer, now: func() time.Time { return time.Now().UTC() }}
}

func (uc *StatementUseCase) Generate(ctx context.Context, filter repository.TransactionFilter) ([]byte, error) {
	if filter.Limit <= 0 || filter.Limit > maxStatementEntries {
		filter.Limit = maxStatementEntries
	}
	entries, err := uc.query.History(ctx, filter)
	if err != nil {
		return nil, err
	}

	txs := make([]*entity.Transaction, 0, len(entries))
	for _, e := range entries {
		txs = append(txs, e.Transaction)
	}

	doc, err := uc.renderer.RenderStatement(StatementData{
		GeneratedAt: uc.now(),
		Filter:      filter,
		Entries:     entries,
		Summary:     Summarize(txs),
	})
	if err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}
	return doc, nil
}
