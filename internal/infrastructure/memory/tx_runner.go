package memory

import (
	"context"
	"errors"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta unidades de trabajo sobre el Store.
type TxRunner struct {
	s *Store
}

func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repositorios ligados a una unidad de trabajo. Si fn devuelve error nada se aplica.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledger repository.TransactionRepository,
	batches repository.BatchRepository,
	outbox repository.OutboxRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapStorage("begin", err)
	}
	return r.s.atomically(func(u *unitOfWork) error {
		return fn(
			&TransactionRepo{s: r.s, u: u},
			&BatchRepo{s: r.s, u: u},
			&OutboxRepo{s: r.s, u: u},
		)
	})
}

// pendingAdjust acumula los deltas de un lote dentro de la unidad.
type pendingAdjust struct {
	base  int64 // stock confirmado leído al primer ajuste
	delta int64
}

var errDuplicateID = errors.New("id de transacción duplicado")

type unitOfWork struct {
	s       *Store
	txs     []*entity.Transaction
	adjusts map[string]*pendingAdjust
	order   []string
	events  []*entity.OutboxEvent
}

func newUnitOfWork(s *Store) *unitOfWork {
	return &unitOfWork{s: s, adjusts: make(map[string]*pendingAdjust)}
}

// viewBatch devuelve una copia del lote con los ajustes en staging de u (si hay) aplicados.
// Requiere s.mu tomado.
func viewBatch(s *Store, u *unitOfWork, id string) *entity.Batch {
	b, ok := s.batches[id]
	if !ok {
		return nil
	}
	c := b.Clone()
	if u != nil {
		if adj, ok := u.adjusts[id]; ok {
			c.CurrentStock += adj.delta
		}
	}
	return c
}

func (u *unitOfWork) appendTransaction(tx *entity.Transaction) (string, error) {
	u.s.mu.RLock()
	err := u.checkTransaction(tx)
	u.s.mu.RUnlock()
	if err != nil {
		return "", err
	}
	c := tx.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = u.s.now()
	}
	u.txs = append(u.txs, c)
	return c.ID, nil
}

// checkTransaction replica las restricciones de la tabla: cantidad, tipo, FKs y lote del mismo producto.
func (u *unitOfWork) checkTransaction(tx *entity.Transaction) error {
	if tx.ID == "" {
		return domain.NewValidationError("id", "es obligatorio")
	}
	if tx.Quantity <= 0 {
		return domain.NewValidationError("quantity", "debe ser un entero positivo")
	}
	if !entity.IsValidTransactionType(tx.Type) {
		return domain.NewValidationError("type", "tipo de transacción desconocido")
	}
	if _, ok := u.s.products[tx.ProductID]; !ok {
		return domain.NewValidationError("product_id", "el producto no existe")
	}
	if tx.HasBatch() {
		b, ok := u.s.batches[*tx.BatchID]
		if !ok {
			return domain.NewValidationError("batch_id", "el lote no existe")
		}
		if b.ProductID != tx.ProductID {
			return domain.NewValidationError("batch_id", "el lote no pertenece al producto")
		}
	}
	for _, existing := range append(u.s.txs[:len(u.s.txs):len(u.s.txs)], u.txs...) {
		if existing.ID == tx.ID {
			return &domain.StorageError{Op: "append", Err: errDuplicateID}
		}
	}
	return nil
}

func (u *unitOfWork) conditionalAdjust(id string, delta, expected int64) error {
	u.s.mu.RLock()
	b := viewBatch(u.s, u, id)
	u.s.mu.RUnlock()
	if b == nil {
		return domain.ErrNotFound
	}
	if b.CurrentStock != expected {
		return &domain.ConflictError{BatchID: id, Expected: expected}
	}
	if _, err := inventory.ApplyDelta(id, b.CurrentStock, delta); err != nil {
		return err
	}
	adj, ok := u.adjusts[id]
	if !ok {
		adj = &pendingAdjust{base: b.CurrentStock}
		u.adjusts[id] = adj
		u.order = append(u.order, id)
	}
	adj.delta += delta
	return nil
}

// commit vuelve a comprobar cada CAS contra el estado confirmado y aplica todo o nada.
func (u *unitOfWork) commit() error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, id := range u.order {
		adj := u.adjusts[id]
		b, ok := u.s.batches[id]
		if !ok {
			return domain.ErrNotFound
		}
		if b.CurrentStock != adj.base {
			return &domain.ConflictError{BatchID: id, Expected: adj.base}
		}
	}

	now := u.s.now()
	for _, id := range u.order {
		adj := u.adjusts[id]
		b := u.s.batches[id]
		b.CurrentStock += adj.delta
		b.UpdatedAt = now
		if adj.delta > 0 {
			stocked := now
			b.StockedAt = &stocked
		}
	}
	u.s.txs = append(u.s.txs, u.txs...)
	u.s.outbox = append(u.s.outbox, u.events...)
	return nil
}

var _ repository.TransactionRepository = (*TransactionRepo)(nil)
var _ repository.BatchRepository = (*BatchRepo)(nil)
var _ repository.OutboxRepository = (*OutboxRepo)(nil)
