// Package memory implementa los puertos de persistencia en memoria.
// Un único escritor a la vez; las escrituras quedan en staging hasta el commit,
// así una unidad de trabajo fallida no deja rastro.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// Store es el estado confirmado compartido por todos los repositorios.
type Store struct {
	writeMu sync.Mutex   // serializa unidades de trabajo
	mu      sync.RWMutex // protege el estado confirmado

	products map[string]*entity.Product
	users    map[string]*entity.User
	batches  map[string]*entity.Batch
	txs      []*entity.Transaction // orden de inserción
	outbox   []*entity.OutboxEvent

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		users:    make(map[string]*entity.User),
		batches:  make(map[string]*entity.Batch),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock reemplaza el reloj usado para created_at / stocked_at.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// PutProduct, PutBatch y PutUser cargan datos maestros (los crea otro sistema).
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

func (s *Store) PutBatch(b entity.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	s.batches[b.ID] = b.Clone()
}

func (s *Store) PutUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

func (s *Store) Transactions() *TransactionRepo       { return &TransactionRepo{s: s} }
func (s *Store) Batches() *BatchRepo                  { return &BatchRepo{s: s} }
func (s *Store) Products() *ProductRepo               { return &ProductRepo{s: s} }
func (s *Store) Users() *UserRepo                     { return &UserRepo{s: s} }
func (s *Store) Outbox() *OutboxRepo                  { return &OutboxRepo{s: s} }
func (s *Store) Reconciliation() *ReconciliationRepo { return &ReconciliationRepo{s: s} }

// atomically ejecuta fn como unidad de trabajo implícita de una sola operación.
func (s *Store) atomically(fn func(u *unitOfWork) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	u := newUnitOfWork(s)
	if err := fn(u); err != nil {
		return err
	}
	return u.commit()
}

// sortLedger ordena por transaction_date DESC, created_at DESC; a igualdad gana la última insertada.
func sortLedger(txs []*entity.Transaction) {
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.TransactionDate.Equal(b.TransactionDate) {
			return a.TransactionDate.After(b.TransactionDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
