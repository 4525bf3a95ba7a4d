package inventory

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// HistoryEntry es una transacción con los datos de presentación resueltos al leer.
type HistoryEntry struct {
	Transaction   *entity.Transaction
	ProductName   string
	ProductCode   string
	BatchNumber   string
	CreatedByName string
}

// availableLoadTimeout limita la carga compartida de lotes disponibles.
const availableLoadTimeout = 5 * time.Second

// QueryUseCase agrupa las proyecciones de solo lectura sobre el ledger y los lotes.
type QueryUseCase struct {
	txRepo      repository.TransactionRepository
	batchRepo   repository.BatchRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	cache       BatchCache
	log         *logger.Logger

	loads singleflight.Group
}

// NewQueryUseCase construye el caso de uso; cache y log pueden ser nil.
func NewQueryUseCase(
	txRepo repository.TransactionRepository,
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	cache BatchCache,
	log *logger.Logger,
) *QueryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &QueryUseCase{
		txRepo:      txRepo,
		batchRepo:   batchRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		cache:       cache,
		log:         log,
	}
}

// History lista el ledger (transaction_date DESC, created_at DESC) y resuelve producto, lote y actor.
func (uc *QueryUseCase) History(ctx context.Context, filter repository.TransactionFilter) ([]HistoryEntry, error) {
	if filter.Type != "" && !entity.IsValidTransactionType(filter.Type) {
		return nil, domain.NewValidationError("type", "debe ser purchase, sale o adjustment")
	}
	txs, err := uc.txRepo.List(ctx, filter)
	if err != nil {
		return nil, domain.WrapStorage("list transactions", err)
	}
	if len(txs) == 0 {
		return []HistoryEntry{}, nil
	}

	productIDs, batchIDs, userIDs := collectIDs(txs)
	var (
		products = map[string]*entity.Product{}
		batches  = map[string]*entity.Batch{}
		users    = map[string]*entity.User{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := uc.productRepo.GetByIDs(gctx, productIDs)
		for _, p := range list {
			products[p.ID] = p
		}
		return err
	})
	if len(batchIDs) > 0 {
		g.Go(func() error {
			list, err := uc.batchRepo.GetByIDs(gctx, batchIDs)
			for _, b := range list {
				batches[b.ID] = b
			}
			return err
		})
	}
	g.Go(func() error {
		list, err := uc.userRepo.GetByIDs(gctx, userIDs)
		for _, u := range list {
			users[u.ID] = u
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.WrapStorage("enrich history", err)
	}

	entries := make([]HistoryEntry, 0, len(txs))
	for _, tx := range txs {
		e := HistoryEntry{Transaction: tx}
		if p, ok := products[tx.ProductID]; ok {
			e.ProductName, e.ProductCode = p.Name, p.Code
		}
		if tx.HasBatch() {
			if b, ok := batches[*tx.BatchID]; ok {
				e.BatchNumber = b.BatchNumber
			}
		}
		if u, ok := users[tx.CreatedBy]; ok {
			e.CreatedByName = u.Name
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Summary cuenta por tipo las transacciones que cumplen filter (sin paginar si Limit es 0).
func (uc *QueryUseCase) Summary(ctx context.Context, filter repository.TransactionFilter) (Summary, error) {
	txs, err := uc.txRepo.List(ctx, filter)
	if err != nil {
		return Summary{}, domain.WrapStorage("list transactions", err)
	}
	return Summarize(txs), nil
}

// AvailableBatchesFor devuelve los lotes activos con stock del producto, más recientes primero.
// Lee de la caché si hay; las cargas concurrentes del mismo producto se comparten.
func (uc *QueryUseCase) AvailableBatchesFor(ctx context.Context, productID string) ([]*entity.Batch, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.NewValidationError("product_id", "es obligatorio")
	}

	if uc.cache != nil {
		cached, ok, err := uc.cache.GetAvailable(ctx, productID)
		if err != nil {
			uc.log.Warn().Err(err).Str("product_id", productID).Msg("caché de lotes no disponible")
		} else if ok {
			return cached, nil
		}
	}

	// La carga compartida no depende del contexto de quien la inició:
	// si ese llamador cancela, los demás siguen esperando el resultado.
	flight := uc.loads.DoChan(productID, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), availableLoadTimeout)
		defer cancel()

		list, err := uc.batchRepo.ListAvailableByProduct(loadCtx, productID)
		if err != nil {
			return nil, err
		}
		if uc.cache != nil {
			if err := uc.cache.SetAvailable(loadCtx, productID, list); err != nil {
				uc.log.Warn().Err(err).Str("product_id", productID).Msg("no se pudo poblar la caché de lotes")
			}
		}
		return list, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, domain.WrapStorage("list available batches", ctx.Err())
	case res = <-flight:
	}
	if res.Err != nil {
		return nil, domain.WrapStorage("list available batches", res.Err)
	}

	shared := res.Val.([]*entity.Batch)
	out := make([]*entity.Batch, 0, len(shared))
	for _, b := range shared {
		out = append(out, b.Clone())
	}
	return out, nil
}

func collectIDs(txs []*entity.Transaction) (products, batches, users []string) {
	seen := map[string]struct{}{}
	add := func(dst *[]string, prefix, id string) {
		k := prefix + id
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		*dst = append(*dst, id)
	}
	for _, tx := range txs {
		add(&products, "p:", tx.ProductID)
		add(&users, "u:", tx.CreatedBy)
		if tx.HasBatch() {
			add(&batches, "b:", *tx.BatchID)
		}
	}
	return products, batches, users
}
