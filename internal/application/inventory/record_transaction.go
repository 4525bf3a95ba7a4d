package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

const (
	maxReferenceLen = 100
	maxNotesLen     = 1000
)

var tracer = otel.Tracer("github.com/jhoicas/stock-ledger-api/internal/application/inventory")

// RecordOptions configura RecordTransactionUseCase. Los campos nulos toman valores por defecto.
type RecordOptions struct {
	MaxAttempts int // intentos ante ConflictError (por defecto 3)
	Cache       BatchCache
	Metrics     Metrics
	Logger      *logger.Logger
	Clock       func() time.Time
	Backoff     func(attempt int) time.Duration
}

// RecordTransactionUseCase valida y registra transacciones de inventario.
// El asiento, el ajuste de stock del lote y el evento de outbox se confirman en una sola transacción.
type RecordTransactionUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	batchRepo   repository.BatchRepository
	userRepo    repository.UserRepository

	maxAttempts int
	cache       BatchCache
	metrics     Metrics
	log         *logger.Logger
	now         func() time.Time
	backoff     func(attempt int) time.Duration
}

func NewRecordTransactionUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
	userRepo repository.UserRepository,
	opts RecordOptions,
) *RecordTransactionUseCase {
	uc := &RecordTransactionUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		batchRepo:   batchRepo,
		userRepo:    userRepo,
		maxAttempts: opts.MaxAttempts,
		cache:       opts.Cache,
		metrics:     opts.Metrics,
		log:         opts.Logger,
		now:         opts.Clock,
		backoff:     opts.Backoff,
	}
	if uc.maxAttempts < 1 {
		uc.maxAttempts = 3
	}
	if uc.metrics == nil {
		uc.metrics = noopMetrics{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.now == nil {
		uc.now = func() time.Time { return time.Now().UTC() }
	}
	if uc.backoff == nil {
		uc.backoff = jitteredBackoff
	}
	return uc
}

// RecordTransactionInput: ActorID lo pone quien llama a partir de la identidad autenticada,
// nunca del cuerpo de la petición.
type RecordTransactionInput struct {
	Type            string
	ProductID       string
	BatchID         *string
	Quantity        int64
	UnitCost        *decimal.Decimal
	ReferenceNumber string
	Notes           string
	TransactionDate time.Time
	ActorID         string
}

// RecordTransaction valida la entrada, calcula el delta y confirma asiento + stock de forma atómica.
// Errores: *domain.ValidationError, *domain.InsufficientStockError, *domain.ConflictError (reintentos
// agotados) o *domain.StorageError. En todos los casos no queda nada persistido.
func (uc *RecordTransactionUseCase) RecordTransaction(ctx context.Context, in RecordTransactionInput) (*entity.Transaction, error) {
	ctx, span := tracer.Start(ctx, "inventory.RecordTransaction")
	defer span.End()

	start := time.Now()
	in = normalize(in)
	span.SetAttributes(
		attribute.String("inventory.type", in.Type),
		attribute.String("inventory.product_id", in.ProductID),
		attribute.Int64("inventory.quantity", in.Quantity),
	)

	tx, err := uc.record(ctx, in)
	uc.metrics.ObserveRecord(in.Type, outcome(err), time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("inventory.transaction_id", tx.ID))
	span.SetStatus(codes.Ok, "")
	return tx, nil
}

func (uc *RecordTransactionUseCase) record(ctx context.Context, in RecordTransactionInput) (*entity.Transaction, error) {
	if err := uc.validate(ctx, in); err != nil {
		return nil, err
	}
	delta, err := inventory.SignedDelta(in.Type, in.Quantity)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		tx, err := uc.commit(ctx, in, delta)
		if err == nil {
			uc.afterCommit(ctx, tx, delta)
			return tx, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= uc.maxAttempts {
			uc.log.Info().Err(err).
				Str("type", in.Type).
				Str("product_id", in.ProductID).
				Int("attempt", attempt).
				Msg("transacción rechazada")
			return nil, err
		}

		uc.metrics.ObserveConflictRetry(in.Type)
		uc.log.Warn().Err(err).Int("attempt", attempt).Msg("conflicto de concurrencia, reintentando")
		if err := sleep(ctx, uc.backoff(attempt)); err != nil {
			return nil, domain.WrapStorage("retry", err)
		}
	}
}

func (uc *RecordTransactionUseCase) commit(ctx context.Context, in RecordTransactionInput, delta int64) (*entity.Transaction, error) {
	now := uc.now()
	tx := &entity.Transaction{
		ID:              uuid.New().String(),
		Type:            in.Type,
		ProductID:       in.ProductID,
		BatchID:         in.BatchID,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
		TransactionDate: in.TransactionDate,
		CreatedBy:       in.ActorID,
		CreatedAt:       now,
	}
	evt, err := newRecordedEvent(tx, delta, now)
	if err != nil {
		return nil, domain.WrapStorage("encode event", err)
	}

	err = uc.txRunner.Run(ctx, func(
		ledger repository.TransactionRepository,
		batches repository.BatchRepository,
		outbox repository.OutboxRepository,
	) error {
		var current int64
		if tx.HasBatch() {
			// Bloquea la fila del lote hasta el commit
			batch, err := batches.GetForUpdate(ctx, *tx.BatchID)
			if err != nil {
				return err
			}
			if batch == nil {
				return domain.NewValidationError("batch_id", "el lote no existe")
			}
			if _, err := inventory.ApplyDelta(batch.ID, batch.CurrentStock, delta); err != nil {
				return err
			}
			current = batch.CurrentStock
		}
		if _, err := ledger.Append(ctx, tx); err != nil {
			return err
		}
		if tx.HasBatch() {
			if err := batches.ConditionalAdjust(ctx, *tx.BatchID, delta, current); err != nil {
				return err
			}
		}
		return outbox.Add(ctx, evt)
	})
	if err != nil {
		var cErr *domain.ConflictError
		if errors.As(err, &cErr) && cErr.BatchID == "" && tx.HasBatch() {
			cErr.BatchID = *tx.BatchID
		}
		return nil, domain.WrapStorage("record transaction", err)
	}
	return tx.Clone(), nil
}

func (uc *RecordTransactionUseCase) afterCommit(ctx context.Context, tx *entity.Transaction, delta int64) {
	ev := uc.log.Info().
		Str("transaction_id", tx.ID).
		Str("type", tx.Type).
		Str("product_id", tx.ProductID).
		Int64("delta", delta)
	if tx.HasBatch() {
		ev = ev.Str("batch_id", *tx.BatchID)
	}
	ev.Msg("transacción registrada")

	if uc.cache != nil && tx.HasBatch() {
		if err := uc.cache.Invalidate(ctx, tx.ProductID); err != nil {
			uc.log.Warn().Err(err).Str("product_id", tx.ProductID).Msg("no se pudo invalidar la caché de lotes")
		}
	}
}

// validate comprueba la entrada y los datos maestros antes de abrir la transacción.
func (uc *RecordTransactionUseCase) validate(ctx context.Context, in RecordTransactionInput) error {
	if !entity.IsValidTransactionType(in.Type) {
		return domain.NewValidationError("type", "debe ser purchase, sale o adjustment")
	}
	if in.Quantity <= 0 {
		return domain.NewValidationError("quantity", "debe ser un entero positivo")
	}
	if in.ProductID == "" {
		return domain.NewValidationError("product_id", "es obligatorio")
	}
	if in.ActorID == "" {
		return domain.NewValidationError("created_by", "se requiere un usuario autenticado")
	}
	if in.TransactionDate.IsZero() {
		return domain.NewValidationError("transaction_date", "es obligatoria")
	}
	if utf8.RuneCountInString(in.ReferenceNumber) > maxReferenceLen {
		return domain.NewValidationError("reference_number", "máximo 100 caracteres")
	}
	if utf8.RuneCountInString(in.Notes) > maxNotesLen {
		return domain.NewValidationError("notes", "máximo 1000 caracteres")
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return domain.NewValidationError("unit_cost", "no puede ser negativo")
	}

	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return domain.WrapStorage("get product", err)
	}
	if product == nil {
		return domain.NewValidationError("product_id", "el producto no existe")
	}
	if !product.IsActive {
		return domain.NewValidationError("product_id", "el producto está inactivo")
	}

	if in.BatchID != nil {
		batch, err := uc.batchRepo.GetByID(ctx, *in.BatchID)
		if err != nil {
			return domain.WrapStorage("get batch", err)
		}
		if batch == nil {
			return domain.NewValidationError("batch_id", "el lote no existe")
		}
		if batch.ProductID != in.ProductID {
			return domain.NewValidationError("batch_id", "el lote no pertenece al producto")
		}
	}

	actor, err := uc.userRepo.GetByID(ctx, in.ActorID)
	if err != nil {
		return domain.WrapStorage("get user", err)
	}
	if actor == nil || !actor.IsActive() {
		return domain.NewValidationError("created_by", "el usuario no existe o está inactivo")
	}
	return nil
}

func normalize(in RecordTransactionInput) RecordTransactionInput {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.BatchID != nil {
		id := strings.TrimSpace(*in.BatchID)
		if id == "" {
			in.BatchID = nil
		} else {
			in.BatchID = &id
		}
	}
	if in.UnitCost != nil {
		c := *in.UnitCost
		in.UnitCost = &c
	}
	return in
}

type recordedPayload struct {
	TransactionID   string           `json:"transaction_id"`
	Type            string           `json:"type"`
	ProductID       string           `json:"product_id"`
	BatchID         *string          `json:"batch_id"`
	Quantity        int64            `json:"quantity"`
	Delta           int64            `json:"delta"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceNumber string           `json:"reference_number,omitempty"`
	TransactionDate time.Time        `json:"transaction_date"`
	CreatedBy       string           `json:"created_by"`
	CreatedAt       time.Time        `json:"created_at"`
}

func newRecordedEvent(tx *entity.Transaction, delta int64, now time.Time) (*entity.OutboxEvent, error) {
	body, err := json.Marshal(recordedPayload{
		TransactionID:   tx.ID,
		Type:            tx.Type,
		ProductID:       tx.ProductID,
		BatchID:         tx.BatchID,
		Quantity:        tx.Quantity,
		Delta:           delta,
		UnitCost:        tx.UnitCost,
		ReferenceNumber: tx.ReferenceNumber,
		TransactionDate: tx.TransactionDate,
		CreatedBy:       tx.CreatedBy,
		CreatedAt:       tx.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return &entity.OutboxEvent{
		ID:          uuid.New().String(),
		EventType:   entity.EventTransactionRecorded,
		AggregateID: tx.ID,
		Key:         tx.ProductID,
		Payload:     body,
		CreatedAt:   now,
	}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "recorded"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "storage"
	}
}

// maxBackoffShift acota la espera base a 10ms << 10 (~10s).
const maxBackoffShift = 10

// jitteredBackoff: 10ms, 20ms, 40ms... más hasta 10ms aleatorios.
func jitteredBackoff(attempt int) time.Duration {
	shift := min(max(attempt-1, 0), maxBackoffShift)
	base := 10 * time.Millisecond << shift
	return base + time.Duration(rand.Int63n(int64(10*time.Millisecond)))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
