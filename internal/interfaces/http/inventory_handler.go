package http

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

const (
	defaultHistoryLimit = 50
	defaultTimeout      = 10 * time.Second
)

// InventoryHandler expone el ledger de inventario (protegido).
type InventoryHandler struct {
	record    *inventory.RecordTransactionUseCase
	query     *inventory.QueryUseCase
	statement *inventory.StatementUseCase
	reconcile *inventory.ReconcileUseCase
	validate  *validator.Validate
	timeout   time.Duration
	log       *logger.Logger
	now       func() time.Time
}

// NewInventoryHandler construye el handler con las dependencias de RouterDeps.
func NewInventoryHandler(deps RouterDeps) *InventoryHandler {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &InventoryHandler{
		record:    deps.Record,
		query:     deps.Query,
		statement: deps.Statement,
		reconcile: deps.Reconcile,
		validate:  newValidator(),
		timeout:   timeout,
		log:       log.Component("http"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (h *InventoryHandler) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// RecordTransaction godoc
// @Summary      Registrar transacción de inventario
// @Description  Compra, venta o ajuste. El actor es el usuario del token; created_by en el cuerpo se ignora.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordTransactionRequest  true  "type, product_id, batch_id, quantity, unit_cost"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [post]
func (h *InventoryHandler) RecordTransaction(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RecordTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := checkStruct(h.validate, in); err != nil {
		return respondError(c, h.log, err)
	}
	date, err := parseDate("transaction_date", in.TransactionDate, false)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if date == nil {
		now := h.now()
		date = &now
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	tx, err := h.record.RecordTransaction(ctx, inventory.RecordTransactionInput{
		Type:            in.Type,
		ProductID:       in.ProductID,
		BatchID:         in.BatchID,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		ReferenceNumber: in.ReferenceNumber,
		Notes:           in.Notes,
		TransactionDate: *date,
		ActorID:         userID,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(tx))
}

// ListTransactions godoc
// @Summary      Historial del ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto"
// @Param        batch_id    query  string  false  "Lote"
// @Param        type        query  string  false  "purchase | sale | adjustment"
// @Param        from        query  string  false  "RFC3339 o YYYY-MM-DD (inclusive)"
// @Param        to          query  string  false  "RFC3339 o YYYY-MM-DD (inclusive)"
// @Param        limit       query  int     false  "Máximo 500, por defecto 50"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.HistoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [get]
func (h *InventoryHandler) ListTransactions(c *fiber.Ctx) error {
	filter, err := h.filter(c, defaultHistoryLimit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	entries, err := h.query.History(ctx, filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toHistoryResponse(entries, filter.Limit, filter.Offset))
}

// Summary godoc
// @Summary      Resumen del ledger para los filtros dados
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto"
// @Param        type        query  string  false  "purchase | sale | adjustment"
// @Param        from        query  string  false  "Desde"
// @Param        to          query  string  false  "Hasta"
// @Success      200  {object}  dto.SummaryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions/summary [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	filter, err := h.filter(c, 0)
	if err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	s, err := h.query.Summary(ctx, filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toSummaryResponse(s))
}

// Statement godoc
// @Summary      Extracto del ledger en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        product_id  query  string  false  "Producto"
// @Param        from        query  string  false  "Desde"
// @Param        to          query  string  false  "Hasta"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions/statement.pdf [get]
func (h *InventoryHandler) Statement(c *fiber.Ctx) error {
	filter, err := h.filter(c, 0)
	if err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	doc, err := h.statement.Generate(ctx, filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="ledger-statement.pdf"`)
	return c.Send(doc)
}

// AvailableBatches godoc
// @Summary      Lotes activos con stock de un producto
// @Description  Más recientes primero (último ingreso de stock).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}   dto.BatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/available-batches [get]
func (h *InventoryHandler) AvailableBatches(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	batches, err := h.query.AvailableBatchesFor(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toBatchResponses(batches))
}

// Reconciliation godoc
// @Summary      Conciliación stock vs ledger
// @Description  Compara current_stock de cada lote con la suma de sus deltas. Solo informa.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/reconciliation [get]
func (h *InventoryHandler) Reconciliation(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	report, err := h.reconcile.Reconcile(ctx)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toReconciliationResponse(report))
}

// filter arma el TransactionFilter desde la query. defaultLimit 0 deja el límite al caso de uso.
func (h *InventoryHandler) filter(c *fiber.Ctx, defaultLimit int) (repository.TransactionFilter, error) {
	var q dto.TransactionQuery
	if err := c.QueryParser(&q); err != nil {
		return repository.TransactionFilter{}, domain.NewValidationError("query", "parámetros inválidos")
	}
	if err := checkStruct(h.validate, q); err != nil {
		return repository.TransactionFilter{}, err
	}
	from, err := parseDate("from", q.From, false)
	if err != nil {
		return repository.TransactionFilter{}, err
	}
	to, err := parseDate("to", q.To, true)
	if err != nil {
		return repository.TransactionFilter{}, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return repository.TransactionFilter{}, domain.NewValidationError("to", "es anterior a from")
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	return repository.TransactionFilter{
		ProductID: q.ProductID,
		BatchID:   q.BatchID,
		Type:      q.Type,
		From:      from,
		To:        to,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}, nil
}
