package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Record         *inventory.RecordTransactionUseCase
	Query          *inventory.QueryUseCase
	Statement      *inventory.StatementUseCase
	Reconcile      *inventory.ReconcileUseCase
	JWTSecret      string
	RequestTimeout time.Duration
	Logger         *logger.Logger
}

// Router registra las rutas de la API. Todo bajo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	inv := api.Group("/inventory")
	h := NewInventoryHandler(deps)
	inv.Post("/transactions", h.RecordTransaction)
	inv.Get("/transactions", h.ListTransactions)
	inv.Get("/transactions/summary", h.Summary)
	inv.Get("/transactions/statement.pdf", h.Statement)
	inv.Get("/products/:id/available-batches", h.AvailableBatches)
	inv.Get("/reconciliation", h.Reconciliation)
}
