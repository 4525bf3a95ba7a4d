package inventory

import (
	"math"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// SignedDelta traduce (tipo, cantidad) al cambio de stock del lote.
// purchase y adjustment suman; sale resta. adjustment es siempre aditivo.
func SignedDelta(txType string, quantity int64) (int64, error) {
	if quantity <= 0 {
		return 0, domain.NewValidationError("quantity", "debe ser un entero positivo")
	}
	switch txType {
	case entity.TransactionTypePurchase, entity.TransactionTypeAdjustment:
		return quantity, nil
	case entity.TransactionTypeSale:
		return -quantity, nil
	}
	return 0, domain.NewValidationError("type", "tipo de transacción desconocido")
}

// ApplyDelta calcula el nuevo stock; una venta que lo deja negativo se rechaza.
// Un ingreso que desborda int64 es un error de la cantidad, no de stock.
func ApplyDelta(batchID string, current, delta int64) (int64, error) {
	if delta > 0 && current > math.MaxInt64-delta {
		return current, domain.NewValidationError("quantity", "excede el stock máximo representable del lote")
	}
	next := current + delta
	if next < 0 {
		return current, &domain.InsufficientStockError{
			BatchID:   batchID,
			Available: current,
			Requested: -delta,
		}
	}
	return next, nil
}
