package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
)

// Summary: conteos por tipo y valores (solo transacciones con costo unitario).
type Summary struct {
	Total       int
	Purchases   int
	Sales       int
	Adjustments int

	PurchaseValue   decimal.Decimal
	SaleValue       decimal.Decimal
	AvgPurchaseCost decimal.Decimal // promedio ponderado de compras con costo
}

// Summarize es puro: cuenta sobre el conjunto recibido, sin estado global.
func Summarize(txs []*entity.Transaction) Summary {
	s := Summary{
		PurchaseValue:   decimal.Zero,
		SaleValue:       decimal.Zero,
		AvgPurchaseCost: decimal.Zero,
	}
	costedQty := decimal.Zero
	for _, tx := range txs {
		s.Total++
		switch tx.Type {
		case entity.TransactionTypePurchase:
			s.Purchases++
			if tx.UnitCost != nil {
				qty := decimal.NewFromInt(tx.Quantity)
				s.PurchaseValue = s.PurchaseValue.Add(tx.TotalCost())
				s.AvgPurchaseCost = inventory.WeightedAverageCost(costedQty, s.AvgPurchaseCost, qty, *tx.UnitCost)
				costedQty = costedQty.Add(qty)
			}
		case entity.TransactionTypeSale:
			s.Sales++
			s.SaleValue = s.SaleValue.Add(tx.TotalCost())
		case entity.TransactionTypeAdjustment:
			s.Adjustments++
		}
	}
	return s
}
