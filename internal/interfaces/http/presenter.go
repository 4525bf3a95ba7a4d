package http

import (
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

func toTransactionResponse(tx *entity.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:              tx.ID,
		Type:            tx.Type,
		ProductID:       tx.ProductID,
		BatchID:         tx.BatchID,
		Quantity:        tx.Quantity,
		UnitCost:        tx.UnitCost,
		TotalCost:       tx.TotalCost(),
		ReferenceNumber: tx.ReferenceNumber,
		Notes:           tx.Notes,
		TransactionDate: tx.TransactionDate,
		CreatedBy:       tx.CreatedBy,
		CreatedAt:       tx.CreatedAt,
	}
}

func toHistoryResponse(entries []inventory.HistoryEntry, limit, offset int) dto.HistoryResponse {
	items := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.HistoryEntryResponse{
			TransactionResponse: toTransactionResponse(e.Transaction),
			ProductName:         e.ProductName,
			ProductCode:         e.ProductCode,
			BatchNumber:         e.BatchNumber,
			CreatedByName:       e.CreatedByName,
		})
	}
	return dto.HistoryResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Count: len(items)},
	}
}

func toSummaryResponse(s inventory.Summary) dto.SummaryResponse {
	return dto.SummaryResponse{
		Total:           s.Total,
		Purchases:       s.Purchases,
		Sales:           s.Sales,
		Adjustments:     s.Adjustments,
		PurchaseValue:   s.PurchaseValue,
		SaleValue:       s.SaleValue,
		AvgPurchaseCost: s.AvgPurchaseCost,
	}
}

func toBatchResponses(batches []*entity.Batch) []dto.BatchResponse {
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, dto.BatchResponse{
			ID:           b.ID,
			ProductID:    b.ProductID,
			BatchNumber:  b.BatchNumber,
			CurrentStock: b.CurrentStock,
			IsActive:     b.IsActive,
			ExpiryDate:   b.ExpiryDate,
			StockedAt:    b.StockedAt,
			CreatedAt:    b.CreatedAt,
		})
	}
	return out
}

func toReconciliationResponse(r *inventory.ReconciliationReport) dto.ReconciliationResponse {
	drifts := make([]dto.DriftResponse, 0, len(r.Drifts))
	for _, d := range r.Drifts {
		drifts = append(drifts, dto.DriftResponse{
			BatchID:      d.BatchID,
			ProductID:    d.ProductID,
			CurrentStock: d.CurrentStock,
			LedgerStock:  d.LedgerStock,
			Difference:   d.Difference,
		})
	}
	return dto.ReconciliationResponse{
		CheckedAt:      r.CheckedAt,
		BatchesChecked: r.BatchesChecked,
		Consistent:     r.Consistent(),
		Drifts:         drifts,
	}
}
