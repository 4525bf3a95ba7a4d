package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordTransactionRequest body para POST /api/inventory/transactions.
// El actor sale del token; un created_by en el cuerpo se ignora.
type RecordTransactionRequest struct {
	Type            string           `json:"type" validate:"required"`
	ProductID       string           `json:"product_id" validate:"required"`
	BatchID         *string          `json:"batch_id,omitempty"`
	Quantity        int64            `json:"quantity" validate:"gt=0"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceNumber string           `json:"reference_number,omitempty" validate:"max=100"`
	Notes           string           `json:"notes,omitempty" validate:"max=1000"`
	TransactionDate string           `json:"transaction_date,omitempty"` // RFC3339 o YYYY-MM-DD; vacío = ahora
}

// TransactionQuery filtros de GET /api/inventory/transactions (y summary / statement.pdf).
type TransactionQuery struct {
	ProductID string `query:"product_id"`
	BatchID   string `query:"batch_id"`
	Type      string `query:"type"`
	From      string `query:"from"`
	To        string `query:"to"`
	Limit     int    `query:"limit" validate:"min=0,max=500"`
	Offset    int    `query:"offset" validate:"min=0"`
}

// TransactionResponse representación de un asiento del ledger.
type TransactionResponse struct {
	ID              string           `json:"id"`
	Type            string           `json:"type"`
	ProductID       string           `json:"product_id"`
	BatchID         *string          `json:"batch_id,omitempty"`
	Quantity        int64            `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost       decimal.Decimal  `json:"total_cost"`
	ReferenceNumber string           `json:"reference_number,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	TransactionDate time.Time        `json:"transaction_date"`
	CreatedBy       string           `json:"created_by"`
	CreatedAt       time.Time        `json:"created_at"`
}

// HistoryEntryResponse asiento con nombres resueltos al leer.
type HistoryEntryResponse struct {
	TransactionResponse
	ProductName   string `json:"product_name,omitempty"`
	ProductCode   string `json:"product_code,omitempty"`
	BatchNumber   string `json:"batch_number,omitempty"`
	CreatedByName string `json:"created_by_name,omitempty"`
}

type HistoryResponse struct {
	Items []HistoryEntryResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}

type SummaryResponse struct {
	Total           int             `json:"total"`
	Purchases       int             `json:"purchases"`
	Sales           int             `json:"sales"`
	Adjustments     int             `json:"adjustments"`
	PurchaseValue   decimal.Decimal `json:"purchase_value"`
	SaleValue       decimal.Decimal `json:"sale_value"`
	AvgPurchaseCost decimal.Decimal `json:"avg_purchase_cost"`
}

type BatchResponse struct {
	ID           string     `json:"id"`
	ProductID    string     `json:"product_id"`
	BatchNumber  string     `json:"batch_number"`
	CurrentStock int64      `json:"current_stock"`
	IsActive     bool       `json:"is_active"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	StockedAt    *time.Time `json:"stocked_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DriftResponse lote cuyo stock no coincide con la suma del ledger.
type DriftResponse struct {
	BatchID      string `json:"batch_id"`
	ProductID    string `json:"product_id"`
	CurrentStock int64  `json:"current_stock"`
	LedgerStock  int64  `json:"ledger_stock"`
	Difference   int64  `json:"difference"`
}

type ReconciliationResponse struct {
	CheckedAt      time.Time       `json:"checked_at"`
	BatchesChecked int             `json:"batches_checked"`
	Consistent     bool            `json:"consistent"`
	Drifts         []DriftResponse `json:"drifts"`
}
