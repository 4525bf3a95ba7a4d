package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

var _ inventory.BatchCache = (*BatchCache)(nil)

const availableKeyPrefix = "stock-ledger:available-batches:"

// BatchCache guarda en Redis la lista de lotes disponibles por producto, con TTL corto.
type BatchCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBatchCache(client *redis.Client, ttl time.Duration) *BatchCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &BatchCache{client: client, ttl: ttl}
}

type cachedBatch struct {
	ID           string     `json:"id"`
	ProductID    string     `json:"product_id"`
	BatchNumber  string     `json:"batch_number"`
	CurrentStock int64      `json:"current_stock"`
	IsActive     bool       `json:"is_active"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	StockedAt    *time.Time `json:"stocked_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// GetAvailable devuelve ok=false si la clave no existe.
func (c *BatchCache) GetAvailable(ctx context.Context, productID string) ([]*entity.Batch, bool, error) {
	raw, err := c.client.Get(ctx, availableKeyPrefix+productID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []cachedBatch
	if err := json.Unmarshal(raw, &items); err != nil {
		// entrada corrupta: se trata como fallo de caché
		_ = c.client.Del(ctx, availableKeyPrefix+productID).Err()
		return nil, false, nil
	}
	out := make([]*entity.Batch, 0, len(items))
	for _, it := range items {
		out = append(out, &entity.Batch{
			ID:           it.ID,
			ProductID:    it.ProductID,
			BatchNumber:  it.BatchNumber,
			CurrentStock: it.CurrentStock,
			IsActive:     it.IsActive,
			ExpiryDate:   it.ExpiryDate,
			StockedAt:    it.StockedAt,
			CreatedAt:    it.CreatedAt,
			UpdatedAt:    it.UpdatedAt,
		})
	}
	return out, true, nil
}

func (c *BatchCache) SetAvailable(ctx context.Context, productID string, batches []*entity.Batch) error {
	items := make([]cachedBatch, 0, len(batches))
	for _, b := range batches {
		items = append(items, cachedBatch{
			ID:           b.ID,
			ProductID:    b.ProductID,
			BatchNumber:  b.BatchNumber,
			CurrentStock: b.CurrentStock,
			IsActive:     b.IsActive,
			ExpiryDate:   b.ExpiryDate,
			StockedAt:    b.StockedAt,
			CreatedAt:    b.CreatedAt,
			UpdatedAt:    b.UpdatedAt,
		})
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availableKeyPrefix+productID, raw, c.ttl).Err()
}

func (c *BatchCache) Invalidate(ctx context.Context, productID string) error {
	return c.client.Del(ctx, availableKeyPrefix+productID).Err()
}
