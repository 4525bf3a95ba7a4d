package entity

import "time"

// EventTransactionRecorded se emite por cada transacción confirmada.
const EventTransactionRecorded = "inventory.transaction.recorded"

// OutboxEvent se escribe en la misma transacción que el asiento y luego se publica al broker.
type OutboxEvent struct {
	ID          string
	EventType   string
	AggregateID string // id de la transacción
	Key         string // clave de partición (product_id)
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}
