package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault es la cola donde corren las tareas del ledger.
	QueueDefault = "default"

	// TaskReconcile compara el stock de cada lote con la suma del ledger.
	TaskReconcile = "inventory:reconcile"
	// TaskOutboxRelay publica en Kafka los eventos pendientes del outbox.
	TaskOutboxRelay = "inventory:outbox_relay"
)

// ScheduledPayload lleva el instante en que se programó la tarea.
type ScheduledPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

func NewReconcileTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskReconcile, at, asynq.MaxRetry(3))
}

// NewOutboxRelayTask: sin reintentos propios, la siguiente corrida del cron retoma lo pendiente.
func NewOutboxRelayTask(at time.Time) (*asynq.Task, error) {
	return newScheduledTask(TaskOutboxRelay, at, asynq.MaxRetry(0), asynq.Unique(time.Minute))
}

func newScheduledTask(typename string, at time.Time, opts ...asynq.Option) (*asynq.Task, error) {
	body, err := json.Marshal(ScheduledPayload{ScheduledFor: at.UTC()})
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{asynq.Queue(QueueDefault)}, opts...)
	return asynq.NewTask(typename, body, opts...), nil
}

func decodeScheduled(t *asynq.Task) (ScheduledPayload, error) {
	var p ScheduledPayload
	if len(t.Payload()) == 0 {
		return p, nil
	}
	err := json.Unmarshal(t.Payload(), &p)
	return p, err
}
