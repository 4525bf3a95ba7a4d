package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/messaging"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/observability"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger-api/internal/jobs"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	if !cfg.Redis.Enabled() {
		log.Fatal().Msg("REDIS_ADDR es obligatorio para el worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName:    cfg.App.Name + "-worker",
		ServiceVersion: "1.0.0",
		Endpoint:       cfg.OTel.Endpoint,
		Insecure:       cfg.App.Env != "production",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar tracing")
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	reconcileUC := inventory.NewReconcileUseCase(postgres.NewReconciliationRepository(pool), nil, log.Component("reconcile"))

	now := time.Now().UTC()
	reconcileTask, err := jobs.NewReconcileTask(now)
	if err != nil {
		log.Fatal().Err(err).Msg("armar tarea de conciliación")
	}
	cron := []jobs.CronRegistration{{Spec: cfg.Jobs.ReconcileCron, Task: reconcileTask}}

	// Sin brokers no hay relay: los eventos quedan en el outbox hasta que se configure Kafka.
	var relayer jobs.Relayer
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		relayer = inventory.NewOutboxRelayUseCase(postgres.NewOutboxRepository(pool), publisher, cfg.Jobs.OutboxBatchSize, log.Component("outbox"))

		relayTask, err := jobs.NewOutboxRelayTask(now)
		if err != nil {
			log.Fatal().Err(err).Msg("armar tarea de outbox")
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.Jobs.OutboxRelayCron, Task: relayTask})
	} else {
		log.Warn().Msg("KAFKA_BROKERS vacío: relay de outbox deshabilitado")
	}

	handlers := jobs.NewHandlers(reconcileUC, relayer, log)
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		Logger:    log,
		Handlers:  handlers.TaskHandlers(),
		Cron:      cron,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar worker")
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cierre del exportador de trazas")
	}
	log.Info().Msg("worker detenido")
}
