package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/todo/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/todo/internal/health"
	"github.com/vladislavdragonenkov/todo/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/todo/internal/metrics"
	"github.com/vladislavdragonenkov/todo/internal/service/outbox"
	"github.com/vladislavdragonenkov/todo/internal/storage/memory"
	"github.com/vladislavdragonenkov/todo/internal/version"
)

// Dependencies содержит все зависимости приложения.
// Publisher получает события от HTTP-слоя: Noop или запись в Outbox.
type Dependencies struct {
	Store        domain.TodoStore
	Publisher    domain.TodoEventPublisher
	Outbox       domain.TodoEventOutbox
	OutboxWorker *outbox.Worker
	Producer     *kafka.Producer
	Metrics      *metrics.TodoMetrics
	Health       *healthcheck.Handler
	Logger       *log.Entry
}

// NewDependencies создаёт хранилище, метрики, паблишер и health-проверки.
func NewDependencies(cfg Config, logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Store:   memory.NewTodoList(),
		Metrics: metrics.NewTodoMetrics(),
		Health:  healthcheck.NewHandler(version.GetVersion()),
		Logger:  logger,
	}

	brokerPublisher, producer := initEventPublisher(cfg, logger)
	deps.Producer = producer
	deps.Publisher = brokerPublisher
	if producer != nil {
		deps.Outbox = memory.NewEventOutbox()
		deps.Publisher = outbox.NewEnqueuer(deps.Outbox)

		opts := []outbox.Option{
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithMetrics(deps.Metrics),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
		}
		if cfg.KafkaDLQTopic != "" {
			opts = append(opts, outbox.WithDLQPublisher(kafka.NewTodoEventPublisher(producer, cfg.KafkaDLQTopic)))
		}
		deps.OutboxWorker = outbox.NewWorker(deps.Outbox, brokerPublisher, opts...)
	}

	store := deps.Store
	deps.Health.RegisterChecker("store", healthcheck.NewFuncChecker("store", func() (string, error) {
		return fmt.Sprintf("items=%d", store.Count()), nil
	}))

	enabled := cfg.EventsEnabled()
	deps.Health.RegisterChecker("kafka", healthcheck.NewFuncChecker("kafka", func() (string, error) {
		switch {
		case !enabled:
			return "disabled", nil
		case producer == nil:
			return "", fmt.Errorf("producer unavailable: %w", healthcheck.ErrDegraded)
		}
		if err := producer.Healthy(); err != nil {
			return "", fmt.Errorf("%v: %w", err, healthcheck.ErrDegraded)
		}
		return "connected", nil
	}))

	eventOutbox := deps.Outbox
	deps.Health.RegisterChecker("outbox", healthcheck.NewFuncChecker("outbox", func() (string, error) {
		if eventOutbox == nil {
			return "disabled", nil
		}
		stats, err := eventOutbox.Stats()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pending=%d failed=%d", stats.PendingCount, stats.FailedCount), nil
	}))

	return deps
}

// Close освобождает внешние ресурсы.
func (d *Dependencies) Close() {
	closeKafka(d.Producer, d.Logger)
}
