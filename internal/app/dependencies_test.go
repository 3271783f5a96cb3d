package app

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/todo/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/todo/internal/health"
	"github.com/vladislavdragonenkov/todo/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/todo/internal/service/outbox"
)

func runHealth(t *testing.T, deps *Dependencies) healthcheck.Response {
	t.Helper()
	return serveHealth(t, deps.Health)
}

func TestNewDependencies_Defaults(t *testing.T) {
	deps := NewDependencies(DefaultConfig(), nil)
	defer deps.Close()

	require.NotNil(t, deps.Store)
	require.NotNil(t, deps.Metrics)
	require.NotNil(t, deps.Health)
	require.NotNil(t, deps.Logger)
	assert.Nil(t, deps.Producer)

	deps.Store.Add("A", nil, nil)

	resp := runHealth(t, deps)
	assert.Equal(t, healthcheck.StatusHealthy, resp.Status)
	assert.Equal(t, "items=1", resp.Checks["store"].Message)
	assert.Equal(t, "disabled", resp.Checks["kafka"].Message)
	assert.Equal(t, "disabled", resp.Checks["outbox"].Message)
	assert.Nil(t, deps.Outbox)
	assert.Nil(t, deps.OutboxWorker)
}

func TestNewDependencies_KafkaUnavailableIsDegraded(t *testing.T) {
	withKafkaFactory(t, func([]string) (*kafka.Producer, error) {
		return nil, assert.AnError
	})

	cfg := DefaultConfig()
	cfg.KafkaBrokers = []string{"localhost:1"}
	deps := NewDependencies(cfg, log.WithField("test", "deps"))
	defer deps.Close()

	resp := runHealth(t, deps)
	assert.Equal(t, healthcheck.StatusDegraded, resp.Status)
	assert.Equal(t, healthcheck.StatusDegraded, resp.Checks["kafka"].Status)
}

func TestNewDependencies_KafkaConnected(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	withKafkaFactory(t, func([]string) (*kafka.Producer, error) {
		return kafka.NewProducerWithClient(mockProducer, nil), nil
	})

	cfg := DefaultConfig()
	cfg.KafkaBrokers = []string{"localhost:9092"}
	deps := NewDependencies(cfg, log.WithField("test", "deps"))

	require.NotNil(t, deps.Outbox)
	require.NotNil(t, deps.OutboxWorker)
	assert.IsType(t, &outbox.Enqueuer{}, deps.Publisher)

	resp := runHealth(t, deps)
	assert.Equal(t, healthcheck.StatusHealthy, resp.Status)
	assert.Equal(t, "connected", resp.Checks["kafka"].Message)
	assert.Equal(t, "pending=0 failed=0", resp.Checks["outbox"].Message)

	deps.Close()

	resp = runHealth(t, deps)
	assert.Equal(t, healthcheck.StatusDegraded, resp.Checks["kafka"].Status)
}

func TestOutboxWorker_DeliversOnStop(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndSucceed()
	mockProducer.ExpectSendMessageAndSucceed()
	withKafkaFactory(t, func([]string) (*kafka.Producer, error) {
		return kafka.NewProducerWithClient(mockProducer, nil), nil
	})

	cfg := DefaultConfig()
	cfg.KafkaBrokers = []string{"localhost:9092"}
	cfg.OutboxPollInterval = time.Hour
	deps := NewDependencies(cfg, log.WithField("test", "outbox"))
	defer deps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := startOutboxWorker(ctx, deps.OutboxWorker, time.Second, deps.Logger)

	for _, eventType := range []domain.TodoEventType{domain.TodoEventCreated, domain.TodoEventCleared} {
		require.NoError(t, deps.Publisher.Publish(ctx, domain.TodoEvent{ID: string(eventType), Type: eventType}))
	}

	stop()
	stop()

	stats, err := deps.Outbox.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.PendingCount)
	assert.Equal(t, 0, stats.FailedCount)
}

func TestStartOutboxWorker_Nil(_ *testing.T) {
	stop := startOutboxWorker(context.Background(), nil, time.Second, log.WithField("test", "outbox-nil"))
	stop()
}
