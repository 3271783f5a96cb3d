package app

import (
	"errors"
	"testing"

	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/todo/internal/domain"
	"github.com/vladislavdragonenkov/todo/internal/messaging/kafka"
)

func withKafkaFactory(t *testing.T, factory func([]string) (*kafka.Producer, error)) {
	t.Helper()

	original := newKafkaProducer
	newKafkaProducer = factory
	t.Cleanup(func() { newKafkaProducer = original })
}

func TestInitEventPublisher_Disabled(t *testing.T) {
	withKafkaFactory(t, func([]string) (*kafka.Producer, error) {
		t.Fatal("producer must not be created without brokers")
		return nil, nil
	})

	publisher, producer := initEventPublisher(DefaultConfig(), log.WithField("test", "kafka-disabled"))

	assert.IsType(t, domain.NoopPublisher{}, publisher)
	assert.Nil(t, producer)
}

func TestInitEventPublisher_ConnectFailure(t *testing.T) {
	withKafkaFactory(t, func([]string) (*kafka.Producer, error) {
		return nil, errors.New("no brokers reachable")
	})

	cfg := DefaultConfig()
	cfg.KafkaBrokers = []string{"localhost:1"}

	publisher, producer := initEventPublisher(cfg, log.WithField("test", "kafka-failure"))

	assert.IsType(t, domain.NoopPublisher{}, publisher)
	assert.Nil(t, producer)
}

func TestInitEventPublisher_Success(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	var gotBrokers []string
	withKafkaFactory(t, func(brokers []string) (*kafka.Producer, error) {
		gotBrokers = brokers
		return kafka.NewProducerWithClient(mockProducer, nil), nil
	})

	cfg := DefaultConfig()
	cfg.KafkaBrokers = []string{"b1:9092", "b2:9092"}
	cfg.KafkaTopic = "custom.todo"

	publisher, producer := initEventPublisher(cfg, log.WithField("test", "kafka-success"))

	require.NotNil(t, producer)
	require.IsType(t, &kafka.TodoEventPublisher{}, publisher)
	assert.Equal(t, "custom.todo", publisher.(*kafka.TodoEventPublisher).Topic())
	assert.Equal(t, cfg.KafkaBrokers, gotBrokers)

	closeKafka(producer, log.WithField("test", "kafka-success"))
	assert.Error(t, producer.Healthy())
}

func TestCloseKafka_Nil(_ *testing.T) {
	// Не должно паниковать
	closeKafka(nil, log.WithField("test", "kafka-nil"))
}
