package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/todo/internal/domain"
	"github.com/vladislavdragonenkov/todo/internal/messaging/kafka"
)

// newKafkaProducer подменяется в тестах.
var newKafkaProducer = kafka.NewProducer

// initEventPublisher создаёт Kafka-паблишер, если брокеры заданы.
// Ошибка подключения не фатальна: сервис продолжает работу без событий.
func initEventPublisher(cfg Config, logger *log.Entry) (domain.TodoEventPublisher, *kafka.Producer) {
	if !cfg.EventsEnabled() {
		return domain.NoopPublisher{}, nil
	}

	producer, err := newKafkaProducer(cfg.KafkaBrokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return domain.NoopPublisher{}, nil
	}

	logger.WithFields(log.Fields{
		"brokers": cfg.KafkaBrokers,
		"topic":   cfg.KafkaTopic,
	}).Info("kafka producer initialized")
	return kafka.NewTodoEventPublisher(producer, cfg.KafkaTopic), producer
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
