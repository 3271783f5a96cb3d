package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/todo/internal/domain"
)

var errPublisherNotInitialized = errors.New("kafka todo publisher is not initialized")

// TodoEventPublisher публикует события изменения задач в Kafka topic.
type TodoEventPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewTodoEventPublisher создаёт паблишер; пустой topic заменяется на TopicTodoEvents.
func NewTodoEventPublisher(producer *Producer, topic string) *TodoEventPublisher {
	if topic == "" {
		topic = TopicTodoEvents
	}
	return &TodoEventPublisher{
		producer: producer,
		topic:    topic,
		now:      time.Now,
	}
}

// Publish отправляет событие; ключ сообщения — идентификатор задачи.
func (p *TodoEventPublisher) Publish(ctx context.Context, event domain.TodoEvent) error {
	return p.publish(ctx, event)
}

// PublishDeadLetter отправляет событие в topic паблишера (DLQ) и добавляет
// заголовки с последней ошибкой публикации и временем отправки в DLQ.
func (p *TodoEventPublisher) PublishDeadLetter(ctx context.Context, event domain.TodoEvent, cause error) error {
	if p == nil || p.producer == nil {
		return errPublisherNotInitialized
	}
	return p.publish(ctx, event, deadLetterHeaders(cause, p.now())...)
}

func (p *TodoEventPublisher) publish(ctx context.Context, event domain.TodoEvent, extra ...sarama.RecordHeader) error {
	if p == nil || p.producer == nil {
		return errPublisherNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	headers := append([]sarama.RecordHeader{
		{Key: []byte(HeaderEventType), Value: []byte(event.Type)},
		{Key: []byte(HeaderEventID), Value: []byte(event.ID)},
	}, extra...)

	return p.producer.PublishEvent(p.topic, event.Key(), NewTodoEventMessage(event), headers...)
}

func deadLetterHeaders(cause error, at time.Time) []sarama.RecordHeader {
	publishErr := "unknown"
	if cause != nil {
		publishErr = cause.Error()
	}
	return []sarama.RecordHeader{
		{Key: []byte(HeaderPublishError), Value: []byte(publishErr)},
		{Key: []byte(HeaderDLQPublishedAt), Value: []byte(at.UTC().Format(time.RFC3339Nano))},
	}
}

// Topic возвращает topic публикации.
func (p *TodoEventPublisher) Topic() string {
	return p.topic
}

var (
	_ domain.TodoEventPublisher      = (*TodoEventPublisher)(nil)
	_ domain.TodoDeadLetterPublisher = (*TodoEventPublisher)(nil)
)
