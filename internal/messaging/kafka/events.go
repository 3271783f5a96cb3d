package kafka

import (
	"time"

	"github.com/vladislavdragonenkov/todo/internal/domain"
)

// TopicTodoEvents — topic по умолчанию для событий изменения задач
const TopicTodoEvents = "todo.events"

// Kafka headers
const (
	HeaderEventType      = "x-event-type"
	HeaderEventID        = "x-event-id"
	HeaderPublishError   = "x-publish-error"
	HeaderDLQPublishedAt = "x-dlq-published-at"
)

// TodoPayload — состояние задачи внутри события
type TodoPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Order     *int   `json:"order"`
	Completed *bool  `json:"completed"`
}

// TodoEventMessage — JSON-представление domain.TodoEvent в Kafka
type TodoEventMessage struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	TodoID     string       `json:"todo_id,omitempty"`
	Todo       *TodoPayload `json:"todo"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// NewTodoEventMessage переводит доменное событие в формат сообщения
func NewTodoEventMessage(event domain.TodoEvent) *TodoEventMessage {
	msg := &TodoEventMessage{
		ID:         event.ID,
		Type:       string(event.Type),
		TodoID:     event.TodoID,
		OccurredAt: event.OccurredAt.UTC(),
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now().UTC()
	}
	if event.Todo != nil {
		item := event.Todo.Clone()
		msg.Todo = &TodoPayload{
			ID:        item.ID,
			Title:     item.Title,
			Order:     item.Order,
			Completed: item.Completed,
		}
	}
	return msg
}
