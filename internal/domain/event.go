package domain

import "time"

// TodoEventType определяет тип события изменения списка.
type TodoEventType string

const (
	TodoEventCreated TodoEventType = "todo.created"
	TodoEventUpdated TodoEventType = "todo.updated"
	TodoEventDeleted TodoEventType = "todo.deleted"
	TodoEventCleared TodoEventType = "todo.cleared"
)

// TodoEvent описывает изменение, совершённое через API.
type TodoEvent struct {
	ID         string
	Type       TodoEventType
	TodoID     string
	Todo       *TodoItem
	OccurredAt time.Time
}

// Key возвращает ключ партиционирования события.
func (e TodoEvent) Key() string {
	if e.TodoID != "" {
		return e.TodoID
	}
	return e.ID
}
