package domain

import "context"

// TodoEventPublisher передаёт события изменения задач во внешние системы.
type TodoEventPublisher interface {
	Publish(ctx context.Context, event TodoEvent) error
}

// NoopPublisher отбрасывает события; используется, когда брокер не настроен.
type NoopPublisher struct{}

// Publish ничего не делает.
func (NoopPublisher) Publish(context.Context, TodoEvent) error { return nil }

var _ TodoEventPublisher = NoopPublisher{}

// TodoDeadLetterPublisher получает события, не доставленные после всех попыток,
// вместе с последней ошибкой публикации.
type TodoDeadLetterPublisher interface {
	PublishDeadLetter(ctx context.Context, event TodoEvent, cause error) error
}
