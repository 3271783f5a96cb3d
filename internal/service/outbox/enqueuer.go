package outbox

import (
	"context"

	"github.com/vladislavdragonenkov/todo/internal/domain"
)

// Enqueuer реализует domain.TodoEventPublisher поверх outbox: событие
// сохраняется и позже отправляется Worker.
type Enqueuer struct {
	outbox domain.TodoEventOutbox
}

// NewEnqueuer создаёт паблишер, пишущий в outbox.
func NewEnqueuer(outbox domain.TodoEventOutbox) *Enqueuer {
	return &Enqueuer{outbox: outbox}
}

// Publish ставит событие в очередь outbox.
func (e *Enqueuer) Publish(ctx context.Context, event domain.TodoEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.outbox.Enqueue(event)
	return err
}

var _ domain.TodoEventPublisher = (*Enqueuer)(nil)
