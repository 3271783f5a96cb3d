package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/todo/internal/domain"
)

const (
	outboxStatusPending = "pending"
	outboxStatusFailed  = "failed"
)

// outboxRecord хранит событие и служебные поля.
type outboxRecord struct {
	event     domain.TodoEvent
	status    string
	seq       uint64
	attempts  int
	createdAt time.Time
	updatedAt time.Time
}

// eventOutboxInMemory — in-memory outbox событий. Отправленные записи удаляются,
// failed остаются для диагностики.
type eventOutboxInMemory struct {
	mu      sync.RWMutex
	records map[string]*outboxRecord
	seq     uint64
	now     func() time.Time
}

// NewEventOutbox создаёт пустой in-memory outbox.
func NewEventOutbox() domain.TodoEventOutbox {
	return &eventOutboxInMemory{
		records: make(map[string]*outboxRecord),
		now:     time.Now,
	}
}

// Enqueue сохраняет событие со статусом pending. Пустой ID заполняется.
func (o *eventOutboxInMemory) Enqueue(event domain.TodoEvent) (domain.TodoEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event = cloneEvent(event)

	o.seq++
	now := o.now().UTC()
	o.records[event.ID] = &outboxRecord{
		event:     event,
		status:    outboxStatusPending,
		seq:       o.seq,
		createdAt: now,
		updatedAt: now,
	}
	return cloneEvent(event), nil
}

// PullPending возвращает до limit pending-событий в порядке постановки.
func (o *eventOutboxInMemory) PullPending(limit int) ([]domain.TodoEvent, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	pending := make([]*outboxRecord, 0, len(o.records))
	for _, rec := range o.records {
		if rec.status == outboxStatusPending {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].seq < pending[j].seq })
	if len(pending) > limit {
		pending = pending[:limit]
	}

	result := make([]domain.TodoEvent, 0, len(pending))
	for _, rec := range pending {
		result = append(result, cloneEvent(rec.event))
	}
	return result, nil
}

// MarkSent удаляет запись после успешной публикации.
func (o *eventOutboxInMemory) MarkSent(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.records[id]; !ok {
		return domain.ErrOutboxRecordNotFound
	}
	delete(o.records, id)
	return nil
}

// MarkFailed фиксирует исчерпание попыток публикации.
func (o *eventOutboxInMemory) MarkFailed(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	rec, ok := o.records[id]
	if !ok {
		return domain.ErrOutboxRecordNotFound
	}
	rec.status = outboxStatusFailed
	rec.attempts++
	rec.updatedAt = o.now().UTC()
	return nil
}

// Stats возвращает размер backlog и время самой старой pending-записи.
func (o *eventOutboxInMemory) Stats() (domain.OutboxStats, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var stats domain.OutboxStats
	for _, rec := range o.records {
		switch rec.status {
		case outboxStatusPending:
			stats.PendingCount++
			if stats.OldestPendingAt.IsZero() || rec.createdAt.Before(stats.OldestPendingAt) {
				stats.OldestPendingAt = rec.createdAt
			}
		case outboxStatusFailed:
			stats.FailedCount++
		}
	}
	return stats, nil
}

func cloneEvent(event domain.TodoEvent) domain.TodoEvent {
	if event.Todo != nil {
		item := event.Todo.Clone()
		event.Todo = &item
	}
	return event
}
