package domain

import (
	"errors"
	"time"
)

// ErrOutboxRecordNotFound — записи с таким ID нет в outbox.
var ErrOutboxRecordNotFound = errors.New("outbox record not found")

// OutboxStats описывает backlog неотправленных событий.
type OutboxStats struct {
	PendingCount    int
	FailedCount     int
	OldestPendingAt time.Time
}

// TodoEventOutbox буферизует события между HTTP-слоем и брокером.
type TodoEventOutbox interface {
	Enqueue(event TodoEvent) (TodoEvent, error)
	// PullPending возвращает pending-события в порядке постановки.
	PullPending(limit int) ([]TodoEvent, error)
	MarkSent(id string) error
	MarkFailed(id string) error
	Stats() (OutboxStats, error)
}
