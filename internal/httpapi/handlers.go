package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/todo/internal/domain"
)

func (rt *Router) getAll(w http.ResponseWriter, r *http.Request) {
	rt.send(w, r, renderTodos(rt.store.GetAll(), rt.baseURL))
}

// getTodo на отсутствующий id ничего не пишет в ответ: net/http отдаст
// пустой 200.
func (rt *Router) getTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		rt.fail(w, r, domain.ErrIDRequired, "no id passed in")
		return
	}

	item, ok := rt.store.GetTodo(id)
	if !ok {
		loggerFrom(r.Context(), rt.logger).WithField("todo_id", id).Warn("todo not found, response left empty")
		return
	}
	rt.send(w, r, renderTodo(item, rt.baseURL))
}

func (rt *Router) createTodo(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTodoRequest(w, r)
	if err != nil {
		rt.fail(w, r, err, "invalid json")
		return
	}
	if !req.Title.Valid {
		rt.fail(w, r, domain.ErrTitleRequired, "no title in json")
		return
	}

	item := rt.store.Add(req.Title.Value, req.Order.Ptr(), req.Completed.Ptr())
	loggerFrom(r.Context(), rt.logger).WithFields(log.Fields{
		"todo_id":   item.ID,
		"completed": item.IsCompleted(),
	}).Debug("todo created")

	rt.afterChange(r.Context(), domain.TodoEventCreated, item.ID, &item)
	rt.send(w, r, renderTodo(item, rt.baseURL))
}

// updateTodo проверяет тело раньше id; на отсутствующий id отвечает 500, а не 404.
func (rt *Router) updateTodo(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTodoRequest(w, r)
	if err != nil {
		rt.fail(w, r, err, "invalid json")
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		rt.fail(w, r, domain.ErrIDRequired, "no id")
		return
	}

	item, ok := rt.store.UpdateTodo(id, req.Title.Ptr(), req.Order.Ptr(), req.Completed.Ptr())
	if !ok {
		rt.fail(w, r, fmt.Errorf("todo %s: %w", id, domain.ErrTodoNotFound), "unable to update that todo")
		return
	}
	loggerFrom(r.Context(), rt.logger).WithFields(log.Fields{
		"todo_id":   item.ID,
		"completed": item.IsCompleted(),
	}).Debug("todo updated")

	rt.afterChange(r.Context(), domain.TodoEventUpdated, item.ID, &item)
	rt.send(w, r, renderTodo(item, rt.baseURL))
}

func (rt *Router) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		rt.fail(w, r, domain.ErrIDRequired, "no id")
		return
	}

	rt.store.DeleteTodo(id)
	rt.afterChange(r.Context(), domain.TodoEventDeleted, id, nil)
	w.WriteHeader(http.StatusOK)
}

func (rt *Router) deleteAll(w http.ResponseWriter, r *http.Request) {
	rt.store.DeleteAll()
	rt.afterChange(r.Context(), domain.TodoEventCleared, "", nil)
	w.WriteHeader(http.StatusOK)
}

// statusFor: ошибки клиента дают 400, всё остальное 500.
func statusFor(err error) int {
	if domain.IsBadRequest(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail логирует ошибку и отвечает пустым телом.
func (rt *Router) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	loggerFrom(r.Context(), rt.logger).WithError(err).Error(msg)
	w.WriteHeader(statusFor(err))
}

// send пишет 200 с JSON-телом.
func (rt *Router) send(w http.ResponseWriter, r *http.Request, v interface{}) {
	if err := writeJSON(w, http.StatusOK, v); err != nil {
		loggerFrom(r.Context(), rt.logger).WithError(err).Error("failed to send a response")
	}
}

// afterChange обновляет метрики и публикует событие. Ошибка публикации
// не влияет на ответ клиенту.
func (rt *Router) afterChange(ctx context.Context, eventType domain.TodoEventType, todoID string, item *domain.TodoItem) {
	rt.metrics.SetItems(rt.store.Count())
	if _, noop := rt.publisher.(domain.NoopPublisher); noop {
		return
	}

	event := domain.TodoEvent{
		ID:         rt.newID(),
		Type:       eventType,
		TodoID:     todoID,
		Todo:       item,
		OccurredAt: rt.now().UTC(),
	}
	// Изменение уже применено: отключение клиента не должно отменять событие.
	if err := rt.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		rt.metrics.RecordEventFailed(string(eventType))
		loggerFrom(ctx, rt.logger).WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"todo_id":    todoID,
		}).Warn("failed to publish todo event")
		return
	}
	rt.metrics.RecordEventPublished(string(eventType))
}
