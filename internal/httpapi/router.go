package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/todo/internal/domain"
	"github.com/vladislavdragonenkov/todo/internal/metrics"
)

const (
	// BasePath — основной префикс API.
	BasePath = "/api/todos"
	itemPath = BasePath + "/{id}"
)

// Router связывает HTTP-маршруты с операциями TodoStore.
type Router struct {
	store     domain.TodoStore
	publisher domain.TodoEventPublisher
	metrics   *metrics.TodoMetrics
	logger    *log.Entry
	baseURL   func() string
	newID     func() string
	now       func() time.Time
}

// Option настраивает Router.
type Option func(*Router)

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics включает prometheus-метрики.
func WithMetrics(m *metrics.TodoMetrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithPublisher задаёт паблишер событий изменения задач.
func WithPublisher(p domain.TodoEventPublisher) Option {
	return func(r *Router) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithBaseURL подменяет источник базового адреса для поля url.
func WithBaseURL(fn func() string) Option {
	return func(r *Router) {
		if fn != nil {
			r.baseURL = fn
		}
	}
}

// NewRouter создаёт Router поверх хранилища.
func NewRouter(store domain.TodoStore, opts ...Option) *Router {
	r := &Router{
		store:     store,
		publisher: domain.NoopPublisher{},
		logger:    log.WithField("component", "httpapi"),
		baseURL:   BaseURLFromEnv,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.metrics.SetItems(store.Count())
	return r
}

// Handler возвращает http.Handler со всеми маршрутами и middleware.
func (rt *Router) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(metricsMiddleware(rt.metrics))

	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(preflight)

	// "/" оставлен как исторический алиас коллекции.
	for _, path := range []string{"/", BasePath, BasePath + "/"} {
		router.HandleFunc(path, rt.getAll).Methods(http.MethodGet)
		router.HandleFunc(path, rt.createTodo).Methods(http.MethodPost)
		router.HandleFunc(path, rt.deleteAll).Methods(http.MethodDelete)
	}

	router.HandleFunc(itemPath, rt.getTodo).Methods(http.MethodGet)
	router.HandleFunc(itemPath, rt.updateTodo).Methods(http.MethodPost, http.MethodPut, http.MethodPatch)
	router.HandleFunc(itemPath, rt.deleteTodo).Methods(http.MethodDelete)

	return withRequestLogging(rt.logger, withCORS(router))
}
