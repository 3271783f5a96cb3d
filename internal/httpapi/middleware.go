package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/todo/internal/metrics"
)

const (
	// HeaderRequestID — заголовок корреляции запроса.
	HeaderRequestID = "X-Request-ID"

	allowedHeaders = "accept, content-type"
	allowedMethods = "GET,HEAD,POST,DELETE,OPTIONS,PUT,PATCH"
)

type ctxKey int

const loggerKey ctxKey = iota

// statusRecorder запоминает код ответа; без явного WriteHeader это 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// withCORS разрешает любой origin для всех ответов, включая 404 и 405.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// preflight отвечает на OPTIONS для любого пути.
func preflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
	w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
	w.WriteHeader(http.StatusOK)
}

// withRequestLogging присваивает request id и пишет access log.
func withRequestLogging(logger *log.Entry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		reqLogger := logger.WithField("request_id", requestID)
		ctx := context.WithValue(r.Context(), loggerKey, reqLogger)

		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r.WithContext(ctx))

		reqLogger.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("http request")
	})
}

// metricsMiddleware учитывает запросы по шаблону маршрута.
func metricsMiddleware(m *metrics.TodoMetrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := "unknown"
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)
			m.ObserveRequest(route, r.Method, rec.status, time.Since(start))
		})
	}
}

// loggerFrom возвращает логгер запроса или fallback.
func loggerFrom(ctx context.Context, fallback *log.Entry) *log.Entry {
	if l, ok := ctx.Value(loggerKey).(*log.Entry); ok && l != nil {
		return l
	}
	return fallback
}
