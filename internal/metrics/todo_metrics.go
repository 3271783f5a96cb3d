package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TodoMetrics содержит метрики HTTP API и хранилища задач.
// Методы безопасно вызывать на nil-получателе.
type TodoMetrics struct {
	// HTTP
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// Хранилище
	items prometheus.Gauge

	// События
	eventsPublished *prometheus.CounterVec
	eventsFailed    *prometheus.CounterVec

	// Outbox
	outboxAttempts  *prometheus.CounterVec
	outboxPending   prometheus.Gauge
	outboxOldestAge prometheus.Gauge
}

// NewTodoMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewTodoMetrics() *TodoMetrics {
	return NewTodoMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewTodoMetricsWithRegisterer регистрирует метрики в переданном реестре.
func NewTodoMetricsWithRegisterer(registerer prometheus.Registerer) *TodoMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &TodoMetrics{
		requestsTotal: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "todo_http_requests_total",
			Help: "Total number of HTTP requests handled by the todo API",
		}, []string{"route", "method", "code"}),
		requestDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "todo_http_request_duration_seconds",
			Help:    "Duration of todo API requests in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"route", "method"}),
		items: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "todo_items",
			Help: "Number of todo items currently stored",
		}),
		eventsPublished: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "todo_events_published_total",
			Help: "Total number of todo change events accepted for delivery",
		}, []string{"type"}),
		eventsFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "todo_events_failed_total",
			Help: "Total number of todo change events that failed to publish",
		}, []string{"type"}),
		outboxAttempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "todo_outbox_publish_attempts_total",
			Help: "Total number of outbox publish attempts grouped by result",
		}, []string{"result"}),
		outboxPending: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "todo_outbox_pending_records",
			Help: "Current number of pending records in the event outbox",
		}),
		outboxOldestAge: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "todo_outbox_oldest_pending_age_seconds",
			Help: "Age in seconds of the oldest pending outbox record",
		}),
	}
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// ObserveRequest учитывает завершённый HTTP-запрос.
func (m *TodoMetrics) ObserveRequest(route, method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// SetItems выставляет текущее количество задач.
func (m *TodoMetrics) SetItems(n int) {
	if m == nil {
		return
	}
	m.items.Set(float64(n))
}

// RecordEventPublished увеличивает счётчик опубликованных событий.
func (m *TodoMetrics) RecordEventPublished(eventType string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventFailed увеличивает счётчик неудачных публикаций.
func (m *TodoMetrics) RecordEventFailed(eventType string) {
	if m == nil {
		return
	}
	m.eventsFailed.WithLabelValues(eventType).Inc()
}

// RecordOutboxAttempt учитывает попытку публикации из outbox: sent, retry_error, failed.
func (m *TodoMetrics) RecordOutboxAttempt(result string) {
	if m == nil {
		return
	}
	m.outboxAttempts.WithLabelValues(result).Inc()
}

// SetOutboxBacklog выставляет размер backlog и возраст самой старой записи.
func (m *TodoMetrics) SetOutboxBacklog(pending int, oldestAge time.Duration) {
	if m == nil {
		return
	}
	if oldestAge < 0 {
		oldestAge = 0
	}
	m.outboxPending.Set(float64(pending))
	m.outboxOldestAge.Set(oldestAge.Seconds())
}
