package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/todo/internal/health"
	"github.com/vladislavdragonenkov/todo/internal/httpapi"
	"github.com/vladislavdragonenkov/todo/internal/service/outbox"
)

// Run запускает todo API и сервер метрик и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	deps := NewDependencies(cfg, logger)
	defer deps.Close()

	router := httpapi.NewRouter(
		deps.Store,
		httpapi.WithLogger(logger.WithField("layer", "http")),
		httpapi.WithMetrics(deps.Metrics),
		httpapi.WithPublisher(deps.Publisher),
	)

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, deps.Health)

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}

	stopWorker := startOutboxWorker(ctx, deps.OutboxWorker, cfg.ShutdownTimeout, logger)
	defer stopWorker()

	apiSrv := &http.Server{
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("todo API слушает %s", lis.Addr())
		errCh <- apiSrv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		stopWorker()
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		return ctx.Err()
	case err := <-errCh:
		stopWorker()
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startOutboxWorker запускает outbox worker в фоне. Возвращаемая функция
// останавливает его и дочищает outbox; повторные вызовы ничего не делают.
func startOutboxWorker(ctx context.Context, worker *outbox.Worker, timeout time.Duration, logger *log.Entry) func() {
	if worker == nil {
		return func() {}
	}

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("outbox worker запущен")
		worker.Run(workerCtx)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done

			if timeout <= 0 {
				timeout = 5 * time.Second
			}
			drainCtx, drainCancel := context.WithTimeout(context.Background(), timeout)
			defer drainCancel()
			worker.Drain(drainCtx)
			logger.Info("outbox worker остановлен")
		})
	}
}

// startMetricsServer запускает HTTP-обработчики /metrics и health checks.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, 0, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
