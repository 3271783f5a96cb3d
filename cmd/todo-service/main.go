package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/todo/internal/app"
	"github.com/vladislavdragonenkov/todo/internal/version"
)

const (
	envHTTPAddr        = "TODO_HTTP_ADDR"
	envMetricsAddr     = "TODO_METRICS_ADDR"
	envLogLevel        = "TODO_LOG_LEVEL"
	envShutdownTimeout = "TODO_SHUTDOWN_TIMEOUT"
	envKafkaBrokers    = "TODO_KAFKA_BROKERS"
	envKafkaTopic      = "TODO_KAFKA_TOPIC"
	envKafkaDLQTopic   = "TODO_KAFKA_DLQ_TOPIC"
	envOutboxPoll      = "TODO_OUTBOX_POLL_INTERVAL"
)

type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if strings.TrimSpace(level) == "" {
		log.SetLevel(log.InfoLevel)
		return nil
	}
	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		log.SetLevel(log.InfoLevel)
		return err
	}
	log.SetLevel(parsed)
	return nil
}

// readConfigFromEnv формирует конфигурацию; некорректные значения
// заменяются значениями по умолчанию и попадают в warnings.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	if v, ok := lookupTrimmed(lookup, envHTTPAddr); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookupTrimmed(lookup, envShutdownTimeout); ok {
		timeout, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using %s", envShutdownTimeout, err, cfg.ShutdownTimeout))
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}
	if v, ok := lookupTrimmed(lookup, envKafkaBrokers); ok {
		cfg.KafkaBrokers = parseList(v)
	}
	if v, ok := lookupTrimmed(lookup, envKafkaTopic); ok {
		cfg.KafkaTopic = v
	}
	// Пустое значение явно отключает DLQ.
	if v, ok := lookup(envKafkaDLQTopic); ok {
		cfg.KafkaDLQTopic = strings.TrimSpace(v)
	}
	if v, ok := lookupTrimmed(lookup, envOutboxPoll); ok {
		interval, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using %s", envOutboxPoll, err, cfg.OutboxPollInterval))
		} else {
			cfg.OutboxPollInterval = interval
		}
	}

	return cfg, warnings
}

func lookupTrimmed(lookup envLookup, key string) (string, bool) {
	value, ok := lookup(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func parseDuration(value string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if !valid(parsed) {
		return 0, fmt.Errorf("%s %s", parsed, rule)
	}
	return parsed, nil
}

func main() {
	if err := setupLogger(os.Getenv(envLogLevel)); err != nil {
		log.WithError(err).Warn("invalid log level, using info")
	}
	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":     cfg.HTTPAddr,
		"metrics_addr":  cfg.MetricsAddr,
		"kafka_brokers": cfg.KafkaBrokers,
		"build":         version.String(),
	}).Info("запускаем TodoService")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("TodoService остановлен")
}
