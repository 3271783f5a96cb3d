package app

import "time"

// Config описывает настройки запуска сервиса.
// Пустой KafkaDLQTopic отключает отправку в DLQ.
type Config struct {
	HTTPAddr           string
	MetricsAddr        string
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaDLQTopic      string
	OutboxPollInterval time.Duration
	ShutdownTimeout    time.Duration
}

// DefaultConfig возвращает базовые адреса API и HTTP-метрик; Kafka выключена.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		MetricsAddr:        ":9090",
		KafkaTopic:         "todo.events",
		KafkaDLQTopic:      "todo.events.dlq",
		OutboxPollInterval: time.Second,
		ShutdownTimeout:    5 * time.Second,
	}
}

// EventsEnabled сообщает, настроена ли публикация событий.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
