// Package telemetry обеспечивает собственную наблюдаемость calltrace.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики диспетчера и инструментатора
//
// Диагностика пути наблюдаемости (ошибки Sink, деградация сериализации)
// пишется сюда и никогда не возвращается в бизнес-код.
package telemetry
