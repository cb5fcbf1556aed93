// Package cli реализует команды calltrace.
//
// Команды:
//   - demo    — инструментирует calculate_payment и выполняет успешный
//     и ошибочный вызов через настроенный Sink;
//   - migrate — создаёт схему и коллекцию записей в Postgres;
//   - ingest  — переносит записи из RabbitMQ в Postgres, отдаёт
//     /healthz и /metrics.
//
// Конфигурация читается из окружения (см. internal/config). Каждая
// команда создаётся фабричной функцией, принимающей configFn и outputFn —
// замыкания, вызываемые после парсинга флагов.
package cli
