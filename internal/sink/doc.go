// Package sink содержит получателей записей телеметрии.
//
// Sink принимает Payload и уровень, обогащает документ полями timestamp
// и level и сохраняет его ровно одной записью. Ошибки хранилища
// возвращаются обёрнутыми в ErrPersist и никогда не паникуют.
//
// Реализации:
//   - MemorySink   — in-memory хранилище (тесты, demo)
//   - PostgresSink — jsonb-коллекция в Postgres
//   - AMQPSink     — публикация в RabbitMQ, сохраняет ingest worker
package sink
