// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, publisher confirms)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация записей телеметрии
//   - consumer.go   — потребление записей для сохранения (ack, nack, DLQ)
//
// Типы сообщений:
//   - record.persist — запись телеметрии, ожидающая сохранения
//
// Exchanges:
//   - calltrace.records — записи телеметрии
//   - calltrace.dlq     — dead letter queue
package mq
