package mq

import "errors"

// Ошибки MQ.
var (
	// ErrNoChannel — AMQP канал недоступен (нет соединения или идёт reconnect).
	ErrNoChannel = errors.New("no channel available")

	// ErrNacked — брокер не подтвердил публикацию.
	ErrNacked = errors.New("publish not confirmed")

	// ErrDiscard — handler отказывается от сообщения: nack без requeue (в DLQ).
	ErrDiscard = errors.New("discard message")
)
