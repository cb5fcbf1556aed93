package dispatch

import "errors"

// Ошибки диспетчера.
var (
	// ErrNilSink — попытка зарегистрировать nil Sink.
	ErrNilSink = errors.New("nil sink")

	// ErrSinkPanic — Sink запаниковал в Persist.
	ErrSinkPanic = errors.New("sink panicked")
)
