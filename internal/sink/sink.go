package sink

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shaiso/calltrace/internal/domain"
)

// ErrPersist — Sink не смог сохранить запись.
var ErrPersist = errors.New("persist failed")

// Sink — получатель записей телеметрии.
type Sink interface {
	// ID идентифицирует конфигурацию Sink.
	// Два Sink с одинаковым ID считаются эквивалентными.
	ID() string

	// Persist сохраняет payload с уровнем level.
	Persist(ctx context.Context, level slog.Level, payload domain.Payload) error
}

// Enrich возвращает копию payload с полями timestamp и level.
func Enrich(payload domain.Payload, level slog.Level, now time.Time) domain.Payload {
	doc := payload.Clone()
	doc["timestamp"] = now
	doc["level"] = level.String()
	return doc
}
