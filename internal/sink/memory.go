package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/calltrace/internal/domain"
)

// MemorySink хранит документы в памяти.
type MemorySink struct {
	name string
	now  func() time.Time

	mu   sync.RWMutex
	docs []domain.Payload
	fail error
}

// NewMemorySink создаёт MemorySink с именем name.
func NewMemorySink(name string) *MemorySink {
	return &MemorySink{name: name, now: time.Now}
}

// ID возвращает "memory:<name>".
func (s *MemorySink) ID() string {
	return "memory:" + s.name
}

// Persist сохраняет обогащённую копию payload.
func (s *MemorySink) Persist(_ context.Context, level slog.Level, payload domain.Payload) error {
	doc := Enrich(payload, level, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, s.ID(), s.fail)
	}
	s.docs = append(s.docs, doc)
	return nil
}

// FailWith заставляет последующие Persist возвращать err. nil снимает сбой.
func (s *MemorySink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Documents возвращает копию сохранённых документов.
func (s *MemorySink) Documents() []domain.Payload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Payload, len(s.docs))
	copy(out, s.docs)
	return out
}

// Len возвращает количество сохранённых документов.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Reset удаляет все документы.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
}
