package dispatch

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/shaiso/calltrace/internal/domain"
	"github.com/shaiso/calltrace/internal/sink"
)

// Channel — именованный канал с порогом уровня и набором Sink.
type Channel struct {
	name  string
	level atomic.Int64

	mu    sync.RWMutex
	sinks map[string]sink.Sink
	order []string
}

func newChannel(name string) *Channel {
	c := &Channel{
		name:  name,
		sinks: make(map[string]sink.Sink),
	}
	c.level.Store(int64(domain.LevelAll))
	return c
}

// Name возвращает имя канала.
func (c *Channel) Name() string {
	return c.name
}

// Level возвращает текущий порог.
func (c *Channel) Level() slog.Level {
	return slog.Level(c.level.Load())
}

// SetLevel устанавливает порог. Записи с уровнем ниже порога отбрасываются.
func (c *Channel) SetLevel(level slog.Level) {
	c.level.Store(int64(level))
}

// Enabled сообщает, пропускает ли канал уровень level.
func (c *Channel) Enabled(level slog.Level) bool {
	return level >= c.Level()
}

// Register добавляет Sink, если эквивалентный ещё не зарегистрирован.
// Возвращает true, если Sink добавлен.
func (c *Channel) Register(s sink.Sink) (bool, error) {
	if s == nil {
		return false, ErrNilSink
	}

	id := s.ID()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sinks[id]; ok {
		return false, nil
	}
	c.sinks[id] = s
	c.order = append(c.order, id)
	return true, nil
}

// Unregister удаляет Sink по ID.
func (c *Channel) Unregister(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sinks[id]; !ok {
		return false
	}
	delete(c.sinks, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	return true
}

// Sinks возвращает снимок зарегистрированных Sink в порядке регистрации.
func (c *Channel) Sinks() []sink.Sink {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]sink.Sink, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.sinks[id])
	}
	return out
}
