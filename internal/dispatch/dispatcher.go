package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shaiso/calltrace/internal/domain"
	"github.com/shaiso/calltrace/internal/sink"
	"github.com/shaiso/calltrace/internal/telemetry"
)

// ErrorHook получает сбои Sink. Вызывается синхронно из Emit.
type ErrorHook func(channel, sinkID string, level slog.Level, payload domain.Payload, err error)

// Dispatcher — реестр каналов.
type Dispatcher struct {
	mu       sync.Mutex
	channels map[string]*Channel

	onError ErrorHook
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// Config — конфигурация Dispatcher.
type Config struct {
	// OnError — обработчик сбоев Sink (опционально; по умолчанию пишет в Logger).
	OnError ErrorHook

	// Metrics — Prometheus метрики (опционально).
	Metrics *telemetry.Metrics

	// Logger — диагностический логгер (по умолчанию stderr).
	Logger *slog.Logger
}

// New создаёт Dispatcher.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.FallbackLogger()
	}

	d := &Dispatcher{
		channels: make(map[string]*Channel),
		onError:  cfg.OnError,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
	if d.onError == nil {
		d.onError = d.logError
	}
	return d
}

var (
	defaultOnce       sync.Once
	defaultDispatcher *Dispatcher
)

// Init инициализирует процессный Dispatcher.
// cfg применяется только при первом вызове Init или Default.
func Init(cfg Config) *Dispatcher {
	defaultOnce.Do(func() {
		defaultDispatcher = New(cfg)
	})
	return defaultDispatcher
}

// Default возвращает процессный Dispatcher.
func Default() *Dispatcher {
	return Init(Config{})
}

// GetOrCreateChannel возвращает канал name, создавая его при первом обращении.
// Повторные вызовы возвращают тот же канал без сброса порога и Sink.
func (d *Dispatcher) GetOrCreateChannel(name string) *Channel {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.channels[name]; ok {
		return c
	}
	c := newChannel(name)
	d.channels[name] = c
	return c
}

// Channels возвращает отсортированные имена каналов.
func (d *Dispatcher) Channels() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var names []string
	for name := range d.channels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RegisterSink регистрирует s в канале channel (идемпотентно).
// Возвращает true, если Sink добавлен впервые.
func (d *Dispatcher) RegisterSink(channel string, s sink.Sink) (bool, error) {
	added, err := d.GetOrCreateChannel(channel).Register(s)
	if err != nil {
		return false, fmt.Errorf("register sink in %s: %w", channel, err)
	}
	if added {
		d.logger.Debug("sink registered", "channel", channel, "sink", s.ID())
	}
	return added, nil
}

// SetLevel устанавливает порог канала.
func (d *Dispatcher) SetLevel(channel string, level slog.Level) {
	d.GetOrCreateChannel(channel).SetLevel(level)
}

// Emit передаёт payload каждому Sink канала, если level не ниже порога.
//
// Сбои и паники Sink не возвращаются вызывающему: они уходят в ErrorHook.
func (d *Dispatcher) Emit(ctx context.Context, channel string, level slog.Level, payload domain.Payload) {
	c := d.GetOrCreateChannel(channel)
	if !c.Enabled(level) {
		d.metrics.RecordFiltered(channel)
		return
	}
	d.metrics.RecordEmitted(channel, level.String())

	for _, s := range c.Sinks() {
		if err := d.persist(ctx, s, level, payload); err != nil {
			d.metrics.RecordPersistFailure(channel, s.ID())
			d.onError(channel, s.ID(), level, payload, err)
			continue
		}
		d.metrics.RecordPersisted(channel, s.ID())
	}
}

// EmitRecord передаёт запись вызова на уровне, соответствующем её статусу.
func (d *Dispatcher) EmitRecord(ctx context.Context, channel string, rec domain.Record) {
	d.Emit(ctx, channel, rec.Level(), rec.Payload())
}

// EmitMessage передаёт строковое сообщение как {"message": msg}.
func (d *Dispatcher) EmitMessage(ctx context.Context, channel string, level slog.Level, msg string) {
	d.Emit(ctx, channel, level, domain.Message(msg))
}

// persist вызывает Sink, превращая панику в ошибку.
func (d *Dispatcher) persist(ctx context.Context, s sink.Sink, level slog.Level, payload domain.Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanic, r)
		}
	}()
	return s.Persist(ctx, level, payload)
}

// logError — ErrorHook по умолчанию.
func (d *Dispatcher) logError(channel, sinkID string, level slog.Level, payload domain.Payload, err error) {
	logger := telemetry.WithSink(telemetry.WithChannel(d.logger, channel), sinkID)
	logger.Warn("failed to persist record",
		"level", level.String(),
		"function", payload["function"],
		"error", err,
	)
}
