package instrument

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/calltrace/internal/dispatch"
	"github.com/shaiso/calltrace/internal/domain"
	"github.com/shaiso/calltrace/internal/sink"
	"github.com/shaiso/calltrace/internal/telemetry"
)

// DefaultChannel — канал по умолчанию.
const DefaultChannel = "calltrace"

// Instrumentor собирает записи о вызовах и передаёт их в Dispatcher.
type Instrumentor struct {
	dispatcher *dispatch.Dispatcher
	channel    string
	logger     *slog.Logger
	metrics    *telemetry.Metrics
	now        func() time.Time
}

// Config — конфигурация Instrumentor.
type Config struct {
	// Dispatcher (опционально; если nil — dispatch.Default()).
	Dispatcher *dispatch.Dispatcher

	// Channel — имя канала (default: "calltrace").
	Channel string

	// Sink регистрируется в канале при создании (опционально).
	// Повторная регистрация эквивалентного Sink — no-op.
	Sink sink.Sink

	// Level — порог канала (опционально; nil оставляет текущий).
	Level *slog.Level

	// Metrics — Prometheus метрики (опционально).
	Metrics *telemetry.Metrics

	// Logger — диагностический логгер (default: stderr).
	Logger *slog.Logger

	// Clock — источник времени (default: time.Now).
	Clock func() time.Time
}

// New создаёт Instrumentor.
func New(cfg Config) *Instrumentor {
	d := cfg.Dispatcher
	if d == nil {
		d = dispatch.Default()
	}

	channel := cfg.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.FallbackLogger()
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	d.GetOrCreateChannel(channel)
	if cfg.Sink != nil {
		if _, err := d.RegisterSink(channel, cfg.Sink); err != nil {
			logger.Warn("failed to register sink", "channel", channel, "error", err)
		}
	}
	if cfg.Level != nil {
		d.SetLevel(channel, *cfg.Level)
	}

	return &Instrumentor{
		dispatcher: d,
		channel:    channel,
		logger:     telemetry.WithChannel(logger, channel),
		metrics:    cfg.Metrics,
		now:        now,
	}
}

// Channel возвращает имя канала.
func (in *Instrumentor) Channel() string {
	return in.channel
}

// Args — аргументы вызова для записи.
type Args struct {
	Positional []any
	Keyword    map[string]any
}

// Call выполняет fn и записывает вызов под именем name.
// Результат и ошибка fn возвращаются без изменений. Паника fn пробрасывается
// повторно с тем же значением, но стек в выводе runtime начинается
// с повторного panic, а не с исходного места.
func (in *Instrumentor) Call(ctx context.Context, name string, args Args, fn func() (any, error)) (any, error) {
	return invoke(ctx, in, name, args, fn)
}

// invoke — общий алгоритм всех обёрток.
//
// Запись собирается в defer и поэтому создаётся на любом пути выхода:
// возврат результата, возврат ошибки, паника, runtime.Goexit.
// Паника пробрасывается дальше по значению: исходный стек горутины
// в аварийном выводе не сохраняется.
func invoke[R any](ctx context.Context, in *Instrumentor, name string, args Args, fn func() (R, error)) (result R, err error) {
	start := in.now()
	returned := false

	defer func() {
		// Длительность фиксируется до форматирования результата и аргументов.
		end := in.now()

		if r := recover(); r != nil {
			in.record(ctx, name, args, end.Sub(start), nil, panicMessage(r))
			panic(r)
		}

		switch {
		case !returned:
			msg := ErrGoexit.Error()
			in.record(ctx, name, args, end.Sub(start), nil, &msg)
		case err != nil:
			msg := in.errorMessage(err)
			in.record(ctx, name, args, end.Sub(start), nil, &msg)
		default:
			res := in.stringify(result)
			in.record(ctx, name, args, end.Sub(start), &res, nil)
		}
	}()

	result, err = fn()
	returned = true
	return result, err
}

// record собирает Record и передаёт его в Dispatcher.
// Ровно один из result и failure не nil.
func (in *Instrumentor) record(ctx context.Context, name string, args Args, elapsed time.Duration, result, failure *string) {
	info := domain.CallInfo{
		Function: name,
		Args:     in.positional(args.Positional),
		Kwargs:   in.keyword(args.Keyword),
		Duration: elapsed,
	}

	var rec domain.Record
	if failure != nil {
		rec = domain.NewFailure(info, *failure)
	} else {
		rec = domain.NewSuccess(info, *result)
	}
	rec = rec.Stamp(in.now())

	in.metrics.ObserveCall(rec.Function, string(rec.Status), rec.DurationMS)
	in.dispatcher.EmitRecord(context.WithoutCancel(ctx), in.channel, rec)
}
