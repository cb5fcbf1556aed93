package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaiso/calltrace/internal/mq"
)

const (
	defaultPrefetch = 20

	// pgUniqueViolation — код ошибки Postgres для нарушения уникальности.
	pgUniqueViolation = "23505"
)

// RecordStore сохраняет документ. Реализуется *repo.RecordRepo.
type RecordStore interface {
	Insert(ctx context.Context, id uuid.UUID, level string, createdAt time.Time, doc map[string]any) error
}

// Worker переносит записи из RabbitMQ в Postgres.
type Worker struct {
	store    RecordStore
	conn     *mq.Connection
	prefetch int

	consumer   *mq.Consumer
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	Store RecordStore
	Conn  *mq.Connection

	// Prefetch — количество сообщений в полёте (default: 20).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		store:    cfg.Store,
		conn:     cfg.Conn,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Start запускает consumer в отдельной горутине.
func (w *Worker) Start(ctx context.Context) error {
	if w.conn == nil {
		return mq.ErrNoChannel
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueRecordsPersist),
		Handler:  w.handleRecord,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("record consumer error", "error", err)
		}
	}()

	w.logger.Info("ingest worker started", "queue", mq.QueueRecordsPersist, "prefetch", w.prefetch)
	return nil
}

// Stop останавливает Worker и ждёт завершения consumer.
func (w *Worker) Stop() {
	w.logger.Info("stopping ingest worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()
	w.logger.Info("ingest worker stopped")
}

// handleRecord сохраняет одно сообщение record.persist.
func (w *Worker) handleRecord(ctx context.Context, delivery *mq.Delivery) error {
	if delivery.Message.Type != mq.MessageTypeRecordPersist {
		return fmt.Errorf("%w: unexpected message type %q", mq.ErrDiscard, delivery.Message.Type)
	}

	payload, err := mq.ParsePayload[mq.RecordPayload](&delivery.Message)
	if err != nil {
		return fmt.Errorf("%w: %w", mq.ErrDiscard, err)
	}
	if payload.Document == nil {
		return fmt.Errorf("%w: empty document", mq.ErrDiscard)
	}

	id := callID(payload.Document)
	createdAt := documentTime(payload.Document, delivery.Message.Timestamp)

	err = w.store.Insert(ctx, id, payload.Level, createdAt, payload.Document)
	if isUniqueViolation(err) {
		w.logger.Debug("record already stored", "call_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("store record %s: %w", id, err)
	}

	w.logger.Debug("record stored", "call_id", id, "level", payload.Level)
	return nil
}

func callID(doc map[string]any) uuid.UUID {
	if s, ok := doc["call_id"].(string); ok {
		if id, err := uuid.Parse(s); err == nil {
			return id
		}
	}
	return uuid.New()
}

// documentTime берёт timestamp, проставленный Sink, иначе время сообщения.
func documentTime(doc map[string]any, fallback time.Time) time.Time {
	if s, ok := doc["timestamp"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts
		}
	}
	if fallback.IsZero() {
		return time.Now()
	}
	return fallback
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
