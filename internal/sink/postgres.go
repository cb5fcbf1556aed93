package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/calltrace/internal/domain"
	"github.com/shaiso/calltrace/internal/repo"
)

// Options — параметры подключения document-ориентированного Sink.
type Options struct {
	// Endpoint — строка подключения (DSN).
	Endpoint string

	// Database — логическая группа записей (схема Postgres).
	Database string

	// Collection — коллекция записей (таблица).
	Collection string
}

// PostgresSink сохраняет документы в jsonb-коллекцию Postgres.
//
// Пул соединений разделяется между всеми вызовами; pgxpool
// потокобезопасен.
type PostgresSink struct {
	id   string
	repo *repo.RecordRepo
	now  func() time.Time
}

// NewPostgresSink создаёт Sink поверх db (обычно *pgxpool.Pool).
func NewPostgresSink(db repo.Execer, opts Options) (*PostgresSink, error) {
	records, err := repo.NewRecordRepo(db, opts.Database, opts.Collection)
	if err != nil {
		return nil, err
	}

	endpoint, err := repo.Endpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}

	return &PostgresSink{
		id:   fmt.Sprintf("postgres:%s.%s@%s", opts.Database, opts.Collection, endpoint),
		repo: records,
		now:  time.Now,
	}, nil
}

// ID возвращает идентификатор без учётных данных.
func (s *PostgresSink) ID() string {
	return s.id
}

// Repo возвращает репозиторий коллекции.
func (s *PostgresSink) Repo() *repo.RecordRepo {
	return s.repo
}

// Persist выполняет один INSERT.
func (s *PostgresSink) Persist(ctx context.Context, level slog.Level, payload domain.Payload) error {
	now := s.now()
	doc := Enrich(payload, level, now)

	if err := s.repo.Insert(ctx, documentID(doc), level.String(), now, doc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, s.id, err)
	}
	return nil
}

// documentID берёт call_id из документа или генерирует новый.
func documentID(doc domain.Payload) uuid.UUID {
	if s, ok := doc["call_id"].(string); ok {
		if id, err := uuid.Parse(s); err == nil {
			return id
		}
	}
	return uuid.New()
}
