package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// RecordRepo — коллекция документов телеметрии.
//
// Схема соответствует логической группе (имени "базы"), таблица — коллекции.
// Каждый документ хранится как jsonb; id, level и created_at вынесены
// в отдельные колонки.
type RecordRepo struct {
	db     Execer
	schema string
	table  string
}

// NewRecordRepo создаёт RecordRepo для schema.collection.
func NewRecordRepo(db Execer, schema, collection string) (*RecordRepo, error) {
	for _, name := range []string{schema, collection} {
		if !identRe.MatchString(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	return &RecordRepo{
		db:     db,
		schema: schema,
		table:  pgx.Identifier{schema, collection}.Sanitize(),
	}, nil
}

// Table возвращает экранированное имя таблицы.
func (r *RecordRepo) Table() string {
	return r.table
}

// EnsureCollection создаёт схему и таблицу, если их нет.
func (r *RecordRepo) EnsureCollection(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{r.schema}.Sanitize()); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS ` + r.table + ` (
			id         uuid PRIMARY KEY,
			level      text NOT NULL,
			created_at timestamptz NOT NULL,
			document   jsonb NOT NULL
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Insert сохраняет один документ.
func (r *RecordRepo) Insert(ctx context.Context, id uuid.UUID, level string, createdAt time.Time, doc map[string]any) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	query := `
		INSERT INTO ` + r.table + ` (id, level, created_at, document)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, id, level, createdAt, docJSON); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}
