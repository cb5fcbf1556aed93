package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrInvalidIdentifier — имя схемы или коллекции не подходит для Postgres.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)
