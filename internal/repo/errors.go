package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrUnknownPhase — фаза не соответствует ни одной колонке.
	ErrUnknownPhase = errors.New("unknown phase")
)
