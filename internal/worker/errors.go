package worker

import "errors"

// Ошибки воркера.
var (
	// ErrWorkerStopped — воркер остановлен и не может быть запущен повторно.
	ErrWorkerStopped = errors.New("worker stopped")
)
