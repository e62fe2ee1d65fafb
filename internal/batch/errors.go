package batch

import "errors"

var (
	// ErrInterrupted — прогон остановлен между batch из-за отмены контекста процесса.
	// Завершённые строки сохранены; повторная доставка продолжит с оставшихся.
	ErrInterrupted = errors.New("phase run interrupted")

	// ErrInvalidPhase — фаза вне перечисления.
	ErrInvalidPhase = errors.New("invalid phase")
)
