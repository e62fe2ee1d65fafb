package domain

// Row — одна строка импорта, единица работы внутри Job.
//
// Флаги Validated и Processed независимы и меняются только false → true.
// Флаг фазы true тогда и только тогда, когда завершение фазы для строки
// записано в БД.
type Row struct {
	// ID — идентификатор строки, уникален в пределах импорта.
	ID int64 `json:"row_id"`

	// JobID — ссылка на импорт.
	JobID JobID `json:"job_id"`

	// Worksheet — имя листа, из которого пришла строка.
	Worksheet string `json:"worksheet"`

	// Payload — сериализованное содержимое строки.
	// Передаётся во внешний сервис без изменений.
	Payload []byte `json:"payload"`

	Validated bool `json:"validated"`
	Processed bool `json:"processed"`
}

// IsComplete возвращает флаг завершения для фазы.
func (r *Row) IsComplete(phase Phase) bool {
	switch phase {
	case PhaseValidation:
		return r.Validated
	case PhaseProcessing:
		return r.Processed
	default:
		return false
	}
}

// ValidationError — ошибка валидации одной строки.
//
// Создаётся только в фазе validation, не обновляется и не удаляется.
// Общее количество по импорту используется как счётчик для порога отмены.
type ValidationError struct {
	JobID   JobID  `json:"job_id"`
	RowID   int64  `json:"row_id"`
	Message string `json:"error_message"`
}
