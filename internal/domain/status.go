package domain

// RunStatus — итог выполнения фазы.
//
// Жизненный цикл:
//
//	Starting → Looping → COMPLETED
//	                   ↘ CANCELLED
//	         (или) → NO_ROWS_NEEDED
//
// Все три статуса финальные.
type RunStatus string

const (
	// RunStatusCompleted — все строки фазы обработаны.
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusCancelled — фаза остановлена политикой продолжения.
	RunStatusCancelled RunStatus = "CANCELLED"

	// RunStatusNoRowsNeeded — незавершённых строк не было.
	RunStatusNoRowsNeeded RunStatus = "NO_ROWS_NEEDED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusCancelled, RunStatusNoRowsNeeded:
		return true
	default:
		return false
	}
}

// StopReason — причина досрочной остановки фазы.
type StopReason string

const (
	StopReasonNone StopReason = ""

	// StopReasonUserCancelled — пользователь отменил импорт.
	StopReasonUserCancelled StopReason = "user_cancelled"

	// StopReasonTooManyErrors — накопленных ошибок валидации слишком много.
	StopReasonTooManyErrors StopReason = "too_many_errors"

	// StopReasonStoreUnavailable — БД не ответила, а политика требует остановки.
	StopReasonStoreUnavailable StopReason = "store_unavailable"
)

// RunResult — результат одного прогона фазы.
type RunResult struct {
	JobID  JobID      `json:"job_id"`
	Phase  Phase      `json:"phase"`
	Status RunStatus  `json:"status"`
	Reason StopReason `json:"reason,omitempty"`

	// RowsTotal — количество незавершённых строк на старте.
	RowsTotal int `json:"rows_total"`

	// RowsCompleted — количество строк, пройденных в этом прогоне.
	RowsCompleted int `json:"rows_completed"`

	TransportFailures int `json:"transport_failures"`
	ValidationErrors  int `json:"validation_errors"`
	Batches           int `json:"batches"`
}
