package batch

import (
	"context"
	"fmt"

	"github.com/shaiso/import-worker/internal/domain"
)

// Пороги по умолчанию.
const (
	DefaultMinRowsForErrorCheck = 100
	DefaultMaxValidationErrors  = 100
)

// StoreErrorPolicy — реакция на неизвестный результат из БД.
type StoreErrorPolicy uint8

const (
	// FailOpen — неизвестный флаг отмены или счётчик ошибок не останавливают фазу.
	FailOpen StoreErrorPolicy = iota

	// FailClosed — любой неизвестный результат, нужный для решения, останавливает фазу.
	FailClosed
)

// ParseStoreErrorPolicy разбирает значение STORE_ERROR_POLICY.
func ParseStoreErrorPolicy(s string) (StoreErrorPolicy, error) {
	switch s {
	case "", "fail_open":
		return FailOpen, nil
	case "fail_closed":
		return FailClosed, nil
	default:
		return FailOpen, fmt.Errorf("unknown store error policy %q", s)
	}
}

func (p StoreErrorPolicy) String() string {
	if p == FailClosed {
		return "fail_closed"
	}
	return "fail_open"
}

// CompletionPolicy — какие строки batch помечаются завершёнными.
type CompletionPolicy uint8

const (
	// CompleteAlways — каждая полученная строка помечается завершённой,
	// даже если вызов сервиса не удался. Строка с TransportFailure
	// не будет повторена автоматически.
	CompleteAlways CompletionPolicy = iota

	// CompleteOnSuccess — строки с TransportFailure остаются незавершёнными
	// и будут взяты следующим прогоном фазы.
	CompleteOnSuccess
)

// DefaultCompletionPolicy — at-most-once без повторов.
const DefaultCompletionPolicy = CompleteAlways

// ParseCompletionPolicy разбирает значение COMPLETION_POLICY.
func ParseCompletionPolicy(s string) (CompletionPolicy, error) {
	switch s {
	case "", "always":
		return CompleteAlways, nil
	case "on_success":
		return CompleteOnSuccess, nil
	default:
		return CompleteAlways, fmt.Errorf("unknown completion policy %q", s)
	}
}

func (p CompletionPolicy) String() string {
	if p == CompleteOnSuccess {
		return "on_success"
	}
	return "always"
}

// ShouldComplete решает, помечать ли строку завершённой.
func (p CompletionPolicy) ShouldComplete(outcome domain.RowOutcome) bool {
	if p == CompleteOnSuccess {
		return outcome.Kind != domain.OutcomeTransportFailure
	}
	return true
}

// policyStore — данные, нужные политике продолжения.
type policyStore interface {
	IsCancelled(ctx context.Context, id domain.JobID) (cancelled, ok bool)
	CountValidationErrors(ctx context.Context, id domain.JobID) (int, bool)
}

// ContinuationPolicy решает, продолжать ли фазу после очередного batch.
type ContinuationPolicy struct {
	// MinRowsForErrorCheck — порог ошибок проверяется только после стольких строк,
	// чтобы не останавливать импорт на маленькой шумной выборке.
	MinRowsForErrorCheck int

	// MaxValidationErrors — накопленное по импорту количество ошибок,
	// при котором validation останавливается.
	MaxValidationErrors int

	OnStoreError StoreErrorPolicy
}

// DefaultContinuationPolicy возвращает пороги 100/100 и FailOpen.
func DefaultContinuationPolicy() ContinuationPolicy {
	return ContinuationPolicy{
		MinRowsForErrorCheck: DefaultMinRowsForErrorCheck,
		MaxValidationErrors:  DefaultMaxValidationErrors,
		OnStoreError:         FailOpen,
	}
}

// ShouldContinue возвращает false и причину, если фазу нужно остановить.
//
//   - отмена пользователем останавливает всегда, независимо от фазы и прогресса
//   - в validation после MinRowsForErrorCheck строк проверяется накопленный
//     за весь импорт счётчик ошибок
func (p ContinuationPolicy) ShouldContinue(ctx context.Context, store policyStore, id domain.JobID, rowsCompleted int, phase domain.Phase) (bool, domain.StopReason) {
	cancelled, ok := store.IsCancelled(ctx, id)
	if !ok && p.OnStoreError == FailClosed {
		return false, domain.StopReasonStoreUnavailable
	}
	if cancelled {
		return false, domain.StopReasonUserCancelled
	}

	if phase == domain.PhaseValidation && rowsCompleted >= p.MinRowsForErrorCheck {
		count, ok := store.CountValidationErrors(ctx, id)
		if !ok && p.OnStoreError == FailClosed {
			return false, domain.StopReasonStoreUnavailable
		}
		if ok && count >= p.MaxValidationErrors {
			return false, domain.StopReasonTooManyErrors
		}
	}

	return true, domain.StopReasonNone
}
