package domain

// OutcomeKind — тип результата обработки строки внешним сервисом.
type OutcomeKind uint8

const (
	// OutcomeHandled — сервис ответил 2xx и строка принята.
	OutcomeHandled OutcomeKind = iota

	// OutcomeTransportFailure — сетевая ошибка или не-2xx ответ.
	OutcomeTransportFailure

	// OutcomeValidationRejected — сервис отклонил строку (только validation).
	OutcomeValidationRejected
)

// String возвращает имя для логов и метрик.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeHandled:
		return "handled"
	case OutcomeTransportFailure:
		return "transport_failure"
	case OutcomeValidationRejected:
		return "validation_rejected"
	default:
		return "unknown"
	}
}

// RowOutcome — результат вызова внешнего сервиса для одной строки.
type RowOutcome struct {
	Kind OutcomeKind

	// Message — текст ошибки валидации (для OutcomeValidationRejected)
	// или описание сбоя транспорта (для OutcomeTransportFailure).
	Message string
}

// Handled — строка обработана.
func Handled() RowOutcome {
	return RowOutcome{Kind: OutcomeHandled}
}

// TransportFailure — вызов не удался.
func TransportFailure(reason string) RowOutcome {
	return RowOutcome{Kind: OutcomeTransportFailure, Message: reason}
}

// ValidationRejected — строка не прошла валидацию.
func ValidationRejected(message string) RowOutcome {
	return RowOutcome{Kind: OutcomeValidationRejected, Message: message}
}
