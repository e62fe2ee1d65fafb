package domain

import (
	"errors"
	"fmt"
)

// Phase — фаза импорта.
//
// Закрытое перечисление из двух значений. Нулевое значение невалидно,
// поэтому неинициализированная фаза не может случайно стать validation.
type Phase uint8

const (
	// PhaseValidation — проверка строк внешним сервисом, ошибки сохраняются.
	PhaseValidation Phase = iota + 1

	// PhaseProcessing — обработка строк внешним сервисом, ответ не интерпретируется.
	PhaseProcessing
)

// Команды из сообщения очереди.
const (
	CommandValidate = "validate"
	CommandProcess  = "process"
)

// ErrUnknownCommand — команда не соответствует ни одной фазе.
var ErrUnknownCommand = errors.New("unknown import command")

// ParseCommand преобразует команду из сообщения в фазу.
func ParseCommand(command string) (Phase, error) {
	switch command {
	case CommandValidate:
		return PhaseValidation, nil
	case CommandProcess:
		return PhaseProcessing, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

// Valid возвращает true для PhaseValidation и PhaseProcessing.
func (p Phase) Valid() bool {
	return p == PhaseValidation || p == PhaseProcessing
}

// String возвращает имя фазы ("validation" / "processing").
func (p Phase) String() string {
	switch p {
	case PhaseValidation:
		return "validation"
	case PhaseProcessing:
		return "processing"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Command возвращает команду, которая запускает фазу.
func (p Phase) Command() string {
	switch p {
	case PhaseValidation:
		return CommandValidate
	case PhaseProcessing:
		return CommandProcess
	default:
		return ""
	}
}

// MarshalText реализует encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText принимает имя фазы ("validation" / "processing").
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "validation":
		*p = PhaseValidation
	case "processing":
		*p = PhaseProcessing
	default:
		return fmt.Errorf("invalid phase %q", string(text))
	}
	return nil
}
