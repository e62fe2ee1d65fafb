package dispatcher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shaiso/import-worker/internal/domain"
)

// Message — команда запуска фазы из очереди.
type Message struct {
	JobID domain.JobID `json:"job_id"`

	// ImportID — прежнее имя поля job_id.
	ImportID domain.JobID `json:"import_id,omitempty"`

	Command string `json:"import_command"`
}

// Job возвращает идентификатор импорта с учётом старого ключа.
func (m Message) Job() domain.JobID {
	if !m.JobID.IsZero() {
		return m.JobID
	}
	return m.ImportID
}

// ParseMessage разбирает тело сообщения и команду.
// Ошибка оборачивает ErrInvalidMessage или domain.ErrUnknownCommand.
func ParseMessage(body []byte) (Message, domain.Phase, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, 0, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	if msg.Job().IsZero() {
		return msg, 0, fmt.Errorf("%w: job_id is missing", ErrInvalidMessage)
	}
	if strings.TrimSpace(msg.Command) == "" {
		return msg, 0, fmt.Errorf("%w: import_command is missing", ErrInvalidMessage)
	}

	phase, err := domain.ParseCommand(msg.Command)
	if err != nil {
		return msg, 0, err
	}

	return msg, phase, nil
}
