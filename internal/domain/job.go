package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// JobID — непрозрачный идентификатор импорта (import_id в БД).
//
// В сообщении из очереди может прийти как JSON-строка, так и JSON-число —
// оба варианта декодируются в одно и то же значение.
type JobID string

// String возвращает строковое представление JobID.
func (id JobID) String() string {
	return string(id)
}

// IsZero возвращает true, если идентификатор пустой.
func (id JobID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// UnmarshalJSON принимает "123", 123 и null (null даёт пустой JobID).
func (id *JobID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("job id: %w", err)
		}
		*id = JobID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("job id must be a string or a number: %w", err)
	}
	*id = JobID(n.String())
	return nil
}

// Job — один импорт, проходящий две фазы: validation и processing.
//
// Job создаётся до того, как worker его увидит. Worker только
// проставляет время старта фазы и читает флаг отмены перед каждым batch.
type Job struct {
	// ID — уникальный идентификатор импорта.
	ID JobID `json:"job_id"`

	// CancelledByUser — флаг отмены; оператор может выставить его в любой момент.
	CancelledByUser bool `json:"cancelled_by_user"`

	// ValidationStartedAt — время старта фазы validation.
	ValidationStartedAt *time.Time `json:"validation_started_at,omitempty"`

	// ProcessingStartedAt — время старта фазы processing.
	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`

	// UploadedBy — пользователь, загрузивший импорт (инициатор validation).
	UploadedBy string `json:"uploaded_by,omitempty"`

	// ProcessedBy — пользователь, запустивший processing.
	ProcessedBy string `json:"processed_by,omitempty"`
}

// Initiator возвращает пользователя, запустившего фазу.
func (j *Job) Initiator(phase Phase) string {
	switch phase {
	case PhaseValidation:
		return j.UploadedBy
	case PhaseProcessing:
		return j.ProcessedBy
	default:
		return ""
	}
}
