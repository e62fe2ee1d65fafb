package invoker

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Сообщения, которые записываются как ошибки валидации.
const (
	// InvalidResponseMessage — 2xx с телом, которое не удалось разобрать.
	InvalidResponseMessage = "invalid response"

	// NoErrorMessage — valid=false без error_message.
	NoErrorMessage = "Validation failed with no error message"
)

// ErrMalformedResponse — тело ответа не JSON-объект.
var ErrMalformedResponse = errors.New("malformed validation response")

// Verdict — разобранный ответ сервиса валидации.
type Verdict struct {
	Valid   bool
	Message string
}

// validationResponse — ожидаемое тело ответа.
//
//	{"valid": false, "error_message": "..." | ["...", "..."]}
type validationResponse struct {
	Valid        *bool           `json:"valid"`
	ErrorMessage json.RawMessage `json:"error_message"`
}

// ParseValidationResponse разбирает тело ответа сервиса валидации.
//
// Строку принимает только "valid": true; небулево значение ("yes", 1)
// считается невалидным телом.
//
// Невалидное тело не является ошибкой вызова: возвращается
// Verdict{Valid: false, Message: InvalidResponseMessage} и ErrMalformedResponse
// для логирования.
func ParseValidationResponse(body []byte) (Verdict, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Verdict{Message: InvalidResponseMessage}, ErrMalformedResponse
	}

	var resp validationResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return Verdict{Message: InvalidResponseMessage}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	// valid по умолчанию false
	if resp.Valid != nil && *resp.Valid {
		return Verdict{Valid: true}, nil
	}
	return Verdict{Message: errorMessage(resp.ErrorMessage)}, nil
}

// errorMessage сворачивает error_message в одну строку:
// строка — как есть, массив из одного элемента — сам элемент,
// массив из нескольких — через ", ".
func errorMessage(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return NoErrorMessage
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			if len(items) == 0 {
				return NoErrorMessage
			}
			parts := make([]string, len(items))
			for i, item := range items {
				parts[i] = scalarText(item)
			}
			if len(parts) == 1 {
				return parts[0]
			}
			return strings.Join(parts, ", ")
		}
	}
	return scalarText(raw)
}

// scalarText возвращает строку без кавычек или JSON-текст для остальных значений.
func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
