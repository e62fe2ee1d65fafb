// Package invoker отправляет строки импорта во внешний сервис
// validation/processing и классифицирует ответ.
//
// Каждый вызов возвращает domain.RowOutcome:
//   - Handled — 2xx, строка принята
//   - TransportFailure — сетевая ошибка или не-2xx (ошибка валидации не пишется)
//   - ValidationRejected — 2xx, но valid=false или ответ не распарсился (только validation)
//
// Для processing тело ответа не интерпретируется: любой 2xx — Handled.
package invoker
