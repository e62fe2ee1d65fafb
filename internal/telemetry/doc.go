// Package telemetry обеспечивает наблюдаемость import-worker.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// Метрики регистрируются в default registry через promauto
// и отдаются на /metrics командой serve.
package telemetry
