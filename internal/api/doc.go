// Package api — служебный HTTP-интерфейс import-worker.
//
// Маршруты:
//   - GET /healthz — процесс жив
//   - GET /readyz  — все зависимости (БД, RabbitMQ, Redis) отвечают
//   - GET /metrics — метрики Prometheus
//
// Ответы в формате {"data": ...} или {"error": {"code", "message"}}.
package api
