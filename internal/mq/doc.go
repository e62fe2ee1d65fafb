// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация команд импорта
//   - consumer.go   — потребление сообщений с ручным ack
//
// Сообщение:
//
//	{"job_id": 42, "import_command": "validate" | "process"}
//
// Exchanges:
//   - import_tool      — команды импорта
//   - import_tool.dlx  — dead letter exchange для отклонённых команд
package mq
