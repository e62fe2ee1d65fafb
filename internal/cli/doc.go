// Package cli реализует команды import-worker.
//
// # Команды
//
//   - serve — потребляет команды из RabbitMQ, отдаёт /healthz и /metrics
//   - run JOB_ID COMMAND — выполняет одну фазу напрямую против БД
//     (инструмент оператора; очередь не используется)
//   - enqueue JOB_ID COMMAND — публикует команду в очередь
//
// COMMAND — validate или process.
//
// Каждая команда создаётся фабричной функцией (NewServeCmd и т.д.),
// принимающей Env — замыкания для ленивого получения конфигурации,
// логгера и Output после парсинга PersistentFlags.
//
// # Output
//
// Результат прогона выводится таблицей (text/tabwriter) или JSON
// с флагом --json. Данные идут в stdout, сообщения в stderr:
//
//	import-worker run 42 validate --json | jq .status
package cli
