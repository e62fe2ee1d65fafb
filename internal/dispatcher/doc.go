// Package dispatcher разбирает команду из очереди и запускает фазу импорта.
//
// Формат сообщения:
//
//	{"job_id": 42, "import_command": "validate"}
//
// job_id может быть строкой или числом. Старый ключ import_id принимается,
// если job_id отсутствует.
//
// Handle всегда возвращает Outcome и никогда не паникует:
//
//   - Acknowledged — фаза дошла до финального статуса (включая CANCELLED)
//     или её уже выполняет другой worker
//   - Rejected — сообщение некорректно или обработка упала; в очередь не возвращается
//   - Requeued — worker останавливается; завершённые строки сохранены,
//     повторная доставка продолжит с оставшихся
package dispatcher
