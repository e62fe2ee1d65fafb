// Package batch — state machine, доводящая фазу импорта до конца.
//
// # Обзор
//
// Driver.Run для пары (job, phase):
//
//  1. Проставляет время старта фазы (best effort)
//  2. Определяет пользователя-инициатора (пустая строка, если неизвестен)
//  3. Считает незавершённые строки; 0 → NO_ROWS_NEEDED без внешних вызовов
//  4. Пока rowsCompleted < remaining:
//     - берёт следующий batch (по row_id, не более BatchSize)
//     - вызывает внешний сервис для каждой строки по порядку
//     - в validation пишет не более одной ошибки на строку
//     - помечает batch завершённым одним запросом
//     - спрашивает ContinuationPolicy, продолжать ли
//  5. COMPLETED
//
// # Политики
//
//   - CompletionPolicy — какие строки batch помечаются завершёнными.
//     CompleteAlways (default): все, независимо от результата вызова.
//   - ContinuationPolicy — отмена пользователем и порог ошибок валидации.
//   - StoreErrorPolicy — что делать, если БД не ответила: FailOpen (default)
//     продолжает, FailClosed останавливает фазу.
//
// # Остановка процесса
//
// Контекст процесса проверяется только между batch. Внутри batch вызовы
// выполняются с context.WithoutCancel, поэтому batch никогда не применяется
// наполовину. Отменённый контекст даёт ErrInterrupted.
package batch
