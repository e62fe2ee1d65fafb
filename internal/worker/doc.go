// Package worker потребляет команды импорта из RabbitMQ.
//
// # Обзор
//
// Worker — stateless компонент: состояние импорта целиком хранится в БД,
// поэтому несколько экземпляров потребляют из одной очереди import_tool.
//
//	w := worker.New(worker.Config{
//	    Dispatcher: dispatcher.New(dispatcher.Config{Runner: driver}),
//	    Conn:       mqConn,
//	    Logger:     logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Обработка сообщения
//
//  1. Consumer получает сообщение (prefetch 1, ручной ack)
//  2. Dispatcher разбирает тело и запускает фазу
//  3. Исход переводится в решение по ack:
//     - Acknowledged → Ack
//     - Rejected → Nack без requeue (DLQ import_tool.dlq)
//     - Requeued → Nack с requeue
//
// # Остановка
//
// Stop отменяет контекст. Текущий batch доводится до конца, фаза
// прерывается на границе batch, сообщение возвращается в очередь.
package worker
