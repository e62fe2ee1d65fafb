package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/import-worker/internal/dispatcher"
	"github.com/shaiso/import-worker/internal/mq"
)

// Dispatcher — обработчик тела сообщения. Реализуется dispatcher.Dispatcher.
type Dispatcher interface {
	Handle(ctx context.Context, body []byte) dispatcher.Outcome
}

// Worker потребляет команды импорта и передаёт их Dispatcher.
//
// Сообщения обрабатываются строго по одному (prefetch 1): следующее
// берётся только после ack/nack текущего. Несколько worker'ов могут
// потреблять из одной очереди.
type Worker struct {
	dispatcher Dispatcher
	conn       *mq.Connection
	queue      string
	prefetch   int

	consumer *mq.Consumer

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	Dispatcher Dispatcher
	Conn       *mq.Connection

	// Queue — очередь команд (default: import_tool).
	Queue string

	// Prefetch — default: 1.
	Prefetch int

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	queue := cfg.Queue
	if queue == "" {
		queue = string(mq.QueueImport)
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		dispatcher: cfg.Dispatcher,
		conn:       cfg.Conn,
		queue:      queue,
		prefetch:   prefetch,
		logger:     logger,
	}
}

// Start запускает consumer в отдельной горутине.
func (w *Worker) Start(ctx context.Context) error {
	if w.IsStopped() {
		return ErrWorkerStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker", "queue", w.queue, "prefetch", w.prefetch)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    w.queue,
		Handler:  w.handleDelivery,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("import consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения текущего сообщения.
//
// Текущий batch доводится до конца, после чего фаза прерывается,
// а сообщение возвращается в очередь.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}
