package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shaiso/import-worker/internal/batch"
	"github.com/shaiso/import-worker/internal/domain"
	"github.com/shaiso/import-worker/internal/telemetry"
)

// Outcome — решение по сообщению.
type Outcome uint8

const (
	// Acknowledged — сообщение обработано и удаляется из очереди.
	Acknowledged Outcome = iota

	// Rejected — сообщение отклонено без повторной доставки.
	Rejected

	// Requeued — сообщение возвращается в очередь.
	Requeued
)

// String возвращает имя исхода для логов и метрик.
func (o Outcome) String() string {
	switch o {
	case Acknowledged:
		return "acknowledged"
	case Rejected:
		return "rejected"
	case Requeued:
		return "requeued"
	default:
		return "unknown"
	}
}

// Runner выполняет фазу импорта. Реализуется batch.Driver.
type Runner interface {
	Run(ctx context.Context, id domain.JobID, phase domain.Phase) (domain.RunResult, error)
}

// Locker — advisory lock на пару (job, phase).
type Locker interface {
	TryLock(ctx context.Context, id domain.JobID, phase domain.Phase) (release func(), acquired bool, err error)
}

// Dispatcher превращает сообщение очереди в прогон фазы.
type Dispatcher struct {
	runner Runner
	locker Locker
	logger *slog.Logger
}

// Config — конфигурация Dispatcher.
type Config struct {
	Runner Runner

	// Locker — опционально; nil отключает блокировку.
	Locker Locker

	Logger *slog.Logger
}

// New создаёт Dispatcher.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		runner: cfg.Runner,
		locker: cfg.Locker,
		logger: logger,
	}
}

// Handle обрабатывает одно сообщение.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) (outcome Outcome) {
	command := "invalid"
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while handling import command",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			outcome = Rejected
		}
		telemetry.CommandsTotal.WithLabelValues(command, outcome.String()).Inc()
	}()

	msg, phase, err := ParseMessage(body)
	if err != nil {
		d.logger.Error("rejecting import message",
			"error", err,
			"body", telemetry.Truncate(string(body), 512),
		)
		return Rejected
	}
	command = phase.Command()

	logger := telemetry.WithPhase(telemetry.WithJobID(d.logger, msg.Job().String()), phase.String())

	if d.locker != nil {
		release, acquired, err := d.locker.TryLock(ctx, msg.Job(), phase)
		switch {
		case err != nil:
			logger.Warn("job lock unavailable, running without it", "error", err)
		case !acquired:
			logger.Info("phase is already running on another worker, skipping")
			return Acknowledged
		default:
			defer release()
		}
	}

	result, err := d.runner.Run(ctx, msg.Job(), phase)
	switch {
	case errors.Is(err, batch.ErrInterrupted):
		logger.Warn("phase interrupted by shutdown, requeueing",
			"rows_completed", result.RowsCompleted,
		)
		return Requeued
	case err != nil:
		logger.Error("phase run failed", "error", err)
		return Rejected
	}

	if !result.Status.IsTerminal() {
		logger.Error("phase run ended without terminal status", "status", result.Status)
		return Rejected
	}

	return Acknowledged
}
