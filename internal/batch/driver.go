package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/import-worker/internal/domain"
	"github.com/shaiso/import-worker/internal/telemetry"
)

// DefaultBatchSize — сколько строк берётся из БД за один раз.
const DefaultBatchSize = 51

// RowStore — операции над импортом, которые нужны Driver.
// Реализуется gateway.Gateway: ошибки БД уже превращены в ok-флаги.
type RowStore interface {
	IsCancelled(ctx context.Context, id domain.JobID) (cancelled, ok bool)
	MarkPhaseStarted(ctx context.Context, id domain.JobID, phase domain.Phase) bool
	PhaseInitiator(ctx context.Context, id domain.JobID, phase domain.Phase) (string, bool)
	CountIncompleteRows(ctx context.Context, id domain.JobID, phase domain.Phase) (int, bool)
	FetchIncompleteRows(ctx context.Context, id domain.JobID, phase domain.Phase, afterRowID *int64, limit int) []domain.Row
	MarkRowsComplete(ctx context.Context, id domain.JobID, rowIDs []int64, phase domain.Phase) bool
	CountValidationErrors(ctx context.Context, id domain.JobID) (int, bool)
	RecordValidationError(ctx context.Context, id domain.JobID, rowID int64, message string) bool
}

// PhaseInvoker — внешний сервис, обрабатывающий одну строку.
type PhaseInvoker interface {
	Invoke(ctx context.Context, phase domain.Phase, worksheet, username string, payload []byte) domain.RowOutcome
}

// Driver прогоняет фазу импорта batch за batch.
type Driver struct {
	store        RowStore
	invoker      PhaseInvoker
	batchSize    int
	continuation ContinuationPolicy
	completion   CompletionPolicy
	logger       *slog.Logger
}

// Config — конфигурация Driver.
type Config struct {
	Store   RowStore
	Invoker PhaseInvoker

	// BatchSize — размер batch (default: 51).
	BatchSize int

	// Continuation — политика продолжения (nil → DefaultContinuationPolicy).
	Continuation *ContinuationPolicy

	// Completion — политика пометки строк (default: CompleteAlways).
	Completion CompletionPolicy

	Logger *slog.Logger
}

// New создаёт Driver.
func New(cfg Config) *Driver {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	continuation := DefaultContinuationPolicy()
	if cfg.Continuation != nil {
		continuation = *cfg.Continuation
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		store:        cfg.Store,
		invoker:      cfg.Invoker,
		batchSize:    cfg.BatchSize,
		continuation: continuation,
		completion:   cfg.Completion,
		logger:       logger,
	}
}

// Run доводит фазу до финального статуса.
//
// Ошибка возвращается только для невалидной фазы и для ErrInterrupted.
// В случае ErrInterrupted result содержит частичный прогресс.
func (d *Driver) Run(ctx context.Context, id domain.JobID, phase domain.Phase) (domain.RunResult, error) {
	result := domain.RunResult{JobID: id, Phase: phase}
	if !phase.Valid() {
		return result, fmt.Errorf("%w: %d", ErrInvalidPhase, uint8(phase))
	}

	logger := telemetry.WithRunID(d.log(ctx), uuid.NewString())
	logger = telemetry.WithPhase(telemetry.WithJobID(logger, id.String()), phase.String())

	// Внутри batch работа не прерывается отменой процесса.
	work := telemetry.WithLogger(context.WithoutCancel(ctx), logger)

	if ctx.Err() != nil {
		return result, ErrInterrupted
	}

	logger.Info("phase started", "batch_size", d.batchSize, "completion", d.completion.String())

	if !d.store.MarkPhaseStarted(work, id, phase) {
		logger.Warn("phase start time not recorded")
	}

	username, ok := d.store.PhaseInitiator(work, id, phase)
	if !ok {
		logger.Warn("phase initiator unknown, using empty username")
	}

	remaining, ok := d.store.CountIncompleteRows(work, id, phase)
	if !ok {
		logger.Warn("incomplete row count unknown, treating as zero")
	}
	result.RowsTotal = remaining

	if remaining <= 0 {
		result.Status = domain.RunStatusNoRowsNeeded
		d.finish(logger, result)
		return result, nil
	}

	// nil до первой строки: row_id непрозрачен и может быть <= 0.
	var afterRowID *int64
	for result.RowsCompleted < remaining {
		if ctx.Err() != nil {
			logger.Warn("phase interrupted between batches",
				"rows_completed", result.RowsCompleted,
				"rows_total", remaining,
			)
			return result, ErrInterrupted
		}

		rows := d.store.FetchIncompleteRows(work, id, phase, afterRowID, d.batchSize)
		if len(rows) == 0 {
			logger.Warn("no incomplete rows left before expected count reached",
				"rows_completed", result.RowsCompleted,
				"rows_total", remaining,
			)
			break
		}

		var marked bool
		afterRowID, marked = d.runBatch(work, id, phase, username, rows, &result, afterRowID)

		if stop, reason := d.shouldStop(work, id, phase, result.RowsCompleted, marked); stop {
			result.Status = domain.RunStatusCancelled
			result.Reason = reason
			d.finish(logger, result)
			return result, nil
		}
	}

	result.Status = domain.RunStatusCompleted
	d.finish(logger, result)
	return result, nil
}

// runBatch вызывает сервис для каждой строки и помечает batch одним запросом.
// Возвращает новый курсор и признак успешной пометки.
func (d *Driver) runBatch(ctx context.Context, id domain.JobID, phase domain.Phase, username string, rows []domain.Row, result *domain.RunResult, cursor *int64) (*int64, bool) {
	start := time.Now()
	logger := d.log(ctx)

	completed := make([]int64, 0, len(rows))
	for _, row := range rows {
		if cursor == nil || row.ID > *cursor {
			rowID := row.ID
			cursor = &rowID
		}

		outcome := d.invoker.Invoke(ctx, phase, row.Worksheet, username, row.Payload)
		switch outcome.Kind {
		case domain.OutcomeTransportFailure:
			result.TransportFailures++
		case domain.OutcomeValidationRejected:
			if phase == domain.PhaseValidation {
				result.ValidationErrors++
				if !d.store.RecordValidationError(ctx, id, row.ID, outcome.Message) {
					logger.Warn("validation error not recorded", "row_id", row.ID)
				}
			}
		}

		result.RowsCompleted++
		if d.completion.ShouldComplete(outcome) {
			completed = append(completed, row.ID)
		}
	}

	result.Batches++
	marked := d.store.MarkRowsComplete(ctx, id, completed, phase)
	if !marked {
		logger.Warn("batch not marked complete", "rows", len(completed))
	}

	telemetry.BatchDuration.WithLabelValues(phase.String()).Observe(time.Since(start).Seconds())
	logger.Debug("batch done",
		"batch", result.Batches,
		"rows", len(rows),
		"marked", len(completed),
		"rows_completed", result.RowsCompleted,
	)

	return cursor, marked
}

// shouldStop применяет ContinuationPolicy после batch.
func (d *Driver) shouldStop(ctx context.Context, id domain.JobID, phase domain.Phase, rowsCompleted int, marked bool) (bool, domain.StopReason) {
	if !marked && d.continuation.OnStoreError == FailClosed {
		return true, domain.StopReasonStoreUnavailable
	}
	cont, reason := d.continuation.ShouldContinue(ctx, d.store, id, rowsCompleted, phase)
	return !cont, reason
}

// finish логирует и считает финальный статус.
func (d *Driver) finish(logger *slog.Logger, result domain.RunResult) {
	telemetry.PhaseRunsTotal.WithLabelValues(
		result.Phase.String(), string(result.Status), string(result.Reason),
	).Inc()

	attrs := []any{
		"status", result.Status,
		"rows_total", result.RowsTotal,
		"rows_completed", result.RowsCompleted,
		"transport_failures", result.TransportFailures,
		"validation_errors", result.ValidationErrors,
		"batches", result.Batches,
	}
	if result.Reason != domain.StopReasonNone {
		attrs = append(attrs, "reason", result.Reason)
		logger.Warn("phase stopped", attrs...)
		return
	}
	logger.Info("phase finished", attrs...)
}

func (d *Driver) log(ctx context.Context) *slog.Logger {
	return telemetry.FromContextOr(ctx, d.logger)
}
