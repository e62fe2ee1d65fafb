package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shaiso/import-worker/internal/domain"
	"github.com/shaiso/import-worker/internal/repo"
	"github.com/shaiso/import-worker/internal/telemetry"
)

// startTimeRetryLimit — сколько раз повторяем запись времени старта фазы.
const startTimeRetryLimit = 1

type jobRepo interface {
	IsCancelled(ctx context.Context, id domain.JobID) (bool, error)
	SetPhaseStartTime(ctx context.Context, id domain.JobID, phase domain.Phase) error
	GetPhaseInitiator(ctx context.Context, id domain.JobID, phase domain.Phase) (string, error)
}

type rowRepo interface {
	CountIncomplete(ctx context.Context, id domain.JobID, phase domain.Phase) (int, error)
	ListIncomplete(ctx context.Context, id domain.JobID, phase domain.Phase, afterID *int64, limit int) ([]domain.Row, error)
	MarkComplete(ctx context.Context, id domain.JobID, rowIDs []int64, phase domain.Phase) (int64, error)
}

type validationErrorRepo interface {
	Create(ctx context.Context, e *domain.ValidationError) error
	CountByJob(ctx context.Context, id domain.JobID) (int, error)
}

// Gateway — типизированный доступ к импортам, строкам и ошибкам валидации.
type Gateway struct {
	jobs   jobRepo
	rows   rowRepo
	errors validationErrorRepo
	logger *slog.Logger
}

// Config — конфигурация Gateway.
type Config struct {
	Jobs             jobRepo
	Rows             rowRepo
	ValidationErrors validationErrorRepo

	// Logger используется, если в context нет логгера.
	Logger *slog.Logger
}

// New создаёт Gateway.
func New(cfg Config) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		jobs:   cfg.Jobs,
		rows:   cfg.Rows,
		errors: cfg.ValidationErrors,
		logger: logger,
	}
}

// IsCancelled возвращает true, только если флаг отмены явно true.
// ok=false означает, что БД не ответила.
func (g *Gateway) IsCancelled(ctx context.Context, id domain.JobID) (cancelled, ok bool) {
	cancelled, err := g.jobs.IsCancelled(ctx, id)
	if err != nil {
		g.fail(ctx, "is_cancelled", err)
		return false, false
	}
	return cancelled, true
}

// MarkPhaseStarted проставляет время старта фазы.
// При ошибке повторяет запрос один раз, затем сдаётся молча (только лог).
func (g *Gateway) MarkPhaseStarted(ctx context.Context, id domain.JobID, phase domain.Phase) bool {
	var err error
	for attempt := 0; attempt <= startTimeRetryLimit; attempt++ {
		if attempt > 0 {
			g.log(ctx).Info("retrying phase start time update", "attempt", attempt)
		}
		if err = g.jobs.SetPhaseStartTime(ctx, id, phase); err == nil {
			return true
		}
		// Нет записи или неизвестная фаза — повтор не поможет
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrUnknownPhase) {
			break
		}
	}
	g.fail(ctx, "mark_phase_started", err)
	return false
}

// PhaseInitiator возвращает пользователя, запустившего фазу.
// ok=false, если пользователь неизвестен или БД не ответила.
func (g *Gateway) PhaseInitiator(ctx context.Context, id domain.JobID, phase domain.Phase) (string, bool) {
	username, err := g.jobs.GetPhaseInitiator(ctx, id, phase)
	if errors.Is(err, repo.ErrNotFound) {
		return "", false
	}
	if err != nil {
		g.fail(ctx, "phase_initiator", err)
		return "", false
	}
	return username, true
}

// CountIncompleteRows возвращает количество строк с флагом фазы false.
func (g *Gateway) CountIncompleteRows(ctx context.Context, id domain.JobID, phase domain.Phase) (int, bool) {
	count, err := g.rows.CountIncomplete(ctx, id, phase)
	if err != nil {
		g.fail(ctx, "count_incomplete_rows", err)
		return 0, false
	}
	return count, true
}

// FetchIncompleteRows возвращает следующий batch незавершённых строк
// (по возрастанию row_id, не более limit). afterRowID=nil — первый batch,
// иначе только row_id > *afterRowID.
// Никогда не возвращает nil.
func (g *Gateway) FetchIncompleteRows(ctx context.Context, id domain.JobID, phase domain.Phase, afterRowID *int64, limit int) []domain.Row {
	rows, err := g.rows.ListIncomplete(ctx, id, phase, afterRowID, limit)
	if err != nil {
		g.fail(ctx, "fetch_incomplete_rows", err)
		return []domain.Row{}
	}
	if rows == nil {
		return []domain.Row{}
	}
	return rows
}

// MarkRowsComplete выставляет флаг фазы для строк одним batched запросом.
// Пустой список — no-op с результатом true.
func (g *Gateway) MarkRowsComplete(ctx context.Context, id domain.JobID, rowIDs []int64, phase domain.Phase) bool {
	if len(rowIDs) == 0 {
		return true
	}
	affected, err := g.rows.MarkComplete(ctx, id, rowIDs, phase)
	if err != nil {
		g.fail(ctx, "mark_rows_complete", err)
		return false
	}
	if affected != int64(len(rowIDs)) {
		g.log(ctx).Warn("rows marked complete differ from requested",
			"requested", len(rowIDs),
			"affected", affected,
		)
	}
	return true
}

// CountValidationErrors возвращает накопленное количество ошибок валидации импорта.
func (g *Gateway) CountValidationErrors(ctx context.Context, id domain.JobID) (int, bool) {
	count, err := g.errors.CountByJob(ctx, id)
	if err != nil {
		g.fail(ctx, "count_validation_errors", err)
		return 0, false
	}
	return count, true
}

// RecordValidationError сохраняет ошибку валидации строки.
func (g *Gateway) RecordValidationError(ctx context.Context, id domain.JobID, rowID int64, message string) bool {
	err := g.errors.Create(ctx, &domain.ValidationError{
		JobID:   id,
		RowID:   rowID,
		Message: message,
	})
	if err != nil {
		g.fail(ctx, "record_validation_error", err)
		return false
	}
	return true
}

// --- Helpers ---

func (g *Gateway) log(ctx context.Context) *slog.Logger {
	return telemetry.FromContextOr(ctx, g.logger)
}

func (g *Gateway) fail(ctx context.Context, op string, err error) {
	telemetry.StoreErrorsTotal.WithLabelValues(op).Inc()
	g.log(ctx).Error("store operation failed", "op", op, "error", err)
}
