package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/import-worker/internal/domain"
)

// JobRepo — репозиторий для таблицы import.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// GetByID возвращает импорт по ID.
func (r *JobRepo) GetByID(ctx context.Context, id domain.JobID) (*domain.Job, error) {
	query := `
		SELECT import_id, cancelled_by_user, validation_start_time, processing_start_time,
		       uploaded_by_user, processed_by_user
		FROM import
		WHERE import_id = $1
	`
	var job domain.Job
	var cancelled *bool
	var uploadedBy, processedBy *string

	err := r.pool.QueryRow(ctx, query, id.String()).Scan(
		&job.ID,
		&cancelled,
		&job.ValidationStartedAt,
		&job.ProcessingStartedAt,
		&uploadedBy,
		&processedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get import: %w", err)
	}

	job.CancelledByUser = cancelled != nil && *cancelled
	if uploadedBy != nil {
		job.UploadedBy = *uploadedBy
	}
	if processedBy != nil {
		job.ProcessedBy = *processedBy
	}
	return &job, nil
}

// IsCancelled возвращает флаг отмены. NULL считается false.
func (r *JobRepo) IsCancelled(ctx context.Context, id domain.JobID) (bool, error) {
	var cancelled *bool
	err := r.pool.QueryRow(ctx, `
		SELECT cancelled_by_user FROM import WHERE import_id = $1
	`, id.String()).Scan(&cancelled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("select cancelled_by_user: %w", err)
	}
	return cancelled != nil && *cancelled, nil
}

// SetPhaseStartTime проставляет время старта фазы в now().
func (r *JobRepo) SetPhaseStartTime(ctx context.Context, id domain.JobID, phase domain.Phase) error {
	cols, err := columnsFor(phase)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE import SET %s = now() WHERE import_id = $1`, cols.startTime)
	result, err := r.pool.Exec(ctx, query, id.String())
	if err != nil {
		return fmt.Errorf("update %s: %w", cols.startTime, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPhaseInitiator возвращает пользователя, запустившего фазу.
// Если пользователь не записан, возвращает ErrNotFound.
func (r *JobRepo) GetPhaseInitiator(ctx context.Context, id domain.JobID, phase domain.Phase) (string, error) {
	cols, err := columnsFor(phase)
	if err != nil {
		return "", err
	}

	var username *string
	query := fmt.Sprintf(`SELECT %s FROM import WHERE import_id = $1`, cols.initiator)
	err = r.pool.QueryRow(ctx, query, id.String()).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select %s: %w", cols.initiator, err)
	}
	if username == nil {
		return "", ErrNotFound
	}
	return *username, nil
}
