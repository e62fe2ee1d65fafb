package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/import-worker/internal/domain"
)

// ValidationErrorRepo — репозиторий для таблицы import_validation_error.
type ValidationErrorRepo struct {
	pool *pgxpool.Pool
}

// NewValidationErrorRepo создаёт новый ValidationErrorRepo.
func NewValidationErrorRepo(pool *pgxpool.Pool) *ValidationErrorRepo {
	return &ValidationErrorRepo{pool: pool}
}

// Create добавляет ошибку валидации строки.
func (r *ValidationErrorRepo) Create(ctx context.Context, e *domain.ValidationError) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO import_validation_error (import_id, row_id, error_message)
		VALUES ($1, $2, $3)
	`, e.JobID.String(), e.RowID, e.Message)
	if err != nil {
		return fmt.Errorf("insert validation error: %w", err)
	}
	return nil
}

// CountByJob возвращает общее количество ошибок валидации импорта
// (за все прогоны, не только текущий).
func (r *ValidationErrorRepo) CountByJob(ctx context.Context, id domain.JobID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM import_validation_error WHERE import_id = $1
	`, id.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count validation errors: %w", err)
	}
	return count, nil
}
