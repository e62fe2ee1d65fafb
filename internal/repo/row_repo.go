package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/import-worker/internal/domain"
)

// RowRepo — репозиторий для таблицы import_row.
type RowRepo struct {
	pool *pgxpool.Pool
}

// NewRowRepo создаёт новый RowRepo.
func NewRowRepo(pool *pgxpool.Pool) *RowRepo {
	return &RowRepo{pool: pool}
}

// CountIncomplete возвращает количество строк импорта, у которых флаг фазы ещё false.
func (r *RowRepo) CountIncomplete(ctx context.Context, id domain.JobID, phase domain.Phase) (int, error) {
	cols, err := columnsFor(phase)
	if err != nil {
		return 0, err
	}

	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM import_row WHERE import_id = $1 AND %s = false`, cols.rowFlag)
	if err := r.pool.QueryRow(ctx, query, id.String()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count incomplete rows: %w", err)
	}
	return count, nil
}

// ListIncomplete возвращает не более limit незавершённых строк, отсортированных по row_id.
// afterID=nil — с начала; иначе только строки с row_id > *afterID.
func (r *RowRepo) ListIncomplete(ctx context.Context, id domain.JobID, phase domain.Phase, afterID *int64, limit int) ([]domain.Row, error) {
	cols, err := columnsFor(phase)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT row_id, import_id, worksheet, data, validated, processed
		FROM import_row
		WHERE import_id = $1 AND %s = false AND ($2::bigint IS NULL OR row_id > $2)
		ORDER BY row_id ASC
		LIMIT $3
	`, cols.rowFlag)

	rows, err := r.pool.Query(ctx, query, id.String(), afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list incomplete rows: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Row, 0, limit)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *row)
	}
	return result, rows.Err()
}

// MarkComplete выставляет флаг фазы для перечисленных строк одним UPDATE.
// Пустой список — no-op.
func (r *RowRepo) MarkComplete(ctx context.Context, id domain.JobID, rowIDs []int64, phase domain.Phase) (int64, error) {
	if len(rowIDs) == 0 {
		return 0, nil
	}

	cols, err := columnsFor(phase)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`UPDATE import_row SET %s = true WHERE import_id = $1 AND row_id = ANY($2)`, cols.rowFlag)
	result, err := r.pool.Exec(ctx, query, id.String(), rowIDs)
	if err != nil {
		return 0, fmt.Errorf("mark rows %s: %w", cols.rowFlag, err)
	}
	return result.RowsAffected(), nil
}

// --- Helpers ---

func scanRow(rows pgx.Rows) (*domain.Row, error) {
	var row domain.Row
	var worksheet, data *string

	err := rows.Scan(
		&row.ID,
		&row.JobID,
		&worksheet,
		&data,
		&row.Validated,
		&row.Processed,
	)
	if err != nil {
		return nil, fmt.Errorf("scan import row: %w", err)
	}

	if worksheet != nil {
		row.Worksheet = *worksheet
	}
	if data != nil {
		row.Payload = []byte(*data)
	}
	return &row, nil
}
