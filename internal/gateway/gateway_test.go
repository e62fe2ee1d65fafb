package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/import-worker/internal/domain"
	"github.com/shaiso/import-worker/internal/repo"
)

var errConnRefused = errors.New("dial tcp: connection refused")

type fakeJobRepo struct {
	cancelled    bool
	cancelledErr error

	startErrs  []error // ошибки по попыткам SetPhaseStartTime
	startCalls int

	initiator    string
	initiatorErr error
}

func (f *fakeJobRepo) IsCancelled(ctx context.Context, id domain.JobID) (bool, error) {
	return f.cancelled, f.cancelledErr
}

func (f *fakeJobRepo) SetPhaseStartTime(ctx context.Context, id domain.JobID, phase domain.Phase) error {
	f.startCalls++
	if len(f.startErrs) >= f.startCalls {
		return f.startErrs[f.startCalls-1]
	}
	return nil
}

func (f *fakeJobRepo) GetPhaseInitiator(ctx context.Context, id domain.JobID, phase domain.Phase) (string, error) {
	return f.initiator, f.initiatorErr
}

type fakeRowRepo struct {
	count    int
	countErr error

	rows    []domain.Row
	listErr error

	marked   [][]int64
	affected int64
	markErr  error
}

func (f *fakeRowRepo) CountIncomplete(ctx context.Context, id domain.JobID, phase domain.Phase) (int, error) {
	return f.count, f.countErr
}

func (f *fakeRowRepo) ListIncomplete(ctx context.Context, id domain.JobID, phase domain.Phase, afterID *int64, limit int) ([]domain.Row, error) {
	return f.rows, f.listErr
}

func (f *fakeRowRepo) MarkComplete(ctx context.Context, id domain.JobID, rowIDs []int64, phase domain.Phase) (int64, error) {
	f.marked = append(f.marked, rowIDs)
	if f.markErr != nil {
		return 0, f.markErr
	}
	return f.affected, nil
}

type fakeErrorRepo struct {
	created  []domain.ValidationError
	count    int
	err      error
	countErr error
}

func (f *fakeErrorRepo) Create(ctx context.Context, e *domain.ValidationError) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *e)
	return nil
}

func (f *fakeErrorRepo) CountByJob(ctx context.Context, id domain.JobID) (int, error) {
	return f.count, f.countErr
}

func newGateway(jobs *fakeJobRepo, rows *fakeRowRepo, errs *fakeErrorRepo) *Gateway {
	return New(Config{Jobs: jobs, Rows: rows, ValidationErrors: errs})
}

// --- Job Tests ---

func TestGateway_IsCancelled(t *testing.T) {
	ctx := context.Background()

	g := newGateway(&fakeJobRepo{cancelled: true}, &fakeRowRepo{}, &fakeErrorRepo{})
	cancelled, ok := g.IsCancelled(ctx, "1")
	assert.True(t, cancelled)
	assert.True(t, ok)

	g = newGateway(&fakeJobRepo{cancelled: true, cancelledErr: errConnRefused}, &fakeRowRepo{}, &fakeErrorRepo{})
	cancelled, ok = g.IsCancelled(ctx, "1")
	assert.False(t, cancelled, "store error must never read as cancelled")
	assert.False(t, ok)
}

func TestGateway_MarkPhaseStarted_RetriesOnce(t *testing.T) {
	jobs := &fakeJobRepo{startErrs: []error{errConnRefused}}
	g := newGateway(jobs, &fakeRowRepo{}, &fakeErrorRepo{})

	assert.True(t, g.MarkPhaseStarted(context.Background(), "1", domain.PhaseValidation))
	assert.Equal(t, 2, jobs.startCalls)
}

func TestGateway_MarkPhaseStarted_GivesUpAfterRetry(t *testing.T) {
	jobs := &fakeJobRepo{startErrs: []error{errConnRefused, errConnRefused, errConnRefused}}
	g := newGateway(jobs, &fakeRowRepo{}, &fakeErrorRepo{})

	assert.False(t, g.MarkPhaseStarted(context.Background(), "1", domain.PhaseValidation))
	assert.Equal(t, 2, jobs.startCalls, "exactly one retry")
}

func TestGateway_MarkPhaseStarted_NoRetryOnNotFound(t *testing.T) {
	jobs := &fakeJobRepo{startErrs: []error{repo.ErrNotFound}}
	g := newGateway(jobs, &fakeRowRepo{}, &fakeErrorRepo{})

	assert.False(t, g.MarkPhaseStarted(context.Background(), "1", domain.PhaseProcessing))
	assert.Equal(t, 1, jobs.startCalls)
}

func TestGateway_PhaseInitiator(t *testing.T) {
	ctx := context.Background()

	g := newGateway(&fakeJobRepo{initiator: "alice"}, &fakeRowRepo{}, &fakeErrorRepo{})
	user, ok := g.PhaseInitiator(ctx, "1", domain.PhaseValidation)
	assert.Equal(t, "alice", user)
	assert.True(t, ok)

	g = newGateway(&fakeJobRepo{initiatorErr: repo.ErrNotFound}, &fakeRowRepo{}, &fakeErrorRepo{})
	user, ok = g.PhaseInitiator(ctx, "1", domain.PhaseValidation)
	assert.Empty(t, user)
	assert.False(t, ok)

	g = newGateway(&fakeJobRepo{initiatorErr: errConnRefused}, &fakeRowRepo{}, &fakeErrorRepo{})
	_, ok = g.PhaseInitiator(ctx, "1", domain.PhaseValidation)
	assert.False(t, ok)
}

// --- Row Tests ---

func TestGateway_CountIncompleteRows(t *testing.T) {
	ctx := context.Background()

	g := newGateway(&fakeJobRepo{}, &fakeRowRepo{count: 7}, &fakeErrorRepo{})
	count, ok := g.CountIncompleteRows(ctx, "1", domain.PhaseValidation)
	assert.Equal(t, 7, count)
	assert.True(t, ok)

	g = newGateway(&fakeJobRepo{}, &fakeRowRepo{count: 7, countErr: errConnRefused}, &fakeErrorRepo{})
	count, ok = g.CountIncompleteRows(ctx, "1", domain.PhaseValidation)
	assert.Zero(t, count)
	assert.False(t, ok)
}

func TestGateway_FetchIncompleteRows_NeverNil(t *testing.T) {
	ctx := context.Background()

	g := newGateway(&fakeJobRepo{}, &fakeRowRepo{}, &fakeErrorRepo{})
	rows := g.FetchIncompleteRows(ctx, "1", domain.PhaseValidation, nil, 51)
	require.NotNil(t, rows)
	assert.Empty(t, rows)

	g = newGateway(&fakeJobRepo{}, &fakeRowRepo{listErr: errConnRefused}, &fakeErrorRepo{})
	rows = g.FetchIncompleteRows(ctx, "1", domain.PhaseValidation, nil, 51)
	require.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestGateway_MarkRowsComplete(t *testing.T) {
	ctx := context.Background()

	rows := &fakeRowRepo{affected: 3}
	g := newGateway(&fakeJobRepo{}, rows, &fakeErrorRepo{})

	assert.True(t, g.MarkRowsComplete(ctx, "1", []int64{1, 2, 3}, domain.PhaseValidation))
	require.Len(t, rows.marked, 1, "one batched call")
	assert.Equal(t, []int64{1, 2, 3}, rows.marked[0])

	// Пустой список — без обращения к БД
	assert.True(t, g.MarkRowsComplete(ctx, "1", nil, domain.PhaseValidation))
	assert.Len(t, rows.marked, 1)

	rows.markErr = errConnRefused
	assert.False(t, g.MarkRowsComplete(ctx, "1", []int64{4}, domain.PhaseValidation))
}

// --- ValidationError Tests ---

func TestGateway_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	errs := &fakeErrorRepo{count: 12}
	g := newGateway(&fakeJobRepo{}, &fakeRowRepo{}, errs)

	assert.True(t, g.RecordValidationError(ctx, "9", 5, "bad date"))
	require.Len(t, errs.created, 1)
	assert.Equal(t, domain.ValidationError{JobID: "9", RowID: 5, Message: "bad date"}, errs.created[0])

	count, ok := g.CountValidationErrors(ctx, "9")
	assert.Equal(t, 12, count)
	assert.True(t, ok)

	errs.err = errConnRefused
	errs.countErr = errConnRefused
	assert.False(t, g.RecordValidationError(ctx, "9", 6, "bad"))
	_, ok = g.CountValidationErrors(ctx, "9")
	assert.False(t, ok)
}
