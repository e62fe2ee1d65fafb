package batch

import (
	"context"
	"sort"
	"sync"

	"github.com/shaiso/import-worker/internal/domain"
)

// fakeStore — in-memory RowStore с подсчётом вызовов.
type fakeStore struct {
	mu sync.Mutex

	rows      []domain.Row
	errors    []domain.ValidationError
	initiator string

	// Сколько ошибок валидации уже было у импорта до прогона.
	priorErrors int

	cancelled bool

	// countBias искажает счётчик незавершённых строк (строки «исчезли» после подсчёта).
	countBias int

	// Подмена результатов для проверки StoreErrorPolicy.
	cancelledUnknown bool
	errorCountFails  bool
	markFails        bool
	countFails       bool

	// cancelAfterBatches > 0 — флаг отмены выставляется после N пометок batch.
	cancelAfterBatches int

	startedCalls  int
	fetchCalls    int
	markCalls     [][]int64
	cancelChecks  int
	errorCountsAt []int
}

func newFakeStore(n int) *fakeStore {
	s := &fakeStore{initiator: "alice"}
	for i := 1; i <= n; i++ {
		s.rows = append(s.rows, domain.Row{
			ID:        int64(i),
			Worksheet: "Sheet1",
			Payload:   []byte(`{"n":1}`),
		})
	}
	return s
}

func (s *fakeStore) IsCancelled(_ context.Context, _ domain.JobID) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelChecks++
	if s.cancelledUnknown {
		return false, false
	}
	return s.cancelled, true
}

func (s *fakeStore) MarkPhaseStarted(_ context.Context, _ domain.JobID, _ domain.Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startedCalls++
	return true
}

func (s *fakeStore) PhaseInitiator(_ context.Context, _ domain.JobID, _ domain.Phase) (string, bool) {
	return s.initiator, s.initiator != ""
}

func (s *fakeStore) CountIncompleteRows(_ context.Context, _ domain.JobID, phase domain.Phase) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countFails {
		return 0, false
	}
	n := 0
	for _, r := range s.rows {
		if !r.IsComplete(phase) {
			n++
		}
	}
	return n + s.countBias, true
}

func (s *fakeStore) FetchIncompleteRows(_ context.Context, _ domain.JobID, phase domain.Phase, afterRowID *int64, limit int) []domain.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++

	out := []domain.Row{}
	for _, r := range s.rows {
		if (afterRowID == nil || r.ID > *afterRowID) && !r.IsComplete(phase) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *fakeStore) MarkRowsComplete(_ context.Context, _ domain.JobID, rowIDs []int64, phase domain.Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markCalls = append(s.markCalls, append([]int64(nil), rowIDs...))
	if s.cancelAfterBatches > 0 && len(s.markCalls) >= s.cancelAfterBatches {
		s.cancelled = true
	}
	if s.markFails {
		return false
	}

	ids := make(map[int64]bool, len(rowIDs))
	for _, id := range rowIDs {
		ids[id] = true
	}
	for i := range s.rows {
		if !ids[s.rows[i].ID] {
			continue
		}
		if phase == domain.PhaseValidation {
			s.rows[i].Validated = true
		} else {
			s.rows[i].Processed = true
		}
	}
	return true
}

func (s *fakeStore) CountValidationErrors(_ context.Context, _ domain.JobID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errorCountFails {
		return 0, false
	}
	n := s.priorErrors + len(s.errors)
	s.errorCountsAt = append(s.errorCountsAt, n)
	return n, true
}

func (s *fakeStore) RecordValidationError(_ context.Context, id domain.JobID, rowID int64, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, domain.ValidationError{JobID: id, RowID: rowID, Message: message})
	return true
}

// fakeInvoker возвращает результат по номеру вызова через outcomeFor.
type fakeInvoker struct {
	mu sync.Mutex

	outcomeFor func(call int) domain.RowOutcome

	calls     int
	usernames []string
	phases    []domain.Phase

	// onCall вызывается после каждого вызова (например, для отмены контекста).
	onCall func(call int)
}

func (f *fakeInvoker) Invoke(_ context.Context, phase domain.Phase, _, username string, _ []byte) domain.RowOutcome {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.usernames = append(f.usernames, username)
	f.phases = append(f.phases, phase)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(call)
	}
	if f.outcomeFor == nil {
		return domain.Handled()
	}
	return f.outcomeFor(call)
}

func alwaysRejected(message string) func(int) domain.RowOutcome {
	return func(int) domain.RowOutcome { return domain.ValidationRejected(message) }
}
