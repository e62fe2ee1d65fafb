package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/import-worker/internal/batch"
	"github.com/shaiso/import-worker/internal/domain"
)

type runCall struct {
	id    domain.JobID
	phase domain.Phase
}

type fakeRunner struct {
	calls  []runCall
	result domain.RunResult
	err    error
	panic  any
}

func (f *fakeRunner) Run(_ context.Context, id domain.JobID, phase domain.Phase) (domain.RunResult, error) {
	f.calls = append(f.calls, runCall{id: id, phase: phase})
	if f.panic != nil {
		panic(f.panic)
	}
	result := f.result
	result.JobID = id
	result.Phase = phase
	return result, f.err
}

type fakeLocker struct {
	held     bool
	err      error
	released int
}

func (f *fakeLocker) TryLock(_ context.Context, _ domain.JobID, _ domain.Phase) (func(), bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if f.held {
		return nil, false, nil
	}
	return func() { f.released++ }, true, nil
}

func completed() domain.RunResult {
	return domain.RunResult{Status: domain.RunStatusCompleted}
}

// --- Message Tests ---

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantJob   domain.JobID
		wantPhase domain.Phase
		wantErr   error
	}{
		{"string id", `{"job_id":"abc","import_command":"validate"}`, "abc", domain.PhaseValidation, nil},
		{"numeric id", `{"job_id":42,"import_command":"process"}`, "42", domain.PhaseProcessing, nil},
		{"legacy key", `{"import_id":7,"import_command":"validate"}`, "7", domain.PhaseValidation, nil},
		{"job_id wins over import_id", `{"job_id":1,"import_id":2,"import_command":"process"}`, "1", domain.PhaseProcessing, nil},
		{"empty object", `{}`, "", 0, ErrInvalidMessage},
		{"not json", `bogus`, "", 0, ErrInvalidMessage},
		{"json array", `[1,2]`, "", 0, ErrInvalidMessage},
		{"missing command", `{"job_id":1}`, "", 0, ErrInvalidMessage},
		{"empty job id", `{"job_id":"","import_command":"validate"}`, "", 0, ErrInvalidMessage},
		{"boolean job id", `{"job_id":true,"import_command":"validate"}`, "", 0, ErrInvalidMessage},
		{"unknown command", `{"job_id":1,"import_command":"delete"}`, "", 0, domain.ErrUnknownCommand},
		{"command is case sensitive", `{"job_id":1,"import_command":"Validate"}`, "", 0, domain.ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, phase, err := ParseMessage([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantJob, msg.Job())
			assert.Equal(t, tt.wantPhase, phase)
		})
	}
}

// --- Handle Tests ---

func TestHandle_RejectsInvalidMessages(t *testing.T) {
	for _, body := range []string{`{}`, `bogus`, `{"job_id":1,"import_command":"delete"}`} {
		runner := &fakeRunner{result: completed()}
		d := New(Config{Runner: runner})

		assert.Equal(t, Rejected, d.Handle(context.Background(), []byte(body)), body)
		assert.Empty(t, runner.calls, body)
	}
}

func TestHandle_RunsPhase(t *testing.T) {
	runner := &fakeRunner{result: completed()}
	d := New(Config{Runner: runner})

	outcome := d.Handle(context.Background(), []byte(`{"job_id":42,"import_command":"process"}`))

	assert.Equal(t, Acknowledged, outcome)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, runCall{id: "42", phase: domain.PhaseProcessing}, runner.calls[0])
}

func TestHandle_AcknowledgesEveryTerminalStatus(t *testing.T) {
	statuses := []domain.RunStatus{
		domain.RunStatusCompleted,
		domain.RunStatusCancelled,
		domain.RunStatusNoRowsNeeded,
	}
	for _, status := range statuses {
		runner := &fakeRunner{result: domain.RunResult{Status: status}}
		d := New(Config{Runner: runner})

		outcome := d.Handle(context.Background(), []byte(`{"job_id":"1","import_command":"validate"}`))
		assert.Equal(t, Acknowledged, outcome, string(status))
	}
}

func TestHandle_PanicIsRejected(t *testing.T) {
	runner := &fakeRunner{panic: "boom"}
	d := New(Config{Runner: runner})

	var outcome Outcome
	assert.NotPanics(t, func() {
		outcome = d.Handle(context.Background(), []byte(`{"job_id":"1","import_command":"validate"}`))
	})
	assert.Equal(t, Rejected, outcome)
}

func TestHandle_RunErrorIsRejected(t *testing.T) {
	runner := &fakeRunner{err: errors.New("unexpected")}
	d := New(Config{Runner: runner})

	outcome := d.Handle(context.Background(), []byte(`{"job_id":"1","import_command":"process"}`))
	assert.Equal(t, Rejected, outcome)
}

func TestHandle_InterruptIsRequeued(t *testing.T) {
	runner := &fakeRunner{err: batch.ErrInterrupted}
	d := New(Config{Runner: runner})

	outcome := d.Handle(context.Background(), []byte(`{"job_id":"1","import_command":"process"}`))
	assert.Equal(t, Requeued, outcome)
}

func TestHandle_Lock(t *testing.T) {
	body := []byte(`{"job_id":"1","import_command":"validate"}`)

	t.Run("held by another worker", func(t *testing.T) {
		runner := &fakeRunner{result: completed()}
		d := New(Config{Runner: runner, Locker: &fakeLocker{held: true}})

		assert.Equal(t, Acknowledged, d.Handle(context.Background(), body))
		assert.Empty(t, runner.calls)
	})

	t.Run("acquired and released", func(t *testing.T) {
		runner := &fakeRunner{result: completed()}
		locker := &fakeLocker{}
		d := New(Config{Runner: runner, Locker: locker})

		assert.Equal(t, Acknowledged, d.Handle(context.Background(), body))
		assert.Len(t, runner.calls, 1)
		assert.Equal(t, 1, locker.released)
	})

	t.Run("released after panic", func(t *testing.T) {
		runner := &fakeRunner{panic: "boom"}
		locker := &fakeLocker{}
		d := New(Config{Runner: runner, Locker: locker})

		assert.Equal(t, Rejected, d.Handle(context.Background(), body))
		assert.Equal(t, 1, locker.released)
	})

	t.Run("backend error runs without lock", func(t *testing.T) {
		runner := &fakeRunner{result: completed()}
		d := New(Config{Runner: runner, Locker: &fakeLocker{err: errors.New("redis down")}})

		assert.Equal(t, Acknowledged, d.Handle(context.Background(), body))
		assert.Len(t, runner.calls, 1)
	})
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "acknowledged", Acknowledged.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "requeued", Requeued.String())
}
