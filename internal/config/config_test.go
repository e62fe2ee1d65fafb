package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/import-worker/internal/batch"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.PhaseServiceURL)
	assert.Equal(t, "Importv2Endpoints/validate_row", cfg.ValidateEndpoint)
	assert.Equal(t, "Importv2Endpoints/process_row", cfg.ProcessEndpoint)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 51, cfg.BatchSize)
	assert.Equal(t, 100, cfg.MinRowsForErrorCheck)
	assert.Equal(t, 100, cfg.MaxValidationErrors)
	assert.Equal(t, batch.FailOpen, cfg.StoreErrorPolicy)
	assert.Equal(t, batch.CompleteAlways, cfg.CompletionPolicy)
	assert.Equal(t, "8083", cfg.WorkerPort)
	assert.False(t, cfg.LockEnabled())
	assert.Equal(t, batch.DefaultContinuationPolicy(), cfg.Continuation())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(lookupFrom(map[string]string{
		"PHASE_SERVICE_URL":     "https://apps.example.com/",
		"PHASE_HTTP_TIMEOUT":    "5s",
		"PHASE_RATE_LIMIT":      "12.5",
		"IMPORT_BATCH_SIZE":     "10",
		"MAX_VALIDATION_ERRORS": "5",
		"STORE_ERROR_POLICY":    "fail_closed",
		"COMPLETION_POLICY":     "on_success",
		"REDIS_URL":             "redis://localhost:6379/0",
		"JOB_LOCK_TTL":          "1m",
		"WORKER_PORT":           "9000",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://apps.example.com", cfg.PhaseServiceURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.InDelta(t, 12.5, cfg.RateLimit, 0.001)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 5, cfg.Continuation().MaxValidationErrors)
	assert.Equal(t, batch.FailClosed, cfg.Continuation().OnStoreError)
	assert.Equal(t, batch.CompleteOnSuccess, cfg.CompletionPolicy)
	assert.True(t, cfg.LockEnabled())
	assert.Equal(t, time.Minute, cfg.JobLockTTL)
	assert.Equal(t, "9000", cfg.WorkerPort)
}

func TestLoadFrom_EmptyValueMeansDefault(t *testing.T) {
	cfg, err := LoadFrom(lookupFrom(map[string]string{"IMPORT_BATCH_SIZE": "  "}))
	require.NoError(t, err)
	assert.Equal(t, 51, cfg.BatchSize)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := map[string]string{
		"PHASE_SERVICE_URL":  "not a url",
		"PHASE_HTTP_TIMEOUT": "soon",
		"PHASE_RATE_LIMIT":   "-1",
		"IMPORT_BATCH_SIZE":  "0",
		"STORE_ERROR_POLICY": "maybe",
		"COMPLETION_POLICY":  "never",
		"WORKER_PORT":        "http",
		"JOB_LOCK_TTL":       "-5s",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := LoadFrom(lookupFrom(map[string]string{key: value}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadFrom_ReportsAllErrors(t *testing.T) {
	_, err := LoadFrom(lookupFrom(map[string]string{
		"IMPORT_BATCH_SIZE": "x",
		"WORKER_PORT":       "0",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMPORT_BATCH_SIZE")
	assert.Contains(t, err.Error(), "WORKER_PORT")
}
