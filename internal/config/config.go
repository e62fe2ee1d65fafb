package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/shaiso/import-worker/internal/batch"
	"github.com/shaiso/import-worker/internal/invoker"
	"github.com/shaiso/import-worker/internal/lock"
	"github.com/shaiso/import-worker/internal/mq"
	"github.com/shaiso/import-worker/internal/repo"
)

// Значения по умолчанию.
const (
	DefaultPhaseServiceURL = "http://localhost:8000"
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultWorkerPort      = "8083"
)

// Config — конфигурация процесса.
type Config struct {
	DatabaseURL string
	RabbitMQURL string

	// Внешний сервис фаз.
	PhaseServiceURL  string
	ValidateEndpoint string
	ProcessEndpoint  string
	HTTPTimeout      time.Duration
	RateLimit        float64

	// Batch Driver.
	BatchSize            int
	MinRowsForErrorCheck int
	MaxValidationErrors  int
	StoreErrorPolicy     batch.StoreErrorPolicy
	CompletionPolicy     batch.CompletionPolicy

	// Job lock; пустой RedisURL отключает lock.
	RedisURL   string
	JobLockTTL time.Duration

	WorkerPort string

	LogLevel  string
	LogFormat string
}

// Continuation возвращает политику продолжения для batch.Driver.
func (c Config) Continuation() batch.ContinuationPolicy {
	return batch.ContinuationPolicy{
		MinRowsForErrorCheck: c.MinRowsForErrorCheck,
		MaxValidationErrors:  c.MaxValidationErrors,
		OnStoreError:         c.StoreErrorPolicy,
	}
}

// LockEnabled возвращает true, если задан REDIS_URL.
func (c Config) LockEnabled() bool {
	return c.RedisURL != ""
}

// Load подгружает .env (если есть) и читает окружение процесса.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(os.LookupEnv)
}

// LoadFrom читает конфигурацию через lookup. Ошибки всех полей собираются вместе.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}

	cfg := Config{
		DatabaseURL:          r.str("DB_URL", repo.DefaultDSN),
		RabbitMQURL:          r.str("RABBITMQ_URL", mq.DefaultURL()),
		PhaseServiceURL:      r.url("PHASE_SERVICE_URL", DefaultPhaseServiceURL),
		ValidateEndpoint:     r.str("PHASE_VALIDATE_ENDPOINT", invoker.DefaultValidateEndpoint),
		ProcessEndpoint:      r.str("PHASE_PROCESS_ENDPOINT", invoker.DefaultProcessEndpoint),
		HTTPTimeout:          r.duration("PHASE_HTTP_TIMEOUT", DefaultHTTPTimeout),
		RateLimit:            r.float("PHASE_RATE_LIMIT", 0),
		BatchSize:            r.positiveInt("IMPORT_BATCH_SIZE", batch.DefaultBatchSize),
		MinRowsForErrorCheck: r.positiveInt("ERROR_CHECK_MIN_ROWS", batch.DefaultMinRowsForErrorCheck),
		MaxValidationErrors:  r.positiveInt("MAX_VALIDATION_ERRORS", batch.DefaultMaxValidationErrors),
		RedisURL:             r.str("REDIS_URL", ""),
		JobLockTTL:           r.duration("JOB_LOCK_TTL", lock.DefaultTTL),
		WorkerPort:           r.str("WORKER_PORT", DefaultWorkerPort),
		LogLevel:             r.str("LOG_LEVEL", "info"),
		LogFormat:            r.str("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.StoreErrorPolicy, err = batch.ParseStoreErrorPolicy(r.str("STORE_ERROR_POLICY", "")); err != nil {
		r.fail("STORE_ERROR_POLICY", err)
	}
	if cfg.CompletionPolicy, err = batch.ParseCompletionPolicy(r.str("COMPLETION_POLICY", "")); err != nil {
		r.fail("COMPLETION_POLICY", err)
	}
	if cfg.RateLimit < 0 {
		r.fail("PHASE_RATE_LIMIT", errors.New("must not be negative"))
	}
	if port, err := strconv.Atoi(cfg.WorkerPort); err != nil || port <= 0 || port > 65535 {
		r.fail("WORKER_PORT", fmt.Errorf("invalid port %q", cfg.WorkerPort))
	}

	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	return cfg, nil
}

// reader накапливает ошибки разбора, чтобы сообщить обо всех сразу.
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return def
}

func (r *reader) url(key, def string) string {
	v := strings.TrimRight(r.str(key, def), "/")
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" || u.Host == "" {
		r.fail(key, fmt.Errorf("invalid url %q", v))
	}
	return v
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		r.fail(key, fmt.Errorf("invalid duration %q", v))
		return def
	}
	return d
}

func (r *reader) positiveInt(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		r.fail(key, fmt.Errorf("invalid positive integer %q", v))
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, fmt.Errorf("invalid number %q", v))
		return def
	}
	return f
}
