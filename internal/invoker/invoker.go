package invoker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaiso/import-worker/internal/domain"
	"github.com/shaiso/import-worker/internal/telemetry"
)

// Значения по умолчанию.
const (
	DefaultValidateEndpoint = "Importv2Endpoints/validate_row"
	DefaultProcessEndpoint  = "Importv2Endpoints/process_row"

	defaultHTTPTimeout = 30 * time.Second

	// maxResponseBytes — ограничение на чтение тела ответа.
	maxResponseBytes = 1 << 20
)

// Invoker вызывает внешний сервис для одной строки.
type Invoker struct {
	baseURL   string
	endpoints map[domain.Phase]string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Config — конфигурация Invoker.
type Config struct {
	// BaseURL — адрес сервиса, например http://duchamp:8000.
	BaseURL string

	// ValidateEndpoint / ProcessEndpoint — путь относительно BaseURL.
	ValidateEndpoint string
	ProcessEndpoint  string

	// Timeout — таймаут одного запроса (default: 30s).
	// Игнорируется, если передан Client.
	Timeout time.Duration

	// RateLimit — максимум запросов в секунду, 0 — без ограничения.
	RateLimit float64

	Client *http.Client
	Logger *slog.Logger
}

// New создаёт Invoker.
func New(cfg Config) *Invoker {
	validate := cfg.ValidateEndpoint
	if validate == "" {
		validate = DefaultValidateEndpoint
	}
	process := cfg.ProcessEndpoint
	if process == "" {
		process = DefaultProcessEndpoint
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Invoker{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		endpoints: map[domain.Phase]string{
			domain.PhaseValidation: strings.Trim(validate, "/"),
			domain.PhaseProcessing: strings.Trim(process, "/"),
		},
		client:  client,
		limiter: limiter,
		logger:  logger,
	}
}

// Invoke отправляет payload строки в сервис фазы и классифицирует ответ.
//
// POST {baseURL}/{endpoint}/{worksheet}/{username}, тело — payload без изменений.
func (i *Invoker) Invoke(ctx context.Context, phase domain.Phase, worksheet, username string, payload []byte) domain.RowOutcome {
	outcome := i.invoke(ctx, phase, worksheet, username, payload)
	telemetry.RowsInvokedTotal.WithLabelValues(phase.String(), outcome.Kind.String()).Inc()
	return outcome
}

func (i *Invoker) invoke(ctx context.Context, phase domain.Phase, worksheet, username string, payload []byte) domain.RowOutcome {
	logger := i.log(ctx)

	target, err := i.URL(phase, worksheet, username)
	if err != nil {
		logger.Error("cannot build phase url", "error", err)
		return domain.TransportFailure(err.Error())
	}

	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return domain.TransportFailure(fmt.Sprintf("rate limiter: %v", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		logger.Error("create phase request", "error", err)
		return domain.TransportFailure(err.Error())
	}

	logger.Debug("sending row", "url", target, "bytes", len(payload))

	start := time.Now()
	resp, err := i.client.Do(req)
	telemetry.PhaseCallDuration.WithLabelValues(phase.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("phase request failed", "error", err)
		return domain.TransportFailure(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("unexpected status from phase service",
			"status_code", resp.StatusCode,
			"body", telemetry.Truncate(string(body), 200),
		)
		return domain.TransportFailure(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	// processing: ответ не интерпретируется
	if phase != domain.PhaseValidation {
		return domain.Handled()
	}

	if err != nil {
		logger.Error("read validation response", "error", err)
		return domain.ValidationRejected(InvalidResponseMessage)
	}

	verdict, err := ParseValidationResponse(body)
	if err != nil {
		logger.Error("invalid response received from validation url",
			"error", err,
			"body", telemetry.Truncate(string(body), 200),
		)
	}
	if verdict.Valid {
		return domain.Handled()
	}
	return domain.ValidationRejected(verdict.Message)
}

// URL строит адрес сервиса для фазы.
func (i *Invoker) URL(phase domain.Phase, worksheet, username string) (string, error) {
	endpoint, ok := i.endpoints[phase]
	if !ok {
		return "", fmt.Errorf("no endpoint for phase %s", phase)
	}
	return i.baseURL + "/" + endpoint + "/" + url.PathEscape(worksheet) + "/" + url.PathEscape(username), nil
}

func (i *Invoker) log(ctx context.Context) *slog.Logger {
	return telemetry.FromContextOr(ctx, i.logger)
}
