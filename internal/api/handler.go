package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// probeTimeout — время на одну проверку зависимости.
const probeTimeout = 2 * time.Second

// Check — проверка готовности одной зависимости.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Handler — обработчик служебных маршрутов.
type Handler struct {
	checks []Check
	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Checks []Check
	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		checks: cfg.Checks,
		logger: logger,
	}
}

// Health отвечает 200, пока процесс обслуживает запросы.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	Success(w, map[string]string{"status": "ok"})
}

// Ready проверяет все зависимости и отвечает 503, если хоть одна недоступна.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	results := make(map[string]string, len(h.checks))
	ready := true

	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := c.Probe(ctx)
		cancel()

		if err != nil {
			ready = false
			results[c.Name] = err.Error()
			h.logger.Warn("readiness check failed", "check", c.Name, "error", err)
			continue
		}
		results[c.Name] = "ok"
	}

	if !ready {
		JSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: ErrorDetail{Code: ErrCodeUnavailable, Message: "dependencies unavailable"},
			Data:  results,
		})
		return
	}
	Success(w, map[string]any{"status": "ok", "checks": results})
}
