package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/import-worker/internal/batch"
	"github.com/shaiso/import-worker/internal/config"
	"github.com/shaiso/import-worker/internal/gateway"
	"github.com/shaiso/import-worker/internal/invoker"
	"github.com/shaiso/import-worker/internal/repo"
)

// Env — зависимости команд, доступные после парсинга флагов.
type Env struct {
	Config func() config.Config
	Logger func() *slog.Logger
	Output func() *Output
}

// openStore подключается к БД и собирает gateway поверх репозиториев.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*gateway.Gateway, *pgxpool.Pool, error) {
	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("database connected")

	gw := gateway.New(gateway.Config{
		Jobs:             repo.NewJobRepo(pool),
		Rows:             repo.NewRowRepo(pool),
		ValidationErrors: repo.NewValidationErrorRepo(pool),
		Logger:           logger,
	})
	return gw, pool, nil
}

// newDriver собирает batch.Driver с invoker'ом внешнего сервиса.
func newDriver(cfg config.Config, store batch.RowStore, logger *slog.Logger) *batch.Driver {
	inv := invoker.New(invoker.Config{
		BaseURL:          cfg.PhaseServiceURL,
		ValidateEndpoint: cfg.ValidateEndpoint,
		ProcessEndpoint:  cfg.ProcessEndpoint,
		Timeout:          cfg.HTTPTimeout,
		RateLimit:        cfg.RateLimit,
		Logger:           logger,
	})

	continuation := cfg.Continuation()
	return batch.New(batch.Config{
		Store:        store,
		Invoker:      inv,
		BatchSize:    cfg.BatchSize,
		Continuation: &continuation,
		Completion:   cfg.CompletionPolicy,
		Logger:       logger,
	})
}
