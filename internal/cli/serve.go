package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/import-worker/internal/api"
	"github.com/shaiso/import-worker/internal/config"
	"github.com/shaiso/import-worker/internal/dispatcher"
	"github.com/shaiso/import-worker/internal/lock"
	"github.com/shaiso/import-worker/internal/mq"
	"github.com/shaiso/import-worker/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd создаёт команду, запускающую worker.
func NewServeCmd(env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume import commands from RabbitMQ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), env.Config(), env.Logger())
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("starting import-worker",
		"phase_service", cfg.PhaseServiceURL,
		"batch_size", cfg.BatchSize,
		"store_error_policy", cfg.StoreErrorPolicy.String(),
		"completion_policy", cfg.CompletionPolicy.String(),
	)

	store, pool, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		return fmt.Errorf("setup topology: %w", err)
	}
	logger.Debug(mq.TopologyInfo())

	checks := []api.Check{
		{Name: "database", Probe: pool.Ping},
		{Name: "rabbitmq", Probe: func(context.Context) error {
			if !mqConn.IsConnected() {
				return errors.New("disconnected")
			}
			return nil
		}},
	}

	var locker dispatcher.Locker
	if cfg.LockEnabled() {
		client, err := lock.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()

		locker = lock.NewRedisLocker(client, cfg.JobLockTTL, logger)
		checks = append(checks, api.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
		logger.Info("job lock enabled", "ttl", cfg.JobLockTTL)
	}

	w := worker.New(worker.Config{
		Dispatcher: dispatcher.New(dispatcher.Config{
			Runner: newDriver(cfg, store, logger),
			Locker: locker,
			Logger: logger,
		}),
		Conn:   mqConn,
		Logger: logger,
	})

	mux := http.NewServeMux()
	api.NewHandler(api.Config{Checks: checks, Logger: logger}).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.WorkerPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := w.Start(gctx); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
		<-gctx.Done()
		w.Stop()
		return nil
	})

	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("import-worker stopped")
	return err
}
