// import-worker — выполняет фазы импорта (validation, processing) по командам из очереди.
//
// Использование:
//
//	import-worker [--json] <command> [args]
//
// Команды:
//
//	serve    Потреблять команды из RabbitMQ
//	run      Выполнить одну фазу напрямую против БД
//	enqueue  Опубликовать команду в очередь
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/import-worker/internal/cli"
	"github.com/shaiso/import-worker/internal/config"
	"github.com/shaiso/import-worker/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool
	var cfg config.Config
	var logger *slog.Logger

	rootCmd := &cobra.Command{
		Use:           "import-worker",
		Short:         "Import worker — batch driver for import validation and processing",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Name() == "serve" {
				logger = telemetry.SetupLogger(cfg.LogLevel, cfg.LogFormat)
				return nil
			}
			// stdout остаётся под результат команды
			logger = telemetry.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	env := cli.Env{
		Config: func() config.Config { return cfg },
		Logger: func() *slog.Logger { return logger },
		Output: func() *cli.Output { return cli.NewOutput(jsonOutput) },
	}

	rootCmd.AddCommand(
		cli.NewServeCmd(env),
		cli.NewRunCmd(env),
		cli.NewEnqueueCmd(env),
	)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
