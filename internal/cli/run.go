package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/import-worker/internal/batch"
	"github.com/shaiso/import-worker/internal/domain"
)

// NewRunCmd создаёт команду, выполняющую одну фазу без очереди.
func NewRunCmd(env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "run JOB_ID COMMAND",
		Short: "Run one import phase directly against the database",
		Long: `Run validation or processing for one import and print the result.

COMMAND is "validate" or "process". The phase resumes from incomplete rows,
so it is safe to run again after an interruption.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, phase, err := parseJobArgs(args)
			if err != nil {
				return err
			}

			cfg := env.Config()
			logger := env.Logger()
			out := env.Output()

			store, pool, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			result, err := newDriver(cfg, store, logger).Run(cmd.Context(), id, phase)
			if errors.Is(err, batch.ErrInterrupted) {
				out.PrintResult(result)
				return fmt.Errorf("interrupted after %d rows; run again to resume", result.RowsCompleted)
			}
			if err != nil {
				return err
			}

			out.PrintResult(result)
			return nil
		},
	}
}

// parseJobArgs разбирает JOB_ID и COMMAND.
func parseJobArgs(args []string) (domain.JobID, domain.Phase, error) {
	id := domain.JobID(args[0])
	if id.IsZero() {
		return "", 0, errors.New("JOB_ID must not be empty")
	}

	phase, err := domain.ParseCommand(args[1])
	if err != nil {
		return "", 0, fmt.Errorf("%w (expected %q or %q)", err, domain.CommandValidate, domain.CommandProcess)
	}
	return id, phase, nil
}
