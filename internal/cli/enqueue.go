package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/import-worker/internal/mq"
)

// NewEnqueueCmd создаёт команду публикации команды импорта в очередь.
func NewEnqueueCmd(env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue JOB_ID COMMAND",
		Short: "Publish an import command to the queue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, phase, err := parseJobArgs(args)
			if err != nil {
				return err
			}

			cfg := env.Config()
			logger := env.Logger()
			out := env.Output()

			conn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
			if err != nil {
				return fmt.Errorf("connect rabbitmq: %w", err)
			}
			defer conn.Close()

			if err := mq.SetupTopology(cmd.Context(), conn); err != nil {
				return fmt.Errorf("setup topology: %w", err)
			}

			messageID, err := mq.NewPublisher(conn, logger).PublishCommand(cmd.Context(), id, phase)
			if err != nil {
				return err
			}

			out.Print(
				[]string{"MESSAGE_ID", "JOB_ID", "COMMAND"},
				[][]string{{messageID, id.String(), phase.Command()}},
				map[string]string{
					"message_id":     messageID,
					"job_id":         id.String(),
					"import_command": phase.Command(),
				},
			)
			out.Success(fmt.Sprintf("Enqueued %s for import %s", phase.Command(), id))
			return nil
		},
	}
}
