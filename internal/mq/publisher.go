package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/import-worker/internal/domain"
)

// CommandMessage — тело команды импорта.
type CommandMessage struct {
	JobID   domain.JobID `json:"job_id"`
	Command string       `json:"import_command"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует JSON-тело в указанный exchange с routing key.
// Возвращает MessageId опубликованного сообщения.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}

	messageID := uuid.NewString()

	err = p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    messageID,
				Timestamp:    time.Now(),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", messageID,
	)

	return messageID, nil
}

// PublishCommand ставит фазу импорта в очередь.
// Потребитель: import-worker.
func (p *Publisher) PublishCommand(ctx context.Context, jobID domain.JobID, phase domain.Phase) (string, error) {
	if !phase.Valid() {
		return "", fmt.Errorf("publish command: invalid phase %s", phase)
	}
	if jobID.IsZero() {
		return "", fmt.Errorf("publish command: empty job id")
	}

	msg := CommandMessage{JobID: jobID, Command: phase.Command()}
	return p.Publish(ctx, ExchangeImport, RoutingKeyImport, msg)
}
