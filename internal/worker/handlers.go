package worker

import (
	"context"

	"github.com/shaiso/import-worker/internal/dispatcher"
	"github.com/shaiso/import-worker/internal/mq"
)

// handleDelivery передаёт тело сообщения Dispatcher и переводит исход в решение по ack.
func (w *Worker) handleDelivery(ctx context.Context, d *mq.Delivery) mq.Decision {
	outcome := w.dispatcher.Handle(ctx, d.Body)
	decision := decisionFor(outcome)

	w.logger.Debug("import command handled",
		"message_id", d.MessageID,
		"redelivered", d.Redelivered,
		"outcome", outcome.String(),
		"decision", decision.String(),
	)

	return decision
}

// decisionFor: Acknowledged → Ack, Requeued → Nack с requeue,
// всё остальное → Nack без requeue (DLQ).
func decisionFor(outcome dispatcher.Outcome) mq.Decision {
	switch outcome {
	case dispatcher.Acknowledged:
		return mq.Ack
	case dispatcher.Requeued:
		return mq.Requeue
	default:
		return mq.Reject
	}
}
