package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeImport    Exchange = "import_tool"
	ExchangeImportDLX Exchange = "import_tool.dlx"
)

// Queues — имена очередей.
const (
	QueueImport    Queue = "import_tool"
	QueueImportDLQ Queue = "import_tool.dlq"
)

// Routing keys.
const (
	RoutingKeyImport RoutingKey = "import_tool"
	RoutingKeyDLQ    RoutingKey = "import_tool"
)

// SetupTopology объявляет exchanges, queues и bindings. Операция идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

func declareExchanges(ch *amqp.Channel) error {
	for _, name := range []Exchange{ExchangeImport, ExchangeImportDLX} {
		err := ch.ExchangeDeclare(
			string(name), // name
			"direct",     // type
			true,         // durable
			false,        // auto-deleted
			false,        // internal
			false,        // no-wait
			nil,          // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}
	return nil
}

func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// Отклонённые команды (Nack без requeue) уходят в DLQ.
		{QueueImport, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeImportDLX),
			"x-dead-letter-routing-key": string(RoutingKeyDLQ),
		}},
		{QueueImportDLQ, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}
	return nil
}

func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueImport, RoutingKeyImport, ExchangeImport},
		{QueueImportDLQ, RoutingKeyDLQ, ExchangeImportDLX},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Import RabbitMQ Topology:

    import_tool (direct)
    └── import_tool [routing: import_tool]
            Consumer: import-worker (prefetch 1)
            DLX: import_tool.dlx

    import_tool.dlx (direct)
    └── import_tool.dlq [routing: import_tool]
            Manual processing
`
}
