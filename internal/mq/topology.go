package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

const (
	// ExchangeEvents — события выполнения цепочек (topic).
	ExchangeEvents Exchange = "cipherchain.events"

	// ExchangeDLQ — сообщения, которые не удалось обработать.
	ExchangeDLQ Exchange = "cipherchain.dlq"
)

const (
	// QueueHistory — очередь recorder'а: результаты для истории.
	QueueHistory Queue = "chain.history"

	// QueueDLQHistory — отброшенные сообщения истории.
	QueueDLQHistory Queue = "dlq.history"
)

const (
	RoutingKeyChainExecuted RoutingKey = "chain.executed"
	RoutingKeyDLQHistory    RoutingKey = "history"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue    Queue
	key      RoutingKey
	exchange Exchange
}

var (
	exchanges = []exchangeDecl{
		{ExchangeEvents, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}

	queues = []queueDecl{
		{QueueHistory, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQHistory),
		}},
		{QueueDLQHistory, nil},
	}

	bindings = []bindingDecl{
		{QueueHistory, RoutingKeyChainExecuted, ExchangeEvents},
		{QueueDLQHistory, RoutingKeyDLQHistory, ExchangeDLQ},
	}
)

// SetupTopology объявляет обменники, очереди и привязки. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range exchanges {
			if err := ch.ExchangeDeclare(string(ex.name), ex.kind, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		for _, q := range queues {
			if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range bindings {
			if err := ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}
		return nil
	})
}

// TopologyInfo описывает топологию для стартового лога.
func TopologyInfo() string {
	return `
  Cipherchain RabbitMQ topology:

    cipherchain.events (topic)
    └── chain.history [routing: chain.executed]
            consumer: cipherchain-recorder
            DLQ: dlq.history

    cipherchain.dlq (direct)
    └── dlq.history [routing: history]
            manual processing
`
}
