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

// Exchanges.
const (
	ExchangeSheets Exchange = "tabula.sheets"
	ExchangeDLQ    Exchange = "tabula.dlq"
)

// Очереди.
const (
	// QueueSheetEvents — долговременный журнал всех событий таблиц.
	QueueSheetEvents Queue = "sheets.events"
	QueueDLQSheets   Queue = "dlq.sheets"
)

// Routing keys. Ключ события совпадает с его MessageType.
const (
	RoutingKeyCellsChanged RoutingKey = "cells.changed"
	RoutingKeySheetSaved   RoutingKey = "sheet.saved"
	RoutingKeySheetDeleted RoutingKey = "sheet.deleted"

	// RoutingKeyAll подписывает очередь на все события таблиц.
	RoutingKeyAll RoutingKey = "#"

	routingKeyDLQ RoutingKey = "sheets"
)

// SetupTopology объявляет обменники, очереди и привязки.
// Вызов идемпотентен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeSheets, ExchangeDLQ} {
			kind := amqp.ExchangeTopic
			if ex == ExchangeDLQ {
				kind = amqp.ExchangeDirect
			}
			if err := ch.ExchangeDeclare(string(ex), kind, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		queues := []struct {
			name Queue
			args amqp.Table
		}{
			{QueueSheetEvents, amqp.Table{
				"x-dead-letter-exchange":    string(ExchangeDLQ),
				"x-dead-letter-routing-key": string(routingKeyDLQ),
			}},
			{QueueDLQSheets, nil},
		}
		for _, q := range queues {
			if _, err := ch.QueueDeclare(string(q.name), true, false, false, false, q.args); err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		bindings := []struct {
			queue    Queue
			key      RoutingKey
			exchange Exchange
		}{
			{QueueSheetEvents, RoutingKeyAll, ExchangeSheets},
			{QueueDLQSheets, routingKeyDLQ, ExchangeDLQ},
		}
		for _, b := range bindings {
			if err := ch.QueueBind(string(b.queue), string(b.key), string(b.exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// DeclareWatchQueue объявляет временную очередь подписчика: имя выдаёт
// сервер, очередь удаляется вместе с соединением. Очередь получает все
// события таблиц.
func DeclareWatchQueue(ch *amqp.Channel) (Queue, error) {
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", fmt.Errorf("declare watch queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, string(RoutingKeyAll), string(ExchangeSheets), false, nil); err != nil {
		return "", fmt.Errorf("bind watch queue: %w", err)
	}
	return Queue(q.Name), nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Tabula RabbitMQ Topology:

    tabula.sheets (topic)
    ├── sheets.events [routing: #]
    │       DLQ: dlq.sheets
    └── <watch queues> [routing: #, exclusive]
            Consumer: tabula-cli watch

    tabula.dlq (direct)
    └── dlq.sheets [routing: sheets]
  `
}
