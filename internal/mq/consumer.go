package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одно событие. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, msg *Message) error

// ConsumerConfig — настройки Consumer.
type ConsumerConfig struct {
	// Queue — имя очереди. Игнорируется, если задан Declare.
	Queue Queue

	// Declare объявляет очередь на свежем канале и возвращает её имя.
	// Вызывается при каждом (пере)запуске потребления; нужен для
	// временных очередей, которые пропадают вместе с соединением.
	Declare func(ch *amqp.Channel) (Queue, error)

	Handler Handler

	// Prefetch — число сообщений без ack (по умолчанию 1).
	Prefetch int
}

// Consumer читает события из очереди и передаёт их Handler.
type Consumer struct {
	conn   *Connection
	logger *slog.Logger
	cfg    ConsumerConfig
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{conn: conn, logger: logger, cfg: cfg}
}

// Run потребляет сообщения до отмены ctx. После разрыва соединения
// ждёт переподключения и продолжает.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		deliveries, queue, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to start consuming", "queue", queue, "error", err)
		} else {
			c.logger.Info("consumer started", "queue", queue)
			err = c.drain(ctx, deliveries)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries stopped, waiting for reconnect", "queue", queue, "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
		}
	}
}

// subscribe объявляет очередь (если нужно) и начинает потребление.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, Queue, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, c.cfg.Queue, ErrNoChannel
	}

	queue := c.cfg.Queue
	if c.cfg.Declare != nil {
		q, err := c.cfg.Declare(ch)
		if err != nil {
			return nil, queue, err
		}
		queue = q
	}

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, queue, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(string(queue), "", false, false, false, false, nil)
	if err != nil {
		return nil, queue, fmt.Errorf("consume %s: %w", queue, err)
	}
	return deliveries, queue, nil
}

// errDeliveriesClosed — брокер закрыл канал доставки.
var errDeliveriesClosed = errors.New("deliveries channel closed")

// drain обрабатывает сообщения, пока открыт канал доставки.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			c.handle(ctx, raw)
		}
	}
}

// handle разбирает сообщение и подтверждает его по результату Handler.
// Неразбираемое сообщение уходит в DLQ без повтора.
func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	msg, err := DecodeMessage(raw.Body)
	if err != nil {
		c.logger.Error("failed to decode message", "error", err, "body", string(raw.Body))
		_ = raw.Nack(false, false)
		return
	}

	if err := c.cfg.Handler(ctx, msg); err != nil {
		c.logger.Error("handler failed", "message_id", msg.ID, "type", msg.Type, "error", err)
		_ = raw.Nack(false, true)
		return
	}

	_ = raw.Ack(false)
}

// DecodeMessage разбирает конверт события. Payload остаётся сырым JSON
// до вызова ParsePayload.
func DecodeMessage(body []byte) (*Message, error) {
	var envelope struct {
		Message
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("unmarshal message: missing type")
	}

	msg := envelope.Message
	msg.Payload = envelope.Payload
	return &msg, nil
}

// ParsePayload разбирает payload сообщения в T.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	var data []byte
	switch p := msg.Payload.(type) {
	case json.RawMessage:
		data = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return result, fmt.Errorf("marshal payload: %w", err)
		}
		data = b
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
