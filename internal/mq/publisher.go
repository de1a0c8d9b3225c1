package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип события.
type MessageType string

// Типы событий.
const (
	MessageTypeCellsChanged MessageType = "cells.changed"
	MessageTypeSheetSaved   MessageType = "sheet.saved"
	MessageTypeSheetDeleted MessageType = "sheet.deleted"
)

// Message — конверт события.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// CellValue — значение ячейки в событии (каноническая строка).
type CellValue struct {
	Cell  string `json:"cell"`
	Value string `json:"value"`
}

// CellsChangedPayload — правка ячейки.
type CellsChangedPayload struct {
	SheetID uuid.UUID `json:"sheet_id"`

	// Cell — отредактированная ячейка, Content — её новое содержимое.
	Cell    string `json:"cell"`
	Content string `json:"content"`

	// Recalculated — пересчитанные ячейки в порядке пересчёта, Cell первой.
	Recalculated []CellValue `json:"recalculated"`
}

// SheetSavedPayload — документ таблицы записан в БД.
type SheetSavedPayload struct {
	SheetID uuid.UUID `json:"sheet_id"`
	Cells   int       `json:"cells"`
}

// SheetDeletedPayload — таблица удалена.
type SheetDeletedPayload struct {
	SheetID uuid.UUID `json:"sheet_id"`
}

// Publisher публикует события таблиц в ExchangeSheets.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// NewMessage оборачивает payload в конверт с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(exchange), string(routingKey), false, false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishCellsChanged публикует правку ячейки и результат пересчёта.
func (p *Publisher) PublishCellsChanged(ctx context.Context, payload CellsChangedPayload) error {
	return p.Publish(ctx, ExchangeSheets, RoutingKeyCellsChanged, NewMessage(MessageTypeCellsChanged, payload))
}

// PublishSheetSaved публикует сохранение документа.
func (p *Publisher) PublishSheetSaved(ctx context.Context, payload SheetSavedPayload) error {
	return p.Publish(ctx, ExchangeSheets, RoutingKeySheetSaved, NewMessage(MessageTypeSheetSaved, payload))
}

// PublishSheetDeleted публикует удаление таблицы.
func (p *Publisher) PublishSheetDeleted(ctx context.Context, sheetID uuid.UUID) error {
	return p.Publish(ctx, ExchangeSheets, RoutingKeySheetDeleted,
		NewMessage(MessageTypeSheetDeleted, SheetDeletedPayload{SheetID: sheetID}))
}
