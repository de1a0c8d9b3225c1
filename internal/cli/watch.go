package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tabula/internal/mq"
)

// NewWatchCmd создаёт команду, печатающую события таблиц из RabbitMQ.
// defaultURL — значение --amqp-url по умолчанию.
func NewWatchCmd(outputFn func() *Output, defaultURL string) *cobra.Command {
	var amqpURL string
	var sheetID string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream sheet events (cell edits, saves, deletions) published by tabula-api",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			logger := slog.Default()

			conn, err := mq.NewConnection(amqpURL, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.SetupTopology(cmd.Context(), conn); err != nil {
				return err
			}

			consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
				Declare: mq.DeclareWatchQueue,
				Handler: func(_ context.Context, msg *mq.Message) error {
					return printEvent(out, msg, sheetID)
				},
				Prefetch: 16,
			})

			out.Success("Watching sheet events, press Ctrl+C to stop")
			err = consumer.Run(cmd.Context())
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&amqpURL, "amqp-url", defaultURL, "RabbitMQ URL")
	cmd.Flags().StringVar(&sheetID, "sheet", "", "Only show events of this sheet ID")

	return cmd
}

// printEvent выводит событие; события других таблиц (при заданном
// фильтре) пропускаются. Неразбираемое событие выводится как ошибка и
// подтверждается, чтобы не зациклить повторную доставку.
func printEvent(out *Output, msg *mq.Message, sheetFilter string) error {
	line, sheetID, err := formatEvent(msg)
	if err != nil {
		out.Error(fmt.Sprintf("event %s: %v", msg.ID, err))
		return nil
	}
	if sheetFilter != "" && sheetID != sheetFilter {
		return nil
	}

	if out.jsonMode {
		out.JSON(msg)
		return nil
	}
	out.Line(line)
	return nil
}

// formatEvent возвращает строку для вывода и ID таблицы события.
func formatEvent(msg *mq.Message) (string, string, error) {
	ts := msg.Timestamp.Format("15:04:05")

	switch msg.Type {
	case mq.MessageTypeCellsChanged:
		p, err := mq.ParsePayload[mq.CellsChangedPayload](msg)
		if err != nil {
			return "", "", err
		}
		values := make([]string, len(p.Recalculated))
		for i, c := range p.Recalculated {
			values[i] = c.Cell + "=" + c.Value
		}
		line := fmt.Sprintf("%s %s %s := %q -> %s", ts, p.SheetID, p.Cell, p.Content, strings.Join(values, " "))
		return line, p.SheetID.String(), nil

	case mq.MessageTypeSheetSaved:
		p, err := mq.ParsePayload[mq.SheetSavedPayload](msg)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("%s %s saved (%d cells)", ts, p.SheetID, p.Cells), p.SheetID.String(), nil

	case mq.MessageTypeSheetDeleted:
		p, err := mq.ParsePayload[mq.SheetDeletedPayload](msg)
		if err != nil {
			return "", "", err
		}
		return fmt.Sprintf("%s %s deleted", ts, p.SheetID), p.SheetID.String(), nil

	default:
		return fmt.Sprintf("%s %s", ts, msg.Type), "", nil
	}
}
