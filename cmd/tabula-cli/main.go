// Tabula CLI — редактирование файлов таблиц и клиент tabula-api.
//
// Использование:
//
//	tabula-cli [--api-url URL] [--json] <command> [args]
//
// Значения флагов по умолчанию читаются из $TABULA_CONFIG или
// ~/.config/tabula/config.toml (api_url, amqp_url, json).
//
// Команды:
//
//	set, get, show, deps  Работа с локальным файлом таблицы
//	eval                  Вычисление выражения
//	remote                Таблицы на сервере tabula-api
//	watch                 События таблиц из RabbitMQ
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tabula/internal/cli"
	"github.com/shaiso/Tabula/internal/mq"
	"github.com/shaiso/Tabula/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	// Логи (циклы, переподключения) идут в stderr, данные — в stdout
	logger := telemetry.NewLogger(os.Stderr, os.Getenv("LOG_FORMAT"), telemetry.LogLevel())

	var cfg cli.Config
	if path, err := cli.ConfigPath(); err == nil {
		if cfg, err = cli.LoadConfig(path); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		logger.Debug("config loaded", "path", path)
	}

	rootCmd := &cobra.Command{
		Use:           "tabula-cli",
		Short:         "Tabula CLI — reactive spreadsheet files and server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", cli.Or(cfg.APIURL, "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", cfg.JSON, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewSetCmd(outputFn),
		cli.NewGetCmd(outputFn),
		cli.NewShowCmd(outputFn),
		cli.NewDepsCmd(outputFn),
		cli.NewEvalCmd(outputFn),
		cli.NewRemoteCmd(clientFn, outputFn),
		cli.NewWatchCmd(outputFn, cli.Or(cfg.AMQPURL, mq.URLFromEnv())),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
