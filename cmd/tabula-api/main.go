// Tabula API — HTTP сервер, держащий открытые таблицы в памяти.
//
// Таблицы хранятся в PostgreSQL (DB_URL), события правок публикуются
// в RabbitMQ (RABBITMQ_URL), если брокер доступен.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Tabula/internal/api"
	"github.com/shaiso/Tabula/internal/mq"
	"github.com/shaiso/Tabula/internal/repo"
	"github.com/shaiso/Tabula/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting tabula-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	sheetRepo := repo.NewSheetRepo(pool)
	if err := sheetRepo.EnsureSchema(ctx); err != nil {
		logger.Error("failed to prepare schema", "error", err)
		os.Exit(1)
	}

	cfg := api.Config{
		Sheets: sheetRepo,
		Logger: logger,
	}

	// RabbitMQ необязателен: без него события не публикуются
	mqConn, err := mq.NewConnection(mq.URLFromEnv(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, sheet events disabled", "error", err)
	} else {
		defer mqConn.Close()

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		logger.Debug(mq.TopologyInfo())

		cfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	handler := api.NewHandler(cfg)

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s, %d open sheets", time.Since(startTime).Round(time.Second), handler.Sessions().Len())
	})
	mux.Handle("/metrics", promhttp.Handler())

	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.RegisterOnShutdown(handler.Events().CloseAll)

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
