// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//
// tabula-api и tabula-cli используют единый формат логирования;
// tabula-api экспортирует метрики на /metrics endpoint.
package telemetry
