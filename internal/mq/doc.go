// Package mq рассылает события таблиц через RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — exchange, очереди и привязки
//   - publisher.go  — публикация событий
//   - consumer.go   — чтение событий (tabula-cli watch)
//
// Типы сообщений:
//   - cells.changed — правка ячейки и список пересчитанных ячеек
//   - sheet.saved   — документ таблицы сохранён в БД
//   - sheet.deleted — таблица удалена
//
// Exchanges:
//   - tabula.sheets — события таблиц (topic)
//   - tabula.dlq    — dead letter
package mq
