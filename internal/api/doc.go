// Package api содержит HTTP API сервер tabula-api.
//
// Структура:
//   - handler.go       — Handler и его зависимости (хранилище, события, logger)
//   - sessions.go      — открытые таблицы, по одному мьютексу на таблицу
//   - routes.go        — регистрация маршрутов
//   - middleware.go    — logging, recovery, gzip, метрики запросов
//   - response.go      — JSON-ответы и отображение ошибок в HTTP статусы
//   - dto.go           — запросы и ответы
//   - sheet_handler.go — обработчики /sheets
//   - events.go        — правки таблиц по websocket (/sheets/{id}/ws)
//
// Таблица открывается из БД при первом обращении и живёт в памяти до
// удаления. Правки не пишутся в БД сами по себе: для этого есть
// POST /api/v1/sheets/{id}/save.
package api
