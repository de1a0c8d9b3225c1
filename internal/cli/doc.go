// Package cli реализует инструмент командной строки tabula-cli.
//
// # Локальные файлы
//
// Команды set, get, show, deps работают с файлом таблицы напрямую:
// загружают его, выполняют операцию и (для set) сохраняют обратно.
// Доступ к файлу сериализуется блокировкой FILE.lock (gofrs/flock):
// set берёт эксклюзивную блокировку, чтение — разделяемую.
//
//	tabula-cli set budget.sprd A1 5 B1 =A1*2
//	tabula-cli show budget.sprd
//
// eval вычисляет выражение без ссылок на ячейки.
//
// # Сервер
//
// Группа remote — клиент tabula-api через HTTP (Client). Типы ответов
// дублируются из api/dto.go, CLI не импортирует internal/api.
//
//	tabula-cli remote create --name budget
//	tabula-cli remote set ID A1 =B1+1
//
// watch печатает события таблиц из RabbitMQ.
//
// # Настройки
//
// Значения --api-url, --json и watch --amqp-url по умолчанию берутся из
// TOML файла (LoadConfig, путь — ConfigPath).
//
// # Output
//
// Данные выводятся таблицей (text/tabwriter) или JSON (--json) в
// stdout, сообщения — в stderr: tabula-cli show f.sprd --json | jq .
//
// Команды создаются фабриками (NewSetCmd, NewRemoteCmd и т.д.),
// принимающими clientFn и outputFn — замыкания для ленивого создания
// Client и Output после разбора PersistentFlags.
package cli
