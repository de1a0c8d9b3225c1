// Package formula содержит движок выражений ячеек.
//
// Включает:
//   - lexer.go    — ленивая токенизация выражения (participle lexer)
//   - formula.go  — валидация синтаксиса, каноническая форма, сравнение
//   - evaluate.go — вычисление через shunting-yard с таблицей приоритетов
//
// Formula неизменяема: токены и каноническая строка строятся один раз
// в New. Ошибки вычисления (деление на ноль, неизвестная переменная)
// возвращаются значением Error, а не через error.
package formula
