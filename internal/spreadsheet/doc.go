// Package spreadsheet реализует хранилище ячеек с реактивным пересчётом.
//
// Включает:
//   - content.go     — содержимое (Empty/Number/Text/Formula) и значения ячеек
//   - spreadsheet.go — редактирование, поиск циклов, откат, пересчёт
//   - persist.go     — JSON документ, Save/Load
//
// Редактирование атомарно: ошибка имени, формулы или цикла оставляет
// и содержимое, и граф зависимостей такими, какими они были до вызова.
// Ошибки вычисления формул — это значения ячеек, а не error.
package spreadsheet
