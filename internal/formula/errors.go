package formula

import (
	"errors"
	"fmt"
)

// Ошибки формул.
var (
	// ErrFormulaFormat — синтаксически некорректная формула.
	ErrFormulaFormat = errors.New("invalid formula")

	// ErrUndefinedVariable — lookup не смог вычислить значение переменной.
	ErrUndefinedVariable = errors.New("undefined variable")
)

// FormatError — ошибка синтаксиса формулы с контекстом.
type FormatError struct {
	Expr    string // исходное выражение
	Token   string // токен, на котором остановилась проверка (может быть пустым)
	Message string // описание нарушенного правила
}

// Error реализует интерфейс error.
func (e *FormatError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("invalid formula %q at %q: %s", e.Expr, e.Token, e.Message)
	}
	return fmt.Sprintf("invalid formula %q: %s", e.Expr, e.Message)
}

// Unwrap возвращает базовую ошибку.
func (e *FormatError) Unwrap() error {
	return ErrFormulaFormat
}

func newFormatError(expr, token, message string) *FormatError {
	return &FormatError{
		Expr:    expr,
		Token:   token,
		Message: message,
	}
}

// Error — ошибка вычисления формулы.
//
// Это значение, а не error: оно сохраняется как значение ячейки
// и распространяется на зависимые формулы.
type Error struct {
	// Reason — человекочитаемая причина.
	Reason string `json:"reason"`
}

// String возвращает причину ошибки.
func (e Error) String() string {
	return e.Reason
}

// Причины ошибок вычисления.
const (
	ReasonDivisionByZero = "division by zero"
	reasonUndefinedVar   = "undefined variable: "
)
