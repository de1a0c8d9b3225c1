package spreadsheet

import (
	"errors"
	"fmt"
)

// Ошибки таблицы.
//
// Ошибки формата формулы приходят из пакета formula
// (errors.Is(err, formula.ErrFormulaFormat)).
var (
	// ErrInvalidName — некорректное имя ячейки.
	ErrInvalidName = errors.New("invalid cell name")

	// ErrDuplicateName — два ключа документа обозначают одну ячейку ("a1" и "A1").
	ErrDuplicateName = errors.New("duplicate cell name")

	// ErrCircularReference — изменение создало бы цикл в зависимостях.
	ErrCircularReference = errors.New("circular reference")

	// ErrReadWrite — таблицу не удалось сохранить или загрузить.
	ErrReadWrite = errors.New("spreadsheet read/write failed")
)

// NameError — некорректное имя ячейки.
type NameError struct {
	Name string
}

// Error реализует интерфейс error.
func (e *NameError) Error() string {
	return fmt.Sprintf("invalid cell name %q", e.Name)
}

// Unwrap возвращает базовую ошибку.
func (e *NameError) Unwrap() error {
	return ErrInvalidName
}

// DuplicateNameError — ключи документа, совпадающие после нормализации.
type DuplicateNameError struct {
	Cell  string // нормализованное имя
	First string
	Other string
}

// Error реализует интерфейс error.
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate cell name: %q and %q both name %s", e.First, e.Other, e.Cell)
}

// Unwrap возвращает ErrDuplicateName и ErrInvalidName.
func (e *DuplicateNameError) Unwrap() []error {
	return []error{ErrDuplicateName, ErrInvalidName}
}

// CircularError — отклонённое изменение, создающее цикл.
type CircularError struct {
	Cell string // редактируемая ячейка
	At   string // ячейка, на которой замкнулся цикл
}

// Error реализует интерфейс error.
func (e *CircularError) Error() string {
	return fmt.Sprintf("circular reference: setting %s closes a cycle at %s", e.Cell, e.At)
}

// Unwrap возвращает базовую ошибку.
func (e *CircularError) Unwrap() error {
	return ErrCircularReference
}

// ReadWriteError — ошибка сохранения или загрузки.
//
// Err — исходная причина: ошибка ввода-вывода, JSON, либо ошибка
// имени/формулы/цикла при воспроизведении содержимого.
type ReadWriteError struct {
	Op   string // "save" или "load"
	Path string
	Err  error
}

// Error реализует интерфейс error.
func (e *ReadWriteError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap возвращает ErrReadWrite и исходную причину.
func (e *ReadWriteError) Unwrap() []error {
	return []error{ErrReadWrite, e.Err}
}
