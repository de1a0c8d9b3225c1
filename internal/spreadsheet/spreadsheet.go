package spreadsheet

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/shaiso/Tabula/internal/depgraph"
	"github.com/shaiso/Tabula/internal/formula"
	"github.com/shaiso/Tabula/internal/telemetry"
)

// cell — непустая ячейка: содержимое и последнее вычисленное значение.
type cell struct {
	content Content
	value   Value
}

// Spreadsheet — таблица с реактивным пересчётом.
//
// Хранит только непустые ячейки; отсутствующая ячейка считается пустой.
// Граф зависимостей связывает ячейку-формулу с ячейками, на которые
// она ссылается. Таблица не потокобезопасна: вызывающий сам
// сериализует доступ.
type Spreadsheet struct {
	cells   map[string]*cell
	graph   *depgraph.Graph
	changed bool
	logger  *slog.Logger
}

// New создаёт пустую таблицу. Если logger == nil, используется глобальный.
func New(logger *slog.Logger) *Spreadsheet {
	if logger == nil {
		logger = slog.Default()
	}
	return &Spreadsheet{
		cells:  make(map[string]*cell),
		graph:  depgraph.New(),
		logger: logger,
	}
}

// Changed возвращает true, если таблица изменялась после последнего
// успешного сохранения или загрузки.
func (s *Spreadsheet) Changed() bool {
	return s.changed
}

// NormalizeName проверяет имя ячейки и приводит его к верхнему регистру.
func NormalizeName(name string) (string, error) {
	if !formula.IsVariable(name) {
		return "", &NameError{Name: name}
	}
	return strings.ToUpper(name), nil
}

// NamesOfNonEmptyCells возвращает отсортированные имена непустых ячеек.
func (s *Spreadsheet) NamesOfNonEmptyCells() []string {
	return slices.Sorted(maps.Keys(s.cells))
}

// GetCellContents возвращает содержимое ячейки (Empty для отсутствующей).
func (s *Spreadsheet) GetCellContents(name string) (Content, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Content{}, err
	}
	c, ok := s.cells[name]
	if !ok {
		return Content{Kind: ContentEmpty}, nil
	}
	return c.content, nil
}

// GetCellValue возвращает значение ячейки (Empty для отсутствующей).
func (s *Spreadsheet) GetCellValue(name string) (Value, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Value{}, err
	}
	c, ok := s.cells[name]
	if !ok {
		return Value{Kind: ValueEmpty}, nil
	}
	return c.value, nil
}

// DirectDependents возвращает ячейки, формулы которых ссылаются на name.
func (s *Spreadsheet) DirectDependents(name string) ([]string, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}
	return s.graph.Dependents(name), nil
}

// SetContentsOfCell записывает ввод пользователя в ячейку и пересчитывает
// её и все транзитивно зависимые ячейки.
//
// Возвращает порядок пересчёта (name первым). При ошибке имени, формата
// формулы или цикла таблица остаётся в точности такой, какой была до вызова.
func (s *Spreadsheet) SetContentsOfCell(name, input string) ([]string, error) {
	name, err := NormalizeName(name)
	if err != nil {
		telemetry.CellEdits.WithLabelValues(telemetry.EditInvalidName).Inc()
		return nil, err
	}

	content, err := ParseContent(input)
	if err != nil {
		telemetry.CellEdits.WithLabelValues(telemetry.EditInvalidFormula).Inc()
		return nil, err
	}

	order, err := s.apply(name, content)
	if err != nil {
		telemetry.CellEdits.WithLabelValues(telemetry.EditCircular).Inc()
		return nil, err
	}

	telemetry.CellEdits.WithLabelValues(telemetry.EditOK).Inc()
	telemetry.RecalculatedCells.Observe(float64(len(order)))

	s.logger.Debug("cell updated",
		"cell", name,
		"content", content.String(),
		"recalculated", len(order),
	)

	return order, nil
}

// apply устанавливает уже разобранное содержимое.
//
// Рёбра ячейки заменяются заранее; если порядок пересчёта выявил цикл,
// прежние рёбра восстанавливаются, содержимое не трогается.
func (s *Spreadsheet) apply(name string, content Content) ([]string, error) {
	previous := s.graph.Dependees(name)
	s.graph.ReplaceDependees(name, content.Variables())

	order, err := s.graph.Order(name)
	if err != nil {
		s.graph.ReplaceDependees(name, previous)

		var ce *depgraph.CycleError
		at := name
		if errors.As(err, &ce) {
			at = ce.Node
		}
		s.logger.Warn("circular reference rejected", "cell", name, "at", at)

		return nil, &CircularError{Cell: name, At: at}
	}

	if content.IsEmpty() {
		delete(s.cells, name)
	} else {
		s.cells[name] = &cell{content: content}
	}

	for _, n := range order {
		s.recalculate(n)
	}

	s.changed = true
	return order, nil
}

// recalculate обновляет значение одной ячейки по её содержимому.
func (s *Spreadsheet) recalculate(name string) {
	c, ok := s.cells[name]
	if !ok {
		return
	}

	switch c.content.Kind {
	case ContentNumber:
		c.value = Value{Kind: ValueNumber, Number: c.content.Number}
	case ContentText:
		c.value = Value{Kind: ValueText, Text: c.content.Text}
	case ContentFormula:
		v, evalErr := c.content.Formula.Evaluate(s.lookup)
		if evalErr != nil {
			c.value = Value{Kind: ValueError, Err: evalErr}
			return
		}
		c.value = Value{Kind: ValueNumber, Number: v}
	}
}

// lookup возвращает числовое значение ячейки для формул.
// Пустая, текстовая или ошибочная ячейка — неопределённая переменная.
func (s *Spreadsheet) lookup(name string) (float64, error) {
	c, ok := s.cells[name]
	if !ok || c.value.Kind != ValueNumber {
		return 0, fmt.Errorf("%w: %s", formula.ErrUndefinedVariable, name)
	}
	return c.value.Number, nil
}
