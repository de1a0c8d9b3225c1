package spreadsheet

import (
	"strings"

	"github.com/shaiso/Tabula/internal/formula"
)

// FormulaPrefix — признак формулы во вводе пользователя.
const FormulaPrefix = "="

// ContentKind — вариант содержимого ячейки.
type ContentKind int

const (
	ContentEmpty ContentKind = iota
	ContentNumber
	ContentText
	ContentFormula
)

// String возвращает имя варианта: empty, number, text, formula.
func (k ContentKind) String() string {
	switch k {
	case ContentNumber:
		return "number"
	case ContentText:
		return "text"
	case ContentFormula:
		return "formula"
	default:
		return "empty"
	}
}

// Content — содержимое ячейки: ровно один активный вариант.
type Content struct {
	Kind    ContentKind
	Number  float64
	Text    string
	Formula *formula.Formula
}

// ParseContent разбирает ввод пользователя:
//   - пустая строка — Empty
//   - число — Number
//   - строка с префиксом "=" — Formula (ошибка формата прерывает разбор)
//   - иначе — Text
func ParseContent(input string) (Content, error) {
	if input == "" {
		return Content{Kind: ContentEmpty}, nil
	}

	if v, ok := formula.ParseNumber(input); ok {
		return Content{Kind: ContentNumber, Number: v}, nil
	}

	if expr, ok := strings.CutPrefix(input, FormulaPrefix); ok {
		f, err := formula.New(expr)
		if err != nil {
			return Content{}, err
		}
		return Content{Kind: ContentFormula, Formula: f}, nil
	}

	return Content{Kind: ContentText, Text: input}, nil
}

// IsEmpty проверяет, что ячейка пуста.
func (c Content) IsEmpty() bool {
	return c.Kind == ContentEmpty
}

// Variables возвращает имена ячеек, на которые ссылается формула.
func (c Content) Variables() []string {
	if c.Kind != ContentFormula {
		return nil
	}
	return c.Formula.Variables()
}

// String возвращает строковую форму содержимого — ту строку, которую
// нужно передать в SetContentsOfCell, чтобы получить это содержимое.
func (c Content) String() string {
	switch c.Kind {
	case ContentNumber:
		return formula.FormatNumber(c.Number)
	case ContentText:
		return c.Text
	case ContentFormula:
		return FormulaPrefix + c.Formula.String()
	default:
		return ""
	}
}

// Equal сравнивает содержимое (формулы — по канонической форме).
func (c Content) Equal(other Content) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case ContentNumber:
		return c.Number == other.Number
	case ContentText:
		return c.Text == other.Text
	case ContentFormula:
		return c.Formula.Equal(other.Formula)
	default:
		return true
	}
}

// ValueKind — вариант значения ячейки.
type ValueKind int

const (
	ValueEmpty ValueKind = iota
	ValueNumber
	ValueText
	ValueError
)

// String возвращает имя варианта: empty, number, text, error.
func (k ValueKind) String() string {
	switch k {
	case ValueNumber:
		return "number"
	case ValueText:
		return "text"
	case ValueError:
		return "error"
	default:
		return "empty"
	}
}

// Value — вычисленное значение ячейки.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
	Err    *formula.Error
}

// String возвращает отображаемую форму значения.
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return formula.FormatNumber(v.Number)
	case ValueText:
		return v.Text
	case ValueError:
		return "#ERROR: " + v.Err.Reason
	default:
		return ""
	}
}

// IsError проверяет, является ли значение ошибкой вычисления.
func (v Value) IsError() bool {
	return v.Kind == ValueError
}
