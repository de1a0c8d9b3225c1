package spreadsheet

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/shaiso/Tabula/internal/formula"
)

// mustSet — вспомогательная функция для тестов.
func mustSet(t *testing.T, s *Spreadsheet, name, input string) []string {
	t.Helper()
	order, err := s.SetContentsOfCell(name, input)
	if err != nil {
		t.Fatalf("set %s=%q: unexpected error: %v", name, input, err)
	}
	return order
}

func valueOf(t *testing.T, s *Spreadsheet, name string) Value {
	t.Helper()
	v, err := s.GetCellValue(name)
	if err != nil {
		t.Fatalf("get value %s: %v", name, err)
	}
	return v
}

func contentsOf(t *testing.T, s *Spreadsheet, name string) Content {
	t.Helper()
	c, err := s.GetCellContents(name)
	if err != nil {
		t.Fatalf("get contents %s: %v", name, err)
	}
	return c
}

func expectNumber(t *testing.T, s *Spreadsheet, name string, expected float64) {
	t.Helper()
	v := valueOf(t, s, name)
	if v.Kind != ValueNumber || v.Number != expected {
		t.Errorf("%s: expected %v, got %s (kind %s)", name, expected, v, v.Kind)
	}
}

func TestNew_Empty(t *testing.T) {
	s := New(nil)

	if s.Changed() {
		t.Error("new spreadsheet should not be changed")
	}
	if len(s.NamesOfNonEmptyCells()) != 0 {
		t.Error("new spreadsheet should have no cells")
	}
	if !contentsOf(t, s, "A1").IsEmpty() {
		t.Error("absent cell should have empty contents")
	}
	if valueOf(t, s, "A1").Kind != ValueEmpty {
		t.Error("absent cell should have empty value")
	}
}

func TestSetContentsOfCell_Kinds(t *testing.T) {
	s := New(nil)

	mustSet(t, s, "A1", "hello")
	if c := contentsOf(t, s, "A1"); c.Kind != ContentText || c.Text != "hello" {
		t.Errorf("expected text content, got %+v", c)
	}

	mustSet(t, s, "A1", "5")
	if c := contentsOf(t, s, "A1"); c.Kind != ContentNumber || c.Number != 5 {
		t.Errorf("expected number content, got %+v", c)
	}

	mustSet(t, s, "A1", "=5")
	c := contentsOf(t, s, "A1")
	if c.Kind != ContentFormula || !c.Formula.Equal(formula.MustNew("5")) {
		t.Errorf("expected formula content, got %+v", c)
	}

	mustSet(t, s, "A1", "")
	if len(s.NamesOfNonEmptyCells()) != 0 {
		t.Error("setting empty input should remove the cell")
	}
}

func TestSetContentsOfCell_LowercaseName(t *testing.T) {
	s := New(nil)

	mustSet(t, s, "xX21", "7")
	expectNumber(t, s, "XX21", 7)
	expectNumber(t, s, "xx21", 7)

	if !slices.Equal(s.NamesOfNonEmptyCells(), []string{"XX21"}) {
		t.Errorf("unexpected names: %v", s.NamesOfNonEmptyCells())
	}
}

func TestSetContentsOfCell_InvalidName(t *testing.T) {
	s := New(nil)

	for _, name := range []string{"1A", "A", "", "A1B", "A_1"} {
		t.Run(name, func(t *testing.T) {
			_, err := s.SetContentsOfCell(name, "5")
			if !errors.Is(err, ErrInvalidName) {
				t.Errorf("expected ErrInvalidName, got %v", err)
			}
			if _, err := s.GetCellContents(name); !errors.Is(err, ErrInvalidName) {
				t.Errorf("GetCellContents: expected ErrInvalidName, got %v", err)
			}
			if _, err := s.GetCellValue(name); !errors.Is(err, ErrInvalidName) {
				t.Errorf("GetCellValue: expected ErrInvalidName, got %v", err)
			}
		})
	}

	if s.Changed() {
		t.Error("failed edits must not mark the spreadsheet changed")
	}
}

func TestSetContentsOfCell_InvalidFormula(t *testing.T) {
	s := New(nil)
	mustSet(t, s, "A1", "=B1+1")
	s.MarkSaved()

	_, err := s.SetContentsOfCell("A1", "=Invalid + 5")
	if !errors.Is(err, formula.ErrFormulaFormat) {
		t.Fatalf("expected ErrFormulaFormat, got %v", err)
	}

	if c := contentsOf(t, s, "A1"); c.String() != "=B1+1" {
		t.Errorf("contents changed after failed edit: %q", c)
	}
	if !slices.Equal(s.graph.Dependees("A1"), []string{"B1"}) {
		t.Errorf("dependencies changed after failed edit: %v", s.graph.Dependees("A1"))
	}
	if s.Changed() {
		t.Error("failed edit must not mark the spreadsheet changed")
	}
}

func TestSetContentsOfCell_Recalculation(t *testing.T) {
	s := New(nil)

	mustSet(t, s, "A1", "2")
	mustSet(t, s, "B1", "=A1+2")
	mustSet(t, s, "C1", "=B1+A1")

	order := mustSet(t, s, "A1", "5")

	if len(order) != 3 || order[0] != "A1" {
		t.Fatalf("unexpected order: %v", order)
	}
	got := slices.Sorted(slices.Values(order))
	if !slices.Equal(got, []string{"A1", "B1", "C1"}) {
		t.Errorf("expected {A1,B1,C1}, got %v", order)
	}
	if slices.Index(order, "B1") > slices.Index(order, "C1") {
		t.Errorf("B1 must be recomputed before C1: %v", order)
	}

	expectNumber(t, s, "B1", 7)
	expectNumber(t, s, "C1", 12)
}

func TestSetContentsOfCell_TextStaysText(t *testing.T) {
	s := New(nil)

	mustSet(t, s, "A1", "5")
	mustSet(t, s, "A2", "=A1+1")
	mustSet(t, s, "A3", "=A1+A2")
	mustSet(t, s, "A4", "a2")

	expectNumber(t, s, "A2", 6)

	mustSet(t, s, "A1", "6")
	expectNumber(t, s, "A2", 7)
	expectNumber(t, s, "A3", 13)

	if v := valueOf(t, s, "A4"); v.Kind != ValueText || v.Text != "a2" {
		t.Errorf("expected text value a2, got %s", v)
	}
}

func TestSetContentsOfCell_CircularRollback(t *testing.T) {
	s := New(nil)

	mustSet(t, s, "A1", "=B1")
	mustSet(t, s, "B1", "3")
	sizeBefore := s.graph.Size()
	s.MarkSaved()

	_, err := s.SetContentsOfCell("B1", "=A1")
	if !errors.Is(err, ErrCircularReference) {
		t.Fatalf("expected ErrCircularReference, got %v", err)
	}

	var ce *CircularError
	if !errors.As(err, &ce) || ce.Cell != "B1" {
		t.Errorf("expected *CircularError for B1, got %v", err)
	}

	if c := contentsOf(t, s, "A1"); c.String() != "=B1" {
		t.Errorf("A1 contents changed: %q", c)
	}
	if c := contentsOf(t, s, "B1"); c.Kind != ContentNumber || c.Number != 3 {
		t.Errorf("B1 contents changed: %+v", c)
	}
	expectNumber(t, s, "A1", 3)

	if s.graph.Size() != sizeBefore {
		t.Errorf("dependency size changed: %d → %d", sizeBefore, s.graph.Size())
	}
	if s.graph.HasDependees("B1") {
		t.Error("B1 must not keep the rejected dependency")
	}
	if s.Changed() {
		t.Error("rejected edit must not mark the spreadsheet changed")
	}
}

func TestSetContentsOfCell_CircularOnEmptyCells(t *testing.T) {
	s := New(nil)

	mustSet(t, s, "A1", "=B1")
	_, err := s.SetContentsOfCell("B1", "=A1")
	if !errors.Is(err, ErrCircularReference) {
		t.Fatalf("expected ErrCircularReference, got %v", err)
	}

	if !contentsOf(t, s, "B1").IsEmpty() {
		t.Error("B1 should stay empty")
	}
	if !slices.Equal(s.NamesOfNonEmptyCells(), []string{"A1"}) {
		t.Errorf("unexpected names: %v", s.NamesOfNonEmptyCells())
	}
}

func TestSetContentsOfCell_LongCycle(t *testing.T) {
	s := New(nil)

	mustSet(t, s, "A1", "=B1 + 5")
	mustSet(t, s, "B1", "=C1 + 2")

	if _, err := s.SetContentsOfCell("C1", "=A1 * 3"); !errors.Is(err, ErrCircularReference) {
		t.Fatalf("expected ErrCircularReference, got %v", err)
	}
	if _, err := s.SetContentsOfCell("D1", "=D1"); !errors.Is(err, ErrCircularReference) {
		t.Fatalf("self reference: expected ErrCircularReference, got %v", err)
	}
}

func TestSetContentsOfCell_EvaluationErrors(t *testing.T) {
	s := New(nil)

	mustSet(t, s, "A1", "=5/0")
	mustSet(t, s, "B1", "=A1+1")
	mustSet(t, s, "C1", "=Z9*2")
	mustSet(t, s, "D1", "text")
	mustSet(t, s, "E1", "=D1+1")

	for _, name := range []string{"A1", "B1", "C1", "E1"} {
		if v := valueOf(t, s, name); !v.IsError() {
			t.Errorf("%s: expected evaluation error, got %s", name, v)
		}
	}

	if v := valueOf(t, s, "A1"); v.Err.Reason != formula.ReasonDivisionByZero {
		t.Errorf("unexpected reason: %q", v.Err.Reason)
	}

	// Исправляем источник — ошибка уходит из зависимых
	mustSet(t, s, "A1", "=5/1")
	expectNumber(t, s, "B1", 6)

	mustSet(t, s, "Z9", "4")
	expectNumber(t, s, "C1", 8)
}

func TestSetContentsOfCell_ClearingReference(t *testing.T) {
	s := New(nil)

	mustSet(t, s, "A1", "1")
	mustSet(t, s, "B1", "=A1*10")
	order := mustSet(t, s, "A1", "")

	if !slices.Equal(order, []string{"A1", "B1"}) {
		t.Errorf("unexpected order: %v", order)
	}
	if !valueOf(t, s, "B1").IsError() {
		t.Error("B1 should become an evaluation error once A1 is empty")
	}

	// Формула заменена числом — рёбра исчезают
	mustSet(t, s, "B1", "3")
	if s.graph.Size() != 0 {
		t.Errorf("expected no dependencies, got %d", s.graph.Size())
	}
}

func TestDirectDependents(t *testing.T) {
	s := New(nil)
	mustSet(t, s, "B1", "=A1*2")
	mustSet(t, s, "C1", "=A1+B1")

	deps, err := s.DirectDependents("a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(deps, []string{"B1", "C1"}) {
		t.Errorf("unexpected dependents: %v", deps)
	}
}

func TestChanged(t *testing.T) {
	s := New(nil)
	if s.Changed() {
		t.Fatal("expected unchanged")
	}

	mustSet(t, s, "A1", "1")
	if !s.Changed() {
		t.Fatal("expected changed after edit")
	}

	if err := s.Save(t.TempDir() + "/sheet.json"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Changed() {
		t.Fatal("expected unchanged after save")
	}

	mustSet(t, s, "A2", "2")
	if !s.Changed() {
		t.Fatal("expected changed after second edit")
	}
}

func TestSetContentsOfCell_LongChain(t *testing.T) {
	s := New(nil)

	const n = 2000
	mustSet(t, s, "A1", "1")
	for i := 2; i <= n; i++ {
		mustSet(t, s, fmt.Sprintf("A%d", i), fmt.Sprintf("=A%d+1", i-1))
	}
	expectNumber(t, s, fmt.Sprintf("A%d", n), n)

	order := mustSet(t, s, "A1", "10")
	if len(order) != n {
		t.Fatalf("expected %d recalculated cells, got %d", n, len(order))
	}
	expectNumber(t, s, fmt.Sprintf("A%d", n), n+9)

	if _, err := s.SetContentsOfCell("A1", fmt.Sprintf("=A%d", n)); !errors.Is(err, ErrCircularReference) {
		t.Fatalf("expected ErrCircularReference, got %v", err)
	}
	expectNumber(t, s, "A1", 10)
}

func TestContent_String(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"5", "5"},
		{"5.50", "5.5"},
		{"hello", "hello"},
		{"= a1 + 2.0", "=A1+2"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseContent(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.String() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, c.String())
			}

			again, err := ParseContent(c.String())
			if err != nil {
				t.Fatalf("string form does not parse: %v", err)
			}
			if !again.Equal(c) {
				t.Errorf("string form %q does not round trip", c.String())
			}
		})
	}
}
