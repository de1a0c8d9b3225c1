package domain

import (
	"errors"
	"testing"

	"github.com/shaiso/Tabula/internal/spreadsheet"
)

func TestNewSheet(t *testing.T) {
	s := NewSheet("budget")

	if s.Name != "budget" {
		t.Errorf("expected name budget, got %q", s.Name)
	}
	if s.Document.Cells == nil || len(s.Document.Cells) != 0 {
		t.Errorf("expected empty non-nil cells, got %v", s.Document.Cells)
	}
	if !s.CreatedAt.Equal(s.UpdatedAt) {
		t.Error("new sheet should have CreatedAt == UpdatedAt")
	}
	if NewSheet("budget").ID == s.ID {
		t.Error("sheet IDs must be unique")
	}
}

func TestSheet_Open(t *testing.T) {
	s := NewSheet("")
	s.Document.Cells["A1"] = spreadsheet.CellDocument{StringForm: "2"}
	s.Document.Cells["B1"] = spreadsheet.CellDocument{StringForm: "=A1*A1"}

	sheet, err := s.Open(nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	v, err := sheet.GetCellValue("B1")
	if err != nil {
		t.Fatalf("get value: %v", err)
	}
	if v.Kind != spreadsheet.ValueNumber || v.Number != 4 {
		t.Errorf("expected B1 = 4, got %s", v)
	}
}

func TestSheet_OpenCyclic(t *testing.T) {
	s := NewSheet("")
	s.Document.Cells["A1"] = spreadsheet.CellDocument{StringForm: "=B1"}
	s.Document.Cells["B1"] = spreadsheet.CellDocument{StringForm: "=A1"}

	if _, err := s.Open(nil); !errors.Is(err, spreadsheet.ErrCircularReference) {
		t.Errorf("expected ErrCircularReference, got %v", err)
	}
}
