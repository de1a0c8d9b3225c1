package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/spreadsheet"
)

// CreateSheetRequest — запрос на создание таблицы. Тело необязательно.
type CreateSheetRequest struct {
	Name string `json:"name"`

	// Cells — начальное содержимое: имя ячейки → ввод.
	Cells map[string]string `json:"cells,omitempty"`
}

// SetCellRequest — запрос на изменение ячейки.
// Пустой input очищает ячейку.
type SetCellRequest struct {
	Input *string `json:"input"`
}

// CellResponse — ячейка: содержимое и значение.
type CellResponse struct {
	Cell        string `json:"cell"`
	Contents    string `json:"contents"`
	ContentKind string `json:"content_kind"`
	Value       string `json:"value"`
	ValueKind   string `json:"value_kind"`
	Error       string `json:"error,omitempty"`
}

// SheetSummary — таблица в списке.
type SheetSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Cells     int       `json:"cells"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SheetResponse — открытая таблица со всеми непустыми ячейками.
type SheetResponse struct {
	ID      uuid.UUID      `json:"id"`
	Name    string         `json:"name"`
	Changed bool           `json:"changed"`
	Cells   []CellResponse `json:"cells"`
}

// SetCellResponse — результат правки: ячейки в порядке пересчёта.
type SetCellResponse struct {
	Cell         string         `json:"cell"`
	Recalculated []CellResponse `json:"recalculated"`
}

// SaveSheetResponse — результат сохранения.
type SaveSheetResponse struct {
	ID        uuid.UUID `json:"id"`
	Cells     int       `json:"cells"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SheetSummaryFromDomain конвертирует domain.Sheet в SheetSummary.
func SheetSummaryFromDomain(s domain.Sheet) SheetSummary {
	return SheetSummary{
		ID:        s.ID,
		Name:      s.Name,
		Cells:     len(s.Document.Cells),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// cellResponse собирает CellResponse по уже нормализованному имени.
func cellResponse(sheet *spreadsheet.Spreadsheet, name string) CellResponse {
	// Имя уже проверено, ошибок быть не может
	content, _ := sheet.GetCellContents(name)
	value, _ := sheet.GetCellValue(name)

	resp := CellResponse{
		Cell:        name,
		Contents:    content.String(),
		ContentKind: content.Kind.String(),
		Value:       value.String(),
		ValueKind:   value.Kind.String(),
	}
	if value.IsError() {
		resp.Error = value.Err.Reason
	}
	return resp
}

// sheetResponse собирает SheetResponse по открытой таблице.
func sheetResponse(s *Session, sheet *spreadsheet.Spreadsheet) SheetResponse {
	names := sheet.NamesOfNonEmptyCells()
	cells := make([]CellResponse, len(names))
	for i, name := range names {
		cells[i] = cellResponse(sheet, name)
	}
	return SheetResponse{
		ID:      s.ID,
		Name:    s.Name,
		Changed: sheet.Changed(),
		Cells:   cells,
	}
}
