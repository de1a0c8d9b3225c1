// Package domain содержит сохраняемые сущности Tabula.
package domain

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/spreadsheet"
)

// Sheet — таблица, сохранённая в БД.
//
// Document хранит только содержимое ячеек (строковые формы);
// значения пересчитываются при открытии.
type Sheet struct {
	// ID — уникальный идентификатор таблицы.
	ID uuid.UUID `json:"id"`

	// Name — отображаемое имя, не обязано быть уникальным.
	Name string `json:"name"`

	// Document — содержимое ячеек в формате файла таблицы.
	Document spreadsheet.Document `json:"document"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSheet создаёт пустую таблицу с новым ID.
func NewSheet(name string) *Sheet {
	now := time.Now().UTC()
	return &Sheet{
		ID:        uuid.New(),
		Name:      name,
		Document:  spreadsheet.Document{Cells: map[string]spreadsheet.CellDocument{}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Open строит таблицу из сохранённого документа.
func (s *Sheet) Open(logger *slog.Logger) (*spreadsheet.Spreadsheet, error) {
	sheet := spreadsheet.New(logger)
	if err := sheet.FromDocument(s.Document); err != nil {
		return nil, err
	}
	return sheet, nil
}
