package spreadsheet

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/shaiso/Tabula/internal/telemetry"
)

// Document — сохраняемое представление таблицы.
//
//	{ "Cells": { "A1": { "StringForm": "5" }, "B1": { "StringForm": "=A1+2" } } }
//
// В документ попадают только непустые ячейки.
type Document struct {
	Cells map[string]CellDocument `json:"Cells"`
}

// CellDocument — сохраняемая ячейка.
type CellDocument struct {
	// StringForm — строка, которую нужно передать в SetContentsOfCell.
	StringForm string `json:"StringForm"`
}

// Document возвращает документ с текущим содержимым таблицы.
func (s *Spreadsheet) Document() Document {
	doc := Document{Cells: make(map[string]CellDocument, len(s.cells))}
	for name, c := range s.cells {
		doc.Cells[name] = CellDocument{StringForm: c.content.String()}
	}
	return doc
}

// MarkSaved сбрасывает признак изменений. Используется, когда документ
// сохранён не через Save (например, в базу данных).
func (s *Spreadsheet) MarkSaved() {
	s.changed = false
}

// FromDocument полностью заменяет содержимое таблицы содержимым документа.
//
// Имена ячеек сначала нормализуются; два ключа, обозначающие одну
// ячейку, — ошибка (*DuplicateNameError). Затем каждая ячейка
// воспроизводится через тот же разбор, что и SetContentsOfCell, во
// временную таблицу. При любой ошибке (имя, формула, цикл) текущая
// таблица не изменяется. При успехе признак изменений сбрасывается.
func (s *Spreadsheet) FromDocument(doc Document) error {
	keys := make(map[string]string, len(doc.Cells))
	for key := range doc.Cells {
		name, err := NormalizeName(key)
		if err != nil {
			return fmt.Errorf("cell %s: %w", key, err)
		}
		if prev, ok := keys[name]; ok {
			first, other := min(prev, key), max(prev, key)
			return &DuplicateNameError{Cell: name, First: first, Other: other}
		}
		keys[name] = key
	}

	scratch := New(s.logger)
	for _, name := range slices.Sorted(maps.Keys(keys)) {
		if _, err := scratch.SetContentsOfCell(name, doc.Cells[keys[name]].StringForm); err != nil {
			return fmt.Errorf("cell %s: %w", name, err)
		}
	}

	s.cells = scratch.cells
	s.graph = scratch.graph
	s.changed = false
	return nil
}

// Save сохраняет таблицу в JSON файл и сбрасывает признак изменений.
// Файл записывается атомарно: во временный файл рядом, затем rename.
func (s *Spreadsheet) Save(path string) error {
	data, err := json.MarshalIndent(s.Document(), "", "  ")
	if err != nil {
		return &ReadWriteError{Op: "save", Path: path, Err: err}
	}

	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return &ReadWriteError{Op: "save", Path: path, Err: err}
	}

	s.changed = false
	s.logger.Debug("spreadsheet saved", "path", path, "cells", len(s.cells))
	return nil
}

// Load заменяет содержимое таблицы содержимым JSON файла.
// При любой ошибке текущая таблица не изменяется.
func (s *Spreadsheet) Load(path string) error {
	if err := s.load(path); err != nil {
		telemetry.SheetLoads.WithLabelValues("error").Inc()
		return &ReadWriteError{Op: "load", Path: path, Err: err}
	}

	telemetry.SheetLoads.WithLabelValues("ok").Inc()
	s.logger.Debug("spreadsheet loaded", "path", path, "cells", len(s.cells))
	return nil
}

func (s *Spreadsheet) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		return err
	}

	return s.FromDocument(doc)
}

// DecodeDocument разбирает JSON документа. Отсутствие поля Cells — ошибка.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	if doc.Cells == nil {
		return Document{}, fmt.Errorf("decode document: missing Cells")
	}
	return doc, nil
}

// atomicWriteFile пишет данные во временный файл в той же директории
// и переименовывает его в path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tabula-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		// Убираем временный файл при неудаче
		_ = os.Remove(tmpName)
		return err
	}

	return nil
}
