package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/mq"
	"github.com/shaiso/Tabula/internal/spreadsheet"
)

// ListSheets возвращает список сохранённых таблиц.
// GET /api/v1/sheets
func (h *Handler) ListSheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.sheets.List(r.Context())
	if HandleError(w, h.logger, err, "") {
		return
	}

	result := make([]SheetSummary, len(sheets))
	for i, s := range sheets {
		result[i] = SheetSummaryFromDomain(s)
	}

	List(w, result, len(result))
}

// CreateSheet создаёт таблицу, сохраняет её и открывает.
// POST /api/v1/sheets
func (h *Handler) CreateSheet(w http.ResponseWriter, r *http.Request) {
	var req CreateSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	record := domain.NewSheet(req.Name)
	for name, input := range req.Cells {
		record.Document.Cells[name] = spreadsheet.CellDocument{StringForm: input}
	}

	// Проверяем начальное содержимое до записи в БД и сохраняем его
	// в канонической форме
	opened, err := record.Open(h.logger)
	if HandleError(w, h.logger, err, "") {
		return
	}
	record.Document = opened.Document()

	if err := h.sheets.Create(r.Context(), record); HandleError(w, h.logger, err, "") {
		return
	}

	s, err := h.sessions.Add(record)
	if HandleError(w, h.logger, err, "") {
		return
	}

	var resp SheetResponse
	_ = s.Do(func(sheet *spreadsheet.Spreadsheet) error {
		// Содержимое совпадает с сохранённым
		sheet.MarkSaved()
		resp = sheetResponse(s, sheet)
		return nil
	})

	Created(w, resp)
}

// GetSheet возвращает открытую таблицу со всеми непустыми ячейками.
// GET /api/v1/sheets/{id}
func (h *Handler) GetSheet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.openSession(w, r)
	if !ok {
		return
	}

	var resp SheetResponse
	_ = s.Do(func(sheet *spreadsheet.Spreadsheet) error {
		resp = sheetResponse(s, sheet)
		return nil
	})

	Success(w, resp)
}

// GetDocument возвращает содержимое таблицы в формате файла.
// GET /api/v1/sheets/{id}/document
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	s, ok := h.openSession(w, r)
	if !ok {
		return
	}

	var doc spreadsheet.Document
	_ = s.Do(func(sheet *spreadsheet.Spreadsheet) error {
		doc = sheet.Document()
		return nil
	})

	Success(w, doc)
}

// GetCell возвращает содержимое и значение ячейки.
// GET /api/v1/sheets/{id}/cells/{cell}
func (h *Handler) GetCell(w http.ResponseWriter, r *http.Request) {
	name, err := spreadsheet.NormalizeName(r.PathValue("cell"))
	if HandleError(w, h.logger, err, "") {
		return
	}

	s, ok := h.openSession(w, r)
	if !ok {
		return
	}

	var resp CellResponse
	_ = s.Do(func(sheet *spreadsheet.Spreadsheet) error {
		resp = cellResponse(sheet, name)
		return nil
	})

	Success(w, resp)
}

// SetCell изменяет ячейку и возвращает пересчитанные ячейки.
// PUT /api/v1/sheets/{id}/cells/{cell}
func (h *Handler) SetCell(w http.ResponseWriter, r *http.Request) {
	var req SetCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Input == nil {
		BadRequest(w, "input is required")
		return
	}

	s, ok := h.openSession(w, r)
	if !ok {
		return
	}

	var resp SetCellResponse
	var payload mq.CellsChangedPayload
	err := s.Do(func(sheet *spreadsheet.Spreadsheet) error {
		order, err := sheet.SetContentsOfCell(r.PathValue("cell"), *req.Input)
		if err != nil {
			return err
		}

		resp.Cell = order[0]
		resp.Recalculated = make([]CellResponse, len(order))
		payload = mq.CellsChangedPayload{
			SheetID:      s.ID,
			Cell:         order[0],
			Recalculated: make([]mq.CellValue, len(order)),
		}
		for i, name := range order {
			resp.Recalculated[i] = cellResponse(sheet, name)
			payload.Recalculated[i] = mq.CellValue{Cell: name, Value: resp.Recalculated[i].Value}
		}
		payload.Content = resp.Recalculated[0].Contents

		// Под блокировкой сессии: наблюдатели видят правки в порядке применения
		h.events.Broadcast(payload)
		return nil
	})
	if HandleError(w, h.logger, err, "") {
		return
	}

	h.publish(r.Context(), s.ID, func(p EventPublisher) error {
		return p.PublishCellsChanged(r.Context(), payload)
	})

	Success(w, resp)
}

// SaveSheet записывает документ открытой таблицы в БД.
// POST /api/v1/sheets/{id}/save
func (h *Handler) SaveSheet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.openSession(w, r)
	if !ok {
		return
	}

	record := &domain.Sheet{ID: s.ID, Name: s.Name}
	err := s.Do(func(sheet *spreadsheet.Spreadsheet) error {
		record.Document = sheet.Document()
		if err := h.sheets.UpdateDocument(r.Context(), record); err != nil {
			return err
		}
		sheet.MarkSaved()
		return nil
	})
	if HandleError(w, h.logger, err, "sheet not found") {
		return
	}

	h.publish(r.Context(), s.ID, func(p EventPublisher) error {
		return p.PublishSheetSaved(r.Context(), mq.SheetSavedPayload{
			SheetID: s.ID,
			Cells:   len(record.Document.Cells),
		})
	})

	Success(w, SaveSheetResponse{
		ID:        s.ID,
		Cells:     len(record.Document.Cells),
		UpdatedAt: record.UpdatedAt,
	})
}

// DeleteSheet удаляет таблицу из БД и закрывает её.
// DELETE /api/v1/sheets/{id}
func (h *Handler) DeleteSheet(w http.ResponseWriter, r *http.Request) {
	id, ok := sheetID(w, r)
	if !ok {
		return
	}

	if err := h.sheets.Delete(r.Context(), id); HandleError(w, h.logger, err, "sheet not found") {
		return
	}
	h.sessions.Close(id)
	h.events.CloseSheet(id)

	h.publish(r.Context(), id, func(p EventPublisher) error {
		return p.PublishSheetDeleted(r.Context(), id)
	})

	NoContent(w)
}

// openSession разбирает {id} и открывает таблицу.
// При ошибке ответ уже отправлен.
func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, ok := sheetID(w, r)
	if !ok {
		return nil, false
	}

	s, err := h.sessions.Open(r.Context(), id)
	if HandleError(w, h.logger, err, "sheet not found") {
		return nil, false
	}
	return s, true
}

// sheetID разбирает {id} из пути.
func sheetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid sheet id")
		return uuid.Nil, false
	}
	return id, true
}
