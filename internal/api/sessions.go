package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/spreadsheet"
	"github.com/shaiso/Tabula/internal/telemetry"
)

// Session — открытая таблица. Spreadsheet не потокобезопасен,
// поэтому любой доступ к нему идёт через Do.
type Session struct {
	ID   uuid.UUID
	Name string

	mu    sync.Mutex
	sheet *spreadsheet.Spreadsheet
}

// Do выполняет fn под мьютексом сессии.
func (s *Session) Do(fn func(sheet *spreadsheet.Spreadsheet) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.sheet)
}

// Sessions — реестр открытых таблиц.
//
// Таблица загружается из SheetStore при первом Open; одновременные
// Open одной таблицы выполняют одну загрузку.
type Sessions struct {
	store  SheetStore
	logger *slog.Logger

	mu    sync.RWMutex
	open  map[uuid.UUID]*Session
	loads singleflight.Group
}

// NewSessions создаёт пустой реестр.
func NewSessions(store SheetStore, logger *slog.Logger) *Sessions {
	return &Sessions{
		store:  store,
		logger: logger,
		open:   make(map[uuid.UUID]*Session),
	}
}

// Len возвращает число открытых таблиц.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.open)
}

// Open возвращает открытую таблицу, при необходимости загружая её.
// Ошибки хранилища (repo.ErrNotFound) и разбора документа
// возвращаются как есть.
//
// Загрузка общая для одновременных вызовов и не зависит от отмены ctx
// отдельного вызывающего: отменённый вызов возвращает ctx.Err(),
// остальные получают таблицу.
func (r *Sessions) Open(ctx context.Context, id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.open[id]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := r.loads.DoChan(id.String(), func() (any, error) {
		r.mu.RLock()
		s, ok := r.open[id]
		r.mu.RUnlock()
		if ok {
			return s, nil
		}

		record, err := r.store.GetByID(loadCtx, id)
		if err != nil {
			return nil, err
		}
		return r.Add(record)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Add открывает таблицу из записи и регистрирует её.
// Уже открытая таблица с тем же ID возвращается без изменений.
func (r *Sessions) Add(record *domain.Sheet) (*Session, error) {
	logger := telemetry.WithSheetID(r.logger, record.ID.String())

	sheet, err := record.Open(logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.open[record.ID]; ok {
		return s, nil
	}

	s := &Session{ID: record.ID, Name: record.Name, sheet: sheet}
	r.open[record.ID] = s
	telemetry.OpenSheets.Inc()
	logger.Info("sheet opened", "cells", len(record.Document.Cells))
	return s, nil
}

// Close убирает таблицу из реестра. Несохранённые правки теряются.
func (r *Sessions) Close(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.open[id]; ok {
		delete(r.open, id)
		telemetry.OpenSheets.Dec()
		r.logger.Info("sheet closed", "sheet_id", id)
	}
}
