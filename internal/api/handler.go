package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/mq"
	"github.com/shaiso/Tabula/internal/telemetry"
)

// SheetStore — хранилище таблиц (repo.SheetRepo).
type SheetStore interface {
	Create(ctx context.Context, sheet *domain.Sheet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sheet, error)
	List(ctx context.Context) ([]domain.Sheet, error)
	UpdateDocument(ctx context.Context, sheet *domain.Sheet) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher — получатель событий таблиц (mq.Publisher).
type EventPublisher interface {
	PublishCellsChanged(ctx context.Context, payload mq.CellsChangedPayload) error
	PublishSheetSaved(ctx context.Context, payload mq.SheetSavedPayload) error
	PublishSheetDeleted(ctx context.Context, sheetID uuid.UUID) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	sheets    SheetStore
	sessions  *Sessions
	events    *Broadcaster
	publisher EventPublisher
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Sheets SheetStore

	// Publisher может быть nil: события тогда не публикуются.
	Publisher EventPublisher

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sheets:    cfg.Sheets,
		sessions:  NewSessions(cfg.Sheets, logger),
		events:    NewBroadcaster(),
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// Sessions возвращает реестр открытых таблиц.
func (h *Handler) Sessions() *Sessions {
	return h.sessions
}

// Events возвращает рассылку правок websocket клиентам.
func (h *Handler) Events() *Broadcaster {
	return h.events
}

// publish отправляет событие; ошибка только логируется.
func (h *Handler) publish(ctx context.Context, sheetID uuid.UUID, fn func(EventPublisher) error) {
	if h.publisher == nil {
		return
	}
	if err := fn(h.publisher); err != nil {
		telemetry.FromContext(ctx).Warn("failed to publish sheet event", "sheet_id", sheetID, "error", err)
	}
}
