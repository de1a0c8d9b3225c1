package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shaiso/Tabula/internal/mq"
	"github.com/shaiso/Tabula/internal/telemetry"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Клиенты только слушают; входящие сообщения нужны лишь для close/pong.
	maxMessageSize = 512

	// subscriberBuffer — сколько правок может ждать медленный подписчик.
	// Правки сверх буфера ему не доставляются.
	subscriberBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Broadcaster рассылает правки подписчикам таблицы внутри процесса
// (websocket клиенты). В отличие от mq, не переживает рестарт.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan mq.CellsChangedPayload]struct{}
}

// NewBroadcaster создаёт Broadcaster без подписчиков.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[uuid.UUID]map[chan mq.CellsChangedPayload]struct{})}
}

// Subscribe подписывает на правки таблицы. Канал закрывается при
// отписке или закрытии таблицы (CloseSheet).
func (b *Broadcaster) Subscribe(sheetID uuid.UUID) (<-chan mq.CellsChangedPayload, func()) {
	ch := make(chan mq.CellsChangedPayload, subscriberBuffer)

	b.mu.Lock()
	if b.subs[sheetID] == nil {
		b.subs[sheetID] = make(map[chan mq.CellsChangedPayload]struct{})
	}
	b.subs[sheetID][ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() { b.unsubscribe(sheetID, ch) }
}

func (b *Broadcaster) unsubscribe(sheetID uuid.UUID, ch chan mq.CellsChangedPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sheetID][ch]; !ok {
		return
	}
	delete(b.subs[sheetID], ch)
	if len(b.subs[sheetID]) == 0 {
		delete(b.subs, sheetID)
	}
	close(ch)
}

// Broadcast отправляет правку всем подписчикам таблицы, не блокируясь.
func (b *Broadcaster) Broadcast(payload mq.CellsChangedPayload) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[payload.SheetID] {
		select {
		case ch <- payload:
		default:
		}
	}
}

// CloseSheet отписывает всех подписчиков таблицы.
func (b *Broadcaster) CloseSheet(sheetID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[sheetID] {
		close(ch)
	}
	delete(b.subs, sheetID)
}

// CloseAll отписывает всех подписчиков. Вызывается при остановке
// сервера: Shutdown не ждёт hijacked соединений.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, chans := range b.subs {
		for ch := range chans {
			close(ch)
		}
		delete(b.subs, id)
	}
}

// Subscribers возвращает число подписчиков таблицы.
func (b *Broadcaster) Subscribers(sheetID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sheetID])
}

// WatchSheet передаёт правки таблицы по websocket, по одному JSON
// сообщению (mq.CellsChangedPayload) на правку.
// GET /api/v1/sheets/{id}/ws
func (h *Handler) WatchSheet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.openSession(w, r)
	if !ok {
		return
	}

	// Подписываемся до handshake, чтобы не потерять правки сразу после него
	events, unsubscribe := h.events.Subscribe(s.ID)
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		return
	}
	defer conn.Close()

	logger := telemetry.WithSheetID(h.logger, s.ID.String())
	logger.Debug("websocket watcher connected", "remote_addr", r.RemoteAddr)

	closed := make(chan struct{})
	go readUntilClose(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Таблица закрыта
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "sheet closed"))
				return
			}
			if err := conn.WriteJSON(payload); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-closed:
			logger.Debug("websocket watcher disconnected")
			return
		}
	}
}

// readUntilClose читает входящие сообщения (pong, close) до ошибки
// и закрывает closed.
func readUntilClose(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
