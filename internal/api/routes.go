package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Gzip(),
		WithRequestLogger(h.logger),
	)
	// Без Gzip: gzip writer не отдаёт соединение для upgrade
	streamChain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		WithRequestLogger(h.logger),
	)

	// Sheets
	mux.Handle("GET /api/v1/sheets", chain(http.HandlerFunc(h.ListSheets)))
	mux.Handle("POST /api/v1/sheets", chain(http.HandlerFunc(h.CreateSheet)))
	mux.Handle("GET /api/v1/sheets/{id}", chain(http.HandlerFunc(h.GetSheet)))
	mux.Handle("DELETE /api/v1/sheets/{id}", chain(http.HandlerFunc(h.DeleteSheet)))
	mux.Handle("GET /api/v1/sheets/{id}/document", chain(http.HandlerFunc(h.GetDocument)))
	mux.Handle("POST /api/v1/sheets/{id}/save", chain(http.HandlerFunc(h.SaveSheet)))

	// Cells
	mux.Handle("GET /api/v1/sheets/{id}/cells/{cell}", chain(http.HandlerFunc(h.GetCell)))
	mux.Handle("PUT /api/v1/sheets/{id}/cells/{cell}", chain(http.HandlerFunc(h.SetCell)))

	// Live updates
	mux.Handle("GET /api/v1/sheets/{id}/ws", streamChain(http.HandlerFunc(h.WatchSheet)))
}
