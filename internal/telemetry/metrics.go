package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты редактирования ячейки (значения label "result").
const (
	EditOK             = "ok"
	EditInvalidName    = "invalid_name"
	EditInvalidFormula = "invalid_formula"
	EditCircular       = "circular"
)

var (
	// CellEdits — число вызовов SetContentsOfCell по результату.
	CellEdits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabula_cell_edits_total",
		Help: "Total cell edits by result",
	}, []string{"result"})

	// RecalculatedCells — размер порядка пересчёта на одно успешное редактирование.
	RecalculatedCells = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tabula_recalculated_cells",
		Help:    "Number of cells recomputed per successful edit",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// SheetLoads — число загрузок таблиц по результату ("ok" / "error").
	SheetLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabula_sheet_loads_total",
		Help: "Total spreadsheet loads by result",
	}, []string{"result"})

	// OpenSheets — число открытых сессий в tabula-api.
	OpenSheets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tabula_open_sheets",
		Help: "Number of spreadsheets currently open in the API",
	})

	// HTTPRequests — число HTTP запросов к API по методу и статусу.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tabula_api_http_requests_total",
		Help: "Total HTTP requests handled by tabula-api",
	}, []string{"method", "status"})
)
