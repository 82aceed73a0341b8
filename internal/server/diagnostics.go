package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytbot/internal/models"
	"github.com/desertthunder/ytbot/internal/shared"
)

// MetricsSource measures the download folder and lists in-flight downloads.
type MetricsSource interface {
	Metrics() (models.FolderMetrics, error)
	Fetching() []string
}

// QueueSource exposes the playback queue.
type QueueSource interface {
	State() models.QueueState
}

// HistorySource lists recent plays.
type HistorySource interface {
	Recent(limit int) ([]*models.HistoryEntry, error)
}

// Diagnostics serves read-only JSON views of the bot's state.
type Diagnostics struct {
	metrics MetricsSource
	queue   QueueSource
	history HistorySource
	logger  *log.Logger
}

// NewDiagnostics creates the handlers. history may be nil.
func NewDiagnostics(metrics MetricsSource, queue QueueSource, history HistorySource, logger *log.Logger) *Diagnostics {
	return &Diagnostics{
		metrics: metrics,
		queue:   queue,
		history: history,
		logger:  shared.ComponentLogger(logger, "diagnostics"),
	}
}

// Register adds the diagnostics routes to r.
func (d *Diagnostics) Register(r Router) {
	r.Handle(http.MethodGet, "/{$}", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		d.writeJSON(w, http.StatusOK, map[string][]string{"routes": r.Routes()})
	}))
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(d.health))
	r.Handle(http.MethodGet, "/metrics", http.HandlerFunc(d.folderMetrics))
	r.Handle(http.MethodGet, "/queue", http.HandlerFunc(d.queueState))
	r.Handle(http.MethodGet, "/history", http.HandlerFunc(d.recent))
}

// NewDiagnosticsRouter builds a router with logging and panic recovery around the
// diagnostics routes.
func NewDiagnosticsRouter(d *Diagnostics) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recover(d.logger), Logging(d.logger))
	d.Register(router)
	return router
}

type metricsResponse struct {
	models.FolderMetrics
	Fetching []string `json:"fetching"`
}

type queueResponse struct {
	Items        []models.Descriptor `json:"items"`
	CurrentIndex int                 `json:"current_index"`
	Current      *models.Descriptor  `json:"current"`
}

func (d *Diagnostics) health(w http.ResponseWriter, r *http.Request) {
	d.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (d *Diagnostics) folderMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := d.metrics.Metrics()
	if err != nil {
		d.writeError(w, http.StatusInternalServerError, err)
		return
	}
	fetching := d.metrics.Fetching()
	if fetching == nil {
		fetching = []string{}
	}
	d.writeJSON(w, http.StatusOK, metricsResponse{FolderMetrics: m, Fetching: fetching})
}

func (d *Diagnostics) queueState(w http.ResponseWriter, r *http.Request) {
	st := d.queue.State()
	resp := queueResponse{Items: st.Items, CurrentIndex: st.CurrentIndex}
	if resp.Items == nil {
		resp.Items = []models.Descriptor{}
	}
	if len(st.Items) > 0 {
		cur := st.Items[st.CurrentIndex]
		resp.Current = &cur
	}
	d.writeJSON(w, http.StatusOK, resp)
}

func (d *Diagnostics) recent(w http.ResponseWriter, r *http.Request) {
	if d.history == nil {
		d.writeJSON(w, http.StatusOK, []*models.HistoryEntry{})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			d.writeError(w, http.StatusBadRequest, shared.ErrInvalidArgument)
			return
		}
		limit = n
	}

	entries, err := d.history.Recent(limit)
	if err != nil {
		d.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	d.writeJSON(w, http.StatusOK, entries)
}

func (d *Diagnostics) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.logger.Error("failed to encode response", "error", err)
	}
}

func (d *Diagnostics) writeError(w http.ResponseWriter, status int, err error) {
	d.logger.Error("request failed", "error", err)
	d.writeJSON(w, status, map[string]string{"error": err.Error()})
}
