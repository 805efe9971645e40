package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"civicreport/api"
	"civicreport/metrics"
	"civicreport/models"
	"civicreport/reports"
	ws "civicreport/websocket"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
)

const (
	serviceName       = "civic-reports"
	streamKeepAlive   = 25 * time.Second
	healthPingTimeout = 2 * time.Second
)

// Pinger checks that the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	reports *reports.Service
	hub     *ws.Hub
	db      Pinger
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc *reports.Service, hub *ws.Hub, db Pinger) *Handlers {
	return &Handlers{
		reports: svc,
		hub:     hub,
		db:      db,
	}
}

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The client is served from any origin
		return true
	},
}

// CreateReport handles POST /api/reports
func (h *Handlers) CreateReport(c *gin.Context) {
	var args api.ReportArgs
	if err := c.ShouldBindJSON(&args); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.ReportsCreatedTotal.WithLabelValues("too_large").Inc()
			c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: api.MsgPayloadTooLarge})
			return
		}
		metrics.ReportsCreatedTotal.WithLabelValues("invalid").Inc()
		log.WithError(err).Debug("Failed to decode report body")
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: api.MsgInvalidJSON})
		return
	}

	report, err := h.reports.Create(c.Request.Context(), &args)
	if err != nil {
		var validationErr *reports.ValidationError
		if errors.As(err, &validationErr) {
			metrics.ReportsCreatedTotal.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: validationErr.Message})
			return
		}
		metrics.ReportsCreatedTotal.WithLabelValues("db_error").Inc()
		h.internalError(c, "Failed to create report", err)
		return
	}

	metrics.ReportsCreatedTotal.WithLabelValues("created").Inc()
	c.JSON(http.StatusCreated, api.ReportResponse{
		Message:  api.MsgReportCreated,
		ReportID: report.ID,
	})
}

// ListReports handles GET /api/reports
func (h *Handlers) ListReports(c *gin.Context) {
	list, err := h.reports.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to list reports", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetKPIs handles GET /api/reports/kpis
func (h *Handlers) GetKPIs(c *gin.Context) {
	kpis, err := h.reports.KPIs(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to compute KPIs", err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

// GetLeaderboard handles GET /api/reports/leaderboard
func (h *Handlers) GetLeaderboard(c *gin.Context) {
	entries, err := h.reports.Leaderboard(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to compute leaderboard", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetMap handles GET /api/reports/map and returns a GeoJSON FeatureCollection
func (h *Handlers) GetMap(c *gin.Context) {
	fc, err := h.reports.MapFeatures(c.Request.Context())
	if err != nil {
		h.internalError(c, "Failed to build report map", err)
		return
	}
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

// ListenReports handles WebSocket connections for newReport events
func (h *Handlers) ListenReports(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade connection to WebSocket")
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.RegisterClient(client)
	client.Start()
}

// StreamReports serves newReport events as text/event-stream for clients
// that cannot open a WebSocket.
func (h *Handlers) StreamReports(c *gin.Context) {
	client := ws.NewStreamClient(h.hub)
	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Content-Type", "text/event-stream")

	// Commit headers now so EventSource reports open before the first event.
	c.Status(http.StatusOK)
	if _, err := io.WriteString(c.Writer, ": connected\n\n"); err != nil {
		return
	}
	c.Writer.Flush()

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client.Send():
			if !ok {
				return false
			}
			c.SSEvent(models.EventNewReport, string(msg))
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		case <-ctx.Done():
			return false
		}
	})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	connected, lastID := h.hub.GetStats()
	resp := models.HealthResponse{
		Status:           "healthy",
		Service:          serviceName,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: connected,
		LastBroadcastID:  lastID,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		log.WithError(err).Warn("Health check: database unreachable")
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// APIRoot handles GET /api
func (h *Handlers) APIRoot(c *gin.Context) {
	c.JSON(http.StatusOK, api.MessageResponse{Message: "API is working"})
}

func (h *Handlers) internalError(c *gin.Context, msg string, err error) {
	log.WithError(err).Error(msg)
	var persistErr *reports.PersistenceError
	if errors.As(err, &persistErr) {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: api.MsgDatabaseError})
		return
	}
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: api.MsgInternalError})
}
