package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"civicreport/metrics"
	"civicreport/models"

	"github.com/apex/log"
)

// Hub manages realtime sessions and broadcasting
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages for all clients
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	done     chan struct{}
	stopOnce sync.Once

	// Mutex for thread-safe operations
	mutex sync.RWMutex

	// Statistics
	lastBroadcastID  int64
	connectedClients int
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.connectedClients = 0
			h.mutex.Unlock()
			metrics.ConnectedSessions.Set(0)
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			metrics.ConnectedSessions.Set(float64(h.connectedClients))
			log.WithField("transport", client.transport).Infof("Client connected. Total clients: %d", h.connectedClients)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mutex.Unlock()
			metrics.ConnectedSessions.Set(float64(h.connectedClients))
			log.WithField("transport", client.transport).Infof("Client disconnected. Total clients: %d", h.connectedClients)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
					metrics.SessionsEvictedTotal.Inc()
				}
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			metrics.ConnectedSessions.Set(float64(h.connectedClients))
		}
	}
}

// Stop ends Run and closes every session.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// RegisterClient adds a session. It is a no-op once the hub is stopped.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// UnregisterClient removes a session. It is a no-op once the hub is stopped.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// PublishReport broadcasts a newly created report as a newReport event.
// It never blocks: when the hub buffer is full the event is dropped.
func (h *Hub) PublishReport(report models.Report) {
	message := models.BroadcastMessage{
		Type:      models.EventNewReport,
		Data:      report,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.WithError(err).Errorf("Failed to marshal broadcast message for report %d", report.ID)
		return
	}

	select {
	case h.broadcast <- data:
		h.mutex.Lock()
		h.lastBroadcastID = report.ID
		h.mutex.Unlock()
		metrics.BroadcastsTotal.Inc()
		log.WithField("id", report.ID).Debug("Broadcast newReport")
	default:
		metrics.BroadcastsDroppedTotal.Inc()
		log.WithField("id", report.ID).Warn("Broadcast buffer full, dropping newReport event")
	}
}

// GetStats returns the number of connected sessions and the id of the last broadcast report
func (h *Hub) GetStats() (int, int64) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients, h.lastBroadcastID
}
