package websocket

import (
	"time"

	"github.com/apex/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBufferSize = 64
)

const (
	TransportWebSocket = "websocket"
	TransportSSE       = "sse"
)

// Client is one viewer session. WebSocket clients are driven by ReadPump and
// WritePump; stream clients are drained by the HTTP handler through Send.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	transport string
}

// NewClient creates a session for an upgraded WebSocket connection
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		transport: TransportWebSocket,
	}
}

// NewStreamClient creates a session without a socket, for the event-stream fallback
func NewStreamClient(hub *Hub) *Client {
	return &Client{
		hub:       hub,
		send:      make(chan []byte, sendBufferSize),
		transport: TransportSSE,
	}
}

// Send returns the channel of outgoing messages. It is closed when the hub drops the session.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// ReadPump consumes inbound frames so that control messages are processed.
// Viewers do not send anything meaningful; any payload is discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.WithError(err).Error("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Warn("Unexpected websocket close")
			}
			return
		}
	}
}

// WritePump forwards hub messages to the socket and keeps it alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.WithError(err).Debug("Failed to write websocket message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for a WebSocket client
func (c *Client) Start() {
	go c.WritePump()
	go c.ReadPump()
}
