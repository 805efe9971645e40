package client

import (
	"context"
	"encoding/json"
	"strings"

	"civicreport/api"
	"civicreport/models"

	"github.com/apex/log"
	"github.com/gorilla/websocket"
)

// Listen subscribes to newReport events and calls fn for each one until ctx
// is done or the server closes the connection.
func (c *Client) Listen(ctx context.Context, fn func(models.Report)) error {
	wsURL := "ws" + strings.TrimPrefix(c.BaseURL, "http") + api.ListenEndpoint

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		log.WithError(err).Errorf("Failed to connect to %s", wsURL)
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// 1005 is an empty close frame, which older servers send on shutdown.
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return err
		}

		var msg struct {
			Type string        `json:"type"`
			Data models.Report `json:"data"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.WithError(err).Warn("Ignoring malformed event")
			continue
		}
		if msg.Type == models.EventNewReport {
			fn(msg.Data)
		}
	}
}
