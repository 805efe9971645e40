package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"civicreport/models"

	"github.com/gorilla/websocket"
)

func setupHub(t *testing.T) *Hub {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func connected(hub *Hub) int {
	n, _ := hub.GetStats()
	return n
}

func testReport(id int64) models.Report {
	return models.Report{
		ID:          id,
		Title:       "Pothole",
		Description: "Large pothole",
		Email:       "a@b.com",
		Severity:    "Severe",
		Img:         "data:image/png;base64,AAAA",
		Lat:         12.97,
		Lng:         77.59,
		Status:      models.StatusOpen,
		CreatedAt:   time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC),
	}
}

func sameReport(a, b models.Report) bool {
	at, bt := a.CreatedAt, b.CreatedAt
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	return a == b && at.Equal(bt)
}

func decodeEvent(t *testing.T, raw []byte) (string, models.Report) {
	t.Helper()
	var msg struct {
		Type string        `json:"type"`
		Data models.Report `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("bad event payload %s: %v", raw, err)
	}
	return msg.Type, msg.Data
}

func TestPublishReachesAllSessions(t *testing.T) {
	hub := setupHub(t)

	a := NewStreamClient(hub)
	b := NewStreamClient(hub)
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	waitFor(t, func() bool { return connected(hub) == 2 })

	hub.PublishReport(testReport(42))

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send():
			typ, report := decodeEvent(t, raw)
			if typ != models.EventNewReport {
				t.Errorf("expected event %q, got %q", models.EventNewReport, typ)
			}
			if !sameReport(report, testReport(42)) {
				t.Errorf("expected %+v, got %+v", testReport(42), report)
			}
		case <-time.After(time.Second):
			t.Fatalf("session did not receive the broadcast")
		}
	}

	if _, last := hub.GetStats(); last != 42 {
		t.Errorf("expected last broadcast id 42, got %d", last)
	}
}

func TestLateSessionMissesEarlierEvents(t *testing.T) {
	hub := setupHub(t)

	hub.PublishReport(testReport(1))

	late := NewStreamClient(hub)
	hub.RegisterClient(late)
	waitFor(t, func() bool { return connected(hub) == 1 })

	select {
	case raw := <-late.Send():
		t.Fatalf("late session must not receive replayed events, got %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterClosesSession(t *testing.T) {
	hub := setupHub(t)

	c := NewStreamClient(hub)
	hub.RegisterClient(c)
	waitFor(t, func() bool { return connected(hub) == 1 })

	hub.UnregisterClient(c)
	waitFor(t, func() bool { return connected(hub) == 0 })

	if _, ok := <-c.Send(); ok {
		t.Errorf("expected send channel to be closed")
	}
}

func TestSlowSessionIsEvicted(t *testing.T) {
	hub := setupHub(t)

	slow := NewStreamClient(hub)
	hub.RegisterClient(slow)
	waitFor(t, func() bool { return connected(hub) == 1 })

	for i := 0; i <= sendBufferSize; i++ {
		hub.PublishReport(testReport(int64(i + 1)))
	}
	waitFor(t, func() bool { return connected(hub) == 0 })
}

func TestPublishNeverBlocks(t *testing.T) {
	// Hub loop not running: the inbound buffer fills and further events are dropped.
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(hub.broadcast)+10; i++ {
			hub.PublishReport(testReport(int64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("PublishReport blocked on a full hub")
	}
}

func TestStopClosesSessions(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := NewStreamClient(hub)
	hub.RegisterClient(c)
	waitFor(t, func() bool { return connected(hub) == 1 })

	hub.Stop()
	waitFor(t, func() bool { return connected(hub) == 0 })
	if _, ok := <-c.Send(); ok {
		t.Errorf("expected send channel to be closed on stop")
	}

	// Registering after stop must not block.
	after := NewStreamClient(hub)
	hub.RegisterClient(after)
	hub.UnregisterClient(after)
}

func TestWebSocketSessionReceivesEvent(t *testing.T) {
	hub := setupHub(t)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		hub.RegisterClient(client)
		client.Start()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return connected(hub) == 1 })

	hub.PublishReport(testReport(9))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	typ, report := decodeEvent(t, raw)
	if typ != models.EventNewReport || report.ID != 9 {
		t.Errorf("unexpected event %s %+v", typ, report)
	}

	conn.Close()
	waitFor(t, func() bool { return connected(hub) == 0 })
}

func TestStopSendsGoingAway(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		hub.RegisterClient(client)
		client.Start()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return connected(hub) == 1 })

	hub.Stop()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going away close, got %v", err)
	}
}
