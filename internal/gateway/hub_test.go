package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil)
	handler := NewHandler(hub, hub.logger)

	e := echo.New()
	handler.RegisterRoutes(e.Group(""))
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
}

func TestHub_PublishReachesSubscribers(t *testing.T) {
	hub, srv := newTestServer(t)
	ws := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.Publish(NewEvent(EventItem, map[string]string{
		"item_class": "cell phone",
		"location":   "on the dining table",
	}))

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var event struct {
		Type    EventType         `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatal(err)
	}
	if event.Type != EventItem {
		t.Errorf("type = %s", event.Type)
	}
	if event.Payload["location"] != "on the dining table" {
		t.Errorf("payload = %v", event.Payload)
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, srv := newTestServer(t)
	ws := dial(t, srv)
	waitForClients(t, hub, 1)

	ws.Close()
	waitForClients(t, hub, 0)

	// Publishing to an empty hub must not panic or block.
	hub.Publish(NewEvent(EventGuidance, nil))
}

func TestHub_MultipleSubscribers(t *testing.T) {
	hub, srv := newTestServer(t)
	first := dial(t, srv)
	second := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.Publish(NewEvent(EventSpeech, map[string]string{"text": "turn left"}))

	for _, ws := range []*websocket.Conn{first, second} {
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := ws.ReadMessage(); err != nil {
			t.Fatalf("subscriber missed event: %v", err)
		}
	}
}

func TestHandler_RejectsPlainHTTP(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Errorf("plain GET succeeded with status %d", resp.StatusCode)
	}
}
