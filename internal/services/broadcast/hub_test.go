package broadcast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"vision-worker-go/internal/models"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub("worker-1", zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r)
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.Count() == 1 })

	hub.Publish(models.CaptureResult{
		SessionID:  "s",
		Seq:        3,
		Frame:      models.NewFrame(2, 2),
		Detections: []models.Detection{{ClassName: "KS", Confidence: 0.75}},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var ev models.DetectionEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ev.Seq != 3 || ev.WorkerID != "worker-1" || len(ev.Detections) != 1 || ev.Detections[0].ClassName != "KS" {
		t.Errorf("event = %+v", ev)
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, url := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	waitFor(t, func() bool { return hub.Count() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub("w", zerolog.Nop())
	c := &client{send: make(chan []byte, 1)}
	hub.register(c)

	for i := 0; i < 3; i++ {
		hub.Publish(models.CaptureResult{Seq: int64(i)})
	}
	if hub.Count() != 0 {
		t.Errorf("Count = %d, want slow client dropped", hub.Count())
	}
}

func TestPublishWithoutClientsIsNoop(t *testing.T) {
	hub := NewHub("w", zerolog.Nop())
	hub.Publish(models.CaptureResult{})
	hub.Close()
}
