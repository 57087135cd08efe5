package daemon_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"mediabox/internal/api"
	"mediabox/internal/daemon"
	"mediabox/internal/logging"
	"mediabox/internal/queue"
)

func TestHubPublishReachesClients(t *testing.T) {
	hub := daemon.NewHub(logging.NewNop())
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish("item_started", &queue.Item{
		ID:       3,
		Title:    "movie.mp4",
		TaskType: queue.TaskEncode,
		Status:   queue.StatusRunning,
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt api.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.Type != "item_started" {
		t.Fatalf("unexpected event type %q", evt.Type)
	}
	if evt.Item == nil || evt.Item.ID != 3 || evt.Item.TaskType != "encode" {
		t.Fatalf("unexpected event item: %+v", evt.Item)
	}
}

func TestHubPublishProgressReachesClients(t *testing.T) {
	hub := daemon.NewHub(logging.NewNop())
	defer hub.Close()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.PublishProgress(7, 42.5, "encoding", 1.8)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt api.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.Type != "item_progress" {
		t.Fatalf("unexpected event type %q", evt.Type)
	}
	if evt.Progress == nil || evt.Progress.ItemID != 7 || evt.Progress.Percent != 42.5 || evt.Progress.Stage != "encoding" {
		t.Fatalf("unexpected progress payload: %+v", evt.Progress)
	}
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := daemon.NewHub(logging.NewNop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Close()
	if hub.ClientCount() != 0 {
		t.Fatalf("expected zero clients after close, got %d", hub.ClientCount())
	}
}
