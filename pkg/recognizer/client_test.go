package recognizer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/personifai/personifai/pkg/Logger"
)

// turnServer upgrades one connection, streams n finalized turns plus a
// termination, then closes the stream normally.
func turnServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for i := 0; i < n; i++ {
			if err := conn.WriteJSON(map[string]interface{}{
				"type":        "Turn",
				"transcript":  fmt.Sprintf("final %d", i),
				"end_of_turn": true,
				"turn_order":  i,
			}); err != nil {
				return
			}
		}
		conn.WriteJSON(map[string]interface{}{
			"type":                   "Termination",
			"audio_duration_seconds": 1.5,
		})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientDeliversAllFinalsToSlowConsumer(t *testing.T) {
	const total = eventBufferSize + 40
	srv := turnServer(t, total)
	defer srv.Close()

	c := NewClient(Config{URL: wsURL(srv), SampleRate: 16000}, Logger.New(true))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer c.Close()

	// Let the stream outrun the buffer before draining: the read loop
	// must wait rather than shed finals.
	time.Sleep(200 * time.Millisecond)

	var finals []string
	sawTermination := false
	events := c.Events()
	timeout := time.After(5 * time.Second)
drain:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break drain
			}
			switch ev.Type {
			case EventTypeTurn:
				if ev.Turn.EndOfTurn {
					finals = append(finals, ev.Turn.Text)
				}
			case EventTypeTermination:
				sawTermination = true
			}
		case <-timeout:
			t.Fatal("event stream did not close")
		}
	}

	if len(finals) != total {
		t.Fatalf("received %d finals, want %d", len(finals), total)
	}
	for i, text := range finals {
		if want := fmt.Sprintf("final %d", i); text != want {
			t.Fatalf("final %d = %q, want %q", i, text, want)
		}
	}
	if !sawTermination {
		t.Error("termination event was not delivered")
	}
}

func TestClientCloseReleasesBlockedReadLoop(t *testing.T) {
	srv := turnServer(t, eventBufferSize*3)
	defer srv.Close()

	c := NewClient(Config{URL: wsURL(srv), SampleRate: 16000}, Logger.New(true))
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	// Nobody consumes, so the read loop fills the buffer and blocks.
	time.Sleep(100 * time.Millisecond)
	c.Close()

	events := c.Events()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("event stream did not close after Close")
		}
	}
}
