package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/transcript"
)

const eventBufferSize = 64

// Config selects the streaming endpoint and session parameters.
type Config struct {
	URL         string `mapstructure:"url"`
	APIKey      string `mapstructure:"api_key"`
	SampleRate  int    `mapstructure:"sample_rate"`
	FormatTurns bool   `mapstructure:"format_turns"`
}

// Client streams 16-bit PCM up a websocket and decodes the recognizer's
// begin/turn/termination messages into a typed event channel. Delivery
// order on the channel matches wire order; one consumer goroutine
// drains it.
type Client struct {
	cfg    Config
	logger *Logger.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	events  chan Event
	done    chan struct{}
	writeMu sync.Mutex
	closed  bool
}

func NewClient(cfg Config, logger *Logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
		events: make(chan Event, eventBufferSize),
	}
}

// Connect dials the streaming endpoint and starts the read loop. The
// event channel closes when the stream ends. A closed client may be
// connected again; each Connect starts a fresh event stream.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid recognizer url: %w", err)
	}
	q := u.Query()
	q.Set("sample_rate", strconv.Itoa(c.cfg.SampleRate))
	q.Set("format_turns", strconv.FormatBool(c.cfg.FormatTurns))
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", c.cfg.APIKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("recognizer dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("recognizer dial failed: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.events = make(chan Event, eventBufferSize)
	c.done = make(chan struct{})
	events, done := c.events, c.done
	c.mu.Unlock()
	go c.readLoop(conn, events, done)

	c.logger.Infof("recognizer connected: %s", u.Host)
	return nil
}

// Events returns the typed event stream of the current connection.
func (c *Client) Events() <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// SendAudio ships one PCM frame. Safe for one producer alongside Close.
func (c *Client) SendAudio(pcm []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("recognizer not connected")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.BinaryMessage, pcm)
}

// Close terminates the stream: a best-effort terminate message, then
// the socket teardown. Idempotent per connection.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed || c.conn == nil {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn := c.conn
	if c.done != nil {
		close(c.done)
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	if err := conn.WriteJSON(terminateMessage{Type: "Terminate"}); err != nil {
		c.logger.Debugf("recognizer terminate message failed: %v", err)
	}
	c.writeMu.Unlock()
	conn.Close()
}

func (c *Client) readLoop(conn *websocket.Conn, events chan Event, done chan struct{}) {
	defer close(events)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Errorf("recognizer stream closed unexpectedly: %v", err)
				c.emit(events, done, Event{Type: EventTypeError, Err: err})
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warnf("unparseable recognizer message: %v", err)
			continue
		}
		c.dispatch(events, done, env)
	}
}

func (c *Client) dispatch(events chan Event, done chan struct{}, env envelope) {
	switch env.Type {
	case EventTypeBegin:
		c.emit(events, done, Event{Type: EventTypeBegin, Begin: &transcript.BeginEvent{ID: env.ID}})
	case EventTypeTurn:
		c.emit(events, done, Event{Type: EventTypeTurn, Turn: &transcript.TurnEvent{
			ID:        env.ID,
			Text:      env.Transcript,
			EndOfTurn: env.EndOfTurn,
			Partial:   !env.EndOfTurn,
			Timestamp: time.Now(),
		}})
	case EventTypeTermination:
		c.emit(events, done, Event{Type: EventTypeTermination, Termination: &transcript.TerminationEvent{
			AudioDurationSeconds: env.AudioDurationSeconds,
		}})
	case EventTypeError:
		c.emit(events, done, Event{Type: EventTypeError, Err: fmt.Errorf("recognizer error: %s", env.Error)})
	default:
		c.logger.Debugf("ignoring recognizer message type %q", env.Type)
	}
}

// emit delivers every event in wire order; a slow consumer backpressures
// the read loop instead of losing end-of-turn events, which would throw
// off finals counting for the rest of the session. Close releases a
// blocked emit so the read loop can exit.
func (c *Client) emit(events chan Event, done chan struct{}, ev Event) {
	select {
	case events <- ev:
	case <-done:
		c.logger.Debugf("recognizer closed, discarding %s event", ev.Type)
	}
}
