package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/personifai/personifai/internal/domains/session"
	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/audio"
)

// SessionHandler handles the live conversation WebSocket and transcript
// requests
type SessionHandler struct {
	sessionService session.SessionService
	sampleRate     int
	upgrader       websocket.Upgrader
	logger         *Logger.Logger
}

// NewSessionHandler creates a new session handler. sampleRate is the
// PCM rate the capture client streams at.
func NewSessionHandler(sessionService session.SessionService, sampleRate int, logger *Logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		sampleRate:     sampleRate,
		logger:         logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Implement proper origin checking for production
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// audioStreamMessage is the JSON envelope for audio frames on the
// stream socket. Data carries base64 16-bit PCM.
type audioStreamMessage struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
	Data       []byte `json:"data"`
}

// HandleStream upgrades to a WebSocket and feeds PCM frames into the
// conversation session until the client disconnects. Frames arrive
// either as raw binary PCM (mono at the configured rate) or as JSON
// audio messages carrying their own sampleRate and channel count.
func (h *SessionHandler) HandleStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// The stream outlives the HTTP request context once hijacked.
	if err := h.sessionService.Start(context.Background()); err != nil {
		h.logger.Errorf("session start failed: %v", err)
		conn.WriteJSON(gin.H{"error": "failed to start session"})
		return
	}
	defer h.sessionService.Stop()

	h.logger.Infof("audio stream connected: %s", c.ClientIP())

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warnf("audio stream closed unexpectedly: %v", err)
			}
			return
		}
		var frame audio.Frame
		switch msgType {
		case websocket.BinaryMessage:
			frame = audio.Frame{
				Samples:    audio.PCM16ToFloat32(data),
				SampleRate: h.sampleRate,
				Channels:   1,
				Timestamp:  time.Now(),
			}
		case websocket.TextMessage:
			var msg audioStreamMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				h.logger.Warnf("malformed stream message: %v", err)
				continue
			}
			if msg.Type != "audio" {
				h.logger.Debugf("ignoring stream message type %q", msg.Type)
				continue
			}
			frame = audio.Frame{
				Samples:    audio.PCM16ToFloat32(msg.Data),
				SampleRate: msg.SampleRate,
				Channels:   msg.Channels,
				Timestamp:  time.Now(),
			}
			if frame.SampleRate == 0 {
				frame.SampleRate = h.sampleRate
			}
			if frame.Channels == 0 {
				frame.Channels = 1
			}
		default:
			continue
		}
		if err := h.sessionService.PushFrame(frame); err != nil {
			h.logger.Warnf("frame dropped: %v", err)
		}
	}
}

// GetTranscript returns the finalized turn log of the current session
func (h *SessionHandler) GetTranscript(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionService.Transcript())
}
