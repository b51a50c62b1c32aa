package synthesis

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/personifai/personifai/pkg/Logger"
)

const (
	defaultBaseURL      = "wss://api.elevenlabs.io"
	defaultModelID      = "eleven_monolingual_v1"
	defaultOutputFormat = "mp3_44100_128"
	defaultVoiceID      = "WHIyRN9WblX9JzVlTL97"
)

// Config for the ElevenLabs realtime synthesis client.
type Config struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	ModelID        string        `mapstructure:"model_id"`
	OutputFormat   string        `mapstructure:"output_format"`
	DefaultVoiceID string        `mapstructure:"default_voice_id"`
	Settings       VoiceSettings `mapstructure:"voice_settings"`
}

// Client synthesizes speech over the stream-input websocket protocol.
// Text goes up as it is produced; mp3 chunks come back base64 encoded.
type Client struct {
	cfg    Config
	logger *Logger.Logger
}

func New(cfg Config, logger *Logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("synthesis: api key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = defaultOutputFormat
	}
	if cfg.DefaultVoiceID == "" {
		cfg.DefaultVoiceID = defaultVoiceID
	}
	if (cfg.Settings == VoiceSettings{}) {
		cfg.Settings = DefaultVoiceSettings()
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

type streamInputMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *VoiceSettings `json:"voice_settings,omitempty"`
}

type streamOutputMessage struct {
	Audio   string `json:"audio"`
	IsFinal bool   `json:"isFinal"`
	Error   string `json:"error"`
}

// StreamSpeech sends every phrase from words to the synthesis endpoint
// and returns a channel of mp3 chunks. The returned channel closes when
// the final chunk has arrived or the connection drops. voiceID may be
// empty, in which case the configured default voice is used.
func (c *Client) StreamSpeech(ctx context.Context, words <-chan string, voiceID string) (<-chan []byte, error) {
	if voiceID == "" {
		voiceID = c.cfg.DefaultVoiceID
	}
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("synthesis: bad base url: %w", err)
	}
	u.Path = fmt.Sprintf("/v1/text-to-speech/%s/stream-input", voiceID)
	q := u.Query()
	q.Set("model_id", c.cfg.ModelID)
	q.Set("output_format", c.cfg.OutputFormat)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("xi-api-key", c.cfg.APIKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("synthesis: dial %s: %w", u.Host, err)
	}

	settings := c.cfg.Settings
	if err := conn.WriteJSON(streamInputMessage{Text: " ", VoiceSettings: &settings}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("synthesis: open stream: %w", err)
	}

	audio := make(chan []byte, 8)
	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(func() { conn.Close() }) }

	// Writer drains the word channel and ends the stream with an
	// empty text message.
	go func() {
		defer func() {
			if err := conn.WriteJSON(streamInputMessage{Text: ""}); err != nil {
				c.logger.Debugf("synthesis: end-of-stream write: %v", err)
				closeConn()
			}
		}()
		for {
			select {
			case w, ok := <-words:
				if !ok {
					return
				}
				if w == "" {
					continue
				}
				if err := conn.WriteJSON(streamInputMessage{Text: w}); err != nil {
					c.logger.Warnf("synthesis: text write failed: %v", err)
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer close(audio)
		defer closeConn()
		for {
			var msg streamOutputMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					c.logger.Warnf("synthesis: stream read failed: %v", err)
				}
				return
			}
			if msg.Error != "" {
				c.logger.Errorf("synthesis: server error: %s", msg.Error)
				return
			}
			if msg.Audio != "" {
				chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
				if err != nil {
					c.logger.Warnf("synthesis: bad audio chunk: %v", err)
					continue
				}
				select {
				case audio <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if msg.IsFinal {
				return
			}
		}
	}()

	return audio, nil
}
