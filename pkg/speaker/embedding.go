package speaker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/audio"
)

// Embedding is a fixed-dimension acoustic signature of a voice.
type Embedding []float32

// Extractor turns a raw audio window into an embedding. It wraps a
// pretrained model served out of process.
type Extractor interface {
	Extract(ctx context.Context, samples []float32, sampleRate int) (Embedding, error)
	Ping(ctx context.Context) error
}

// ECAPAClient talks to a speaker-embedding service over HTTP: the audio
// goes up as a 16-bit mono WAV, the embedding comes back as JSON.
type ECAPAClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *Logger.Logger
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func NewECAPAClient(baseURL string, logger *Logger.Logger) *ECAPAClient {
	return &ECAPAClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Extract implements Extractor.
func (e *ECAPAClient) Extract(ctx context.Context, samples []float32, sampleRate int) (Embedding, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples provided")
	}

	wavData := audio.EncodeWAV(samples, sampleRate)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio_file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/embed", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		e.logger.Errorf("embedding service error (status %d): %s", resp.StatusCode, string(respBody))
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embedding service returned an empty vector")
	}

	return Embedding(parsed.Embedding), nil
}

// Ping implements Extractor. Used at startup so a missing model service
// aborts boot instead of failing on the first chunk.
func (e *ECAPAClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", e.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("embedding service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding service health returned status %d", resp.StatusCode)
	}
	return nil
}
