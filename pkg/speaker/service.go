package speaker

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/personifai/personifai/pkg/Logger"
)

const (
	// DefaultThreshold separates "the enrolled user" from everyone else
	// on the [0,1] similarity scale.
	DefaultThreshold = 0.7

	// minAudioSeconds is the shortest window the embedding model scores
	// reliably; shorter audio is zero-padded up to it.
	minAudioSeconds = 1
)

// Result is one classification of an audio window against the enrolled
// profile. The zero value means "not the user, no confidence".
type Result struct {
	IsUser     bool      `json:"isUser"`
	Confidence float64   `json:"confidence"`
	Similarity float64   `json:"similarityScore"`
	Timestamp  time.Time `json:"timestamp"`
}

// Service scores audio windows against the single enrolled voice
// profile. One mutex guards the profile, the threshold and the last
// result; embedding extraction happens outside any caller-held locks.
type Service struct {
	logger    *Logger.Logger
	extractor Extractor
	store     *ProfileStore

	mu        sync.Mutex
	profile   Embedding
	threshold float64
	last      *Result
}

func NewService(extractor Extractor, store *ProfileStore, logger *Logger.Logger) *Service {
	s := &Service{
		logger:    logger,
		extractor: extractor,
		store:     store,
		threshold: DefaultThreshold,
	}
	s.loadProfile()
	return s
}

func (s *Service) loadProfile() {
	emb, err := s.store.Load()
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no voice profile found, enroll a voice first")
		} else {
			s.logger.Errorf("failed to load voice profile: %v", err)
		}
		return
	}
	s.mu.Lock()
	s.profile = emb
	s.mu.Unlock()
	s.logger.Infof("voice profile loaded (%d dims)", len(emb))
}

// Enroll computes an embedding for the given audio and replaces the
// stored profile. Memory and disk update together or not at all.
func (s *Service) Enroll(ctx context.Context, samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return fmt.Errorf("no audio provided for enrollment")
	}
	samples = padToMinimum(samples, sampleRate)

	emb, err := s.extractor.Extract(ctx, samples, sampleRate)
	if err != nil {
		return fmt.Errorf("failed to extract enrollment embedding: %w", err)
	}
	if err := s.store.Save(emb); err != nil {
		return fmt.Errorf("failed to persist voice profile: %w", err)
	}

	s.mu.Lock()
	s.profile = emb
	s.mu.Unlock()
	s.logger.Infof("voice enrolled (%d dims)", len(emb))
	return nil
}

// Score classifies an audio window against the enrolled profile. With
// no profile it returns a zero result and warns rather than erroring;
// the session keeps running without attribution hints.
func (s *Service) Score(ctx context.Context, samples []float32, sampleRate int) Result {
	s.mu.Lock()
	profile := s.profile
	threshold := s.threshold
	s.mu.Unlock()

	if profile == nil {
		s.logger.Warn("no voice profile enrolled, cannot score speaker")
		return s.record(Result{Timestamp: time.Now()})
	}

	samples = padToMinimum(samples, sampleRate)
	emb, err := s.extractor.Extract(ctx, samples, sampleRate)
	if err != nil {
		s.logger.Errorf("failed to extract sample embedding: %v", err)
		return s.record(Result{Timestamp: time.Now()})
	}

	sim := cosineSimilarity(profile, emb)
	isUser := sim > threshold
	confidence := sim
	if isUser {
		confidence = math.Min(sim/threshold, 1.0)
	}

	return s.record(Result{
		IsUser:     isUser,
		Confidence: confidence,
		Similarity: sim,
		Timestamp:  time.Now(),
	})
}

func (s *Service) record(r Result) Result {
	s.mu.Lock()
	s.last = &r
	s.mu.Unlock()
	return r
}

// LastResult returns the most recent classification, if any.
func (s *Service) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

// ResetSession clears the last-speaker state at session start.
func (s *Service) ResetSession() {
	s.mu.Lock()
	s.last = nil
	s.mu.Unlock()
}

func (s *Service) HasProfile() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile != nil
}

// DeleteProfile clears both memory and storage; later scores behave as
// "no profile".
func (s *Service) DeleteProfile() error {
	if err := s.store.Delete(); err != nil {
		return err
	}
	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()
	s.logger.Info("voice profile deleted")
	return nil
}

// SetThreshold updates the classification threshold, validated to [0,1].
func (s *Service) SetThreshold(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("threshold %v out of range [0,1]", v)
	}
	s.mu.Lock()
	s.threshold = v
	s.mu.Unlock()
	s.logger.Infof("similarity threshold set to %v", v)
	return nil
}

func (s *Service) Threshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

func padToMinimum(samples []float32, sampleRate int) []float32 {
	min := sampleRate * minAudioSeconds
	if len(samples) >= min {
		return samples
	}
	padded := make([]float32, min)
	copy(padded, samples)
	return padded
}

// cosineSimilarity maps the raw cosine from [-1,1] onto [0,1] so the
// threshold and confidence share one scale.
func cosineSimilarity(a, b Embedding) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}
