package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/pkg/config"
	"github.com/johnquangdev/meeting-taskflow/pkg/jobcontext"
)

// ErrEmptyAudio is returned when there is nothing to transcribe
var ErrEmptyAudio = errors.New("audio is empty")

// AssemblyAIClient turns raw audio into text through the AssemblyAI SDK
type AssemblyAIClient struct {
	client       *aai.Client
	languageCode string
	maxElapsed   time.Duration
	logger       *zap.Logger
}

// NewAssemblyAIClient creates a transcription client
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig, logger *zap.Logger) *AssemblyAIClient {
	opts := []aai.ClientOption{aai.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, aai.WithBaseURL(cfg.BaseURL))
	}

	maxElapsed := cfg.MaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = 2 * time.Minute
	}

	return &AssemblyAIClient{
		client:       aai.NewClientWithOptions(opts...),
		languageCode: cfg.LanguageCode,
		maxElapsed:   maxElapsed,
		logger:       logger,
	}
}

// Transcribe uploads the audio, waits for the transcript and returns its text.
// The upload is retried on transient errors; the transcription itself is not.
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}

	var audioURL string
	upload := func() error {
		url, err := c.client.Upload(ctx, bytes.NewReader(audio))
		if err != nil {
			if !jobcontext.IsRetryableError(err) {
				return backoff.Permanent(err)
			}
			if c.logger != nil {
				c.logger.Warn("⚠️ AssemblyAI upload failed, retrying", zap.Error(err))
			}
			return err
		}
		audioURL = url
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(upload, backoff.WithContext(bo, ctx)); err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}

	if c.logger != nil {
		c.logger.Info("🎙️ Starting transcription", zap.Int("audio_bytes", len(audio)))
	}

	params := &aai.TranscriptOptionalParams{}
	if c.languageCode != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(c.languageCode)
	}

	transcript, err := c.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		return "", fmt.Errorf("transcription failed: %s", aai.ToString(transcript.Error))
	}

	text := strings.TrimSpace(aai.ToString(transcript.Text))
	if text == "" {
		return "", errors.New("transcription returned no text")
	}

	if c.logger != nil {
		c.logger.Info("✅ Transcription completed",
			zap.String("transcript_id", aai.ToString(transcript.ID)),
			zap.Int("chars", len(text)),
		)
	}

	return text, nil
}
