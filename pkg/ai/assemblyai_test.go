package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-taskflow/pkg/config"
)

func TestTranscribe_EmptyAudio(t *testing.T) {
	client := NewAssemblyAIClient(&config.AssemblyAIConfig{APIKey: "test-key"}, nil)

	_, err := client.Transcribe(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestTranscribe_UploadsThenSubmits(t *testing.T) {
	var (
		mu       sync.Mutex
		uploaded []byte
		authKeys []string
	)

	// Mock AssemblyAI server: accepts the upload, rejects the transcript request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		authKeys = append(authKeys, r.Header.Get("Authorization"))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/upload"):
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			uploaded = body
			mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example.com/audio-1"})
		default:
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "language not supported"})
		}
	}))
	defer ts.Close()

	client := NewAssemblyAIClient(&config.AssemblyAIConfig{
		APIKey:     "test-key",
		BaseURL:    ts.URL,
		MaxElapsed: time.Second,
	}, nil)

	_, err := client.Transcribe(context.Background(), []byte("fake-audio"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcription failed")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "fake-audio", string(uploaded))
	require.NotEmpty(t, authKeys)
	assert.Equal(t, "test-key", authKeys[0])
}
