package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/pkg/config"
)

// ErrGenerationUnavailable is returned when the generation endpoint could not produce a usable reply
var ErrGenerationUnavailable = errors.New("text generation unavailable")

// ResponseSchema pins the reply to a JSON schema when the endpoint supports it
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
}

// GenerateOptions bounds one generation call
type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
	Schema      *ResponseSchema
}

// GroqClient talks to Groq's OpenAI-compatible chat completions endpoint
type GroqClient struct {
	client           *openai.Client
	model            string
	structuredOutput bool
	logger           *zap.Logger
}

// NewGroqClient creates a Groq client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewGroqClient(cfg *config.GroqConfig, logger *zap.Logger) *GroqClient {
	var apiKey, base, model string
	timeout := 60 * time.Second
	structured := true
	if cfg != nil {
		apiKey = cfg.APIKey
		base = cfg.BaseURL
		model = cfg.Model
		structured = cfg.StructuredOutput
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if base == "" {
		base = "https://api.groq.com/openai/v1"
	}
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}

	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = strings.TrimRight(base, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &GroqClient{
		client:           openai.NewClientWithConfig(clientCfg),
		model:            model,
		structuredOutput: structured,
		logger:           logger,
	}
}

// Generate sends one system+user exchange and returns the assistant content
func (g *GroqClient) Generate(ctx context.Context, system, prompt string, opts GenerateOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	if g.structuredOutput && opts.Schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   opts.Schema.Name,
				Schema: opts.Schema.Schema,
				Strict: true,
			},
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			if g.logger != nil {
				g.logger.Warn("groq returned an error",
					zap.Int("status", apiErr.HTTPStatusCode),
					zap.String("message", apiErr.Message),
				)
			}
			return "", fmt.Errorf("%w: groq returned status %d: %s", ErrGenerationUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from groq", ErrGenerationUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}
