package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	pkgai "github.com/johnquangdev/meeting-taskflow/pkg/ai"
)

// ErrExtractionFailed is matched by every error returned from the extractor
var ErrExtractionFailed = errors.New("extraction failed")

// Kind tells why an extraction failed
type Kind string

const (
	// KindUnavailable means the generation endpoint was unreachable or answered non-2xx
	KindUnavailable Kind = "unavailable"
	// KindMalformed means the reply did not have the expected shape
	KindMalformed Kind = "malformed"
)

// Error is an extraction failure of a given kind
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExtractionFailed) hold for every kind
func (e *Error) Is(target error) bool { return target == ErrExtractionFailed }

func malformed(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindMalformed, Err: err}
}

// KindOf returns the kind of an extraction error, or "" if err is not one
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

const systemPrompt = "You are a Scrum Master assistant that extracts tasks from text."

const draftFields = `{
    "summary": "Brief task title",
    "description": "Detailed description",
    "assignee": "Team member name or null",
    "priority": "LOW/MEDIUM/HIGH/CRITICAL",
    "deadline": "ISO date-time or null"
}`

// draftSchema is the JSON schema of one draft object
const draftSchema = `{
  "type": "object",
  "properties": {
    "summary": {"type": "string"},
    "description": {"type": "string"},
    "assignee": {"type": ["string", "null"]},
    "priority": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL"]},
    "deadline": {"type": ["string", "null"]}
  },
  "required": ["summary", "description", "assignee", "priority", "deadline"],
  "additionalProperties": false
}`

var (
	singleSchema = json.RawMessage(draftSchema)
	listSchema   = json.RawMessage(`{
  "type": "object",
  "properties": {"tasks": {"type": "array", "items": ` + draftSchema + `}},
  "required": ["tasks"],
  "additionalProperties": false
}`)
)

// Generator produces text from a system message and a prompt
type Generator interface {
	Generate(ctx context.Context, system, prompt string, opts pkgai.GenerateOptions) (string, error)
}

// Options bounds each generation call
type Options struct {
	MaxTokens   int
	Temperature float32
}

// Extractor turns free text into task drafts
type Extractor struct {
	generator Generator
	opts      Options
	logger    *zap.Logger
}

// NewExtractor creates an extractor on top of a generation capability
func NewExtractor(generator Generator, opts Options, logger *zap.Logger) *Extractor {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	return &Extractor{generator: generator, opts: opts, logger: logger}
}

// ExtractOne extracts exactly one draft from text
func (e *Extractor) ExtractOne(ctx context.Context, text string, roster []string) (entities.TaskDraft, error) {
	reply, err := e.generate(ctx, BuildSinglePrompt(text, roster), &pkgai.ResponseSchema{Name: "task", Schema: singleSchema})
	if err != nil {
		return entities.TaskDraft{}, err
	}
	return parseOne(reply)
}

// ExtractMany extracts every draft found in a transcript, in the order the model listed them.
// It also returns the reply as clean JSON, without code fences or trailing commas,
// so callers can keep it for audit.
func (e *Extractor) ExtractMany(ctx context.Context, transcript string, roster []string) ([]entities.TaskDraft, string, error) {
	reply, err := e.generate(ctx, BuildMeetingPrompt(transcript, roster), &pkgai.ResponseSchema{Name: "task_list", Schema: listSchema})
	if err != nil {
		return nil, "", err
	}
	drafts, cleaned, err := parseMany(reply)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("extraction reply could not be parsed",
				zap.Int("reply_length", len(reply)),
				zap.Error(err),
			)
		}
		return nil, reply, err
	}
	return drafts, string(cleaned), nil
}

func (e *Extractor) generate(ctx context.Context, prompt string, schema *pkgai.ResponseSchema) (string, error) {
	reply, err := e.generator.Generate(ctx, systemPrompt, prompt, pkgai.GenerateOptions{
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
		Schema:      schema,
	})
	if err != nil {
		return "", &Error{Kind: KindUnavailable, Err: err}
	}
	return reply, nil
}

// BuildSinglePrompt builds the prompt asking for one task object
func BuildSinglePrompt(text string, roster []string) string {
	return fmt.Sprintf(`Extract task information from the following text and return it in JSON format:

Text: %q

Available team members: %s

Return JSON with this structure:
%s

Only return valid JSON, no additional text.`, text, strings.Join(roster, ", "), draftFields)
}

// BuildMeetingPrompt builds the prompt asking for every task of a meeting
func BuildMeetingPrompt(transcript string, roster []string) string {
	return fmt.Sprintf(`Analyze this meeting transcription and extract all action items and tasks.
Return them as a JSON array.

Transcription: %q

Available team members: %s

Return JSON array with this structure:
[
%s
]

Only return valid JSON array, no additional text.`, transcript, strings.Join(roster, ", "), draftFields)
}
