package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

var (
	// fencePattern matches a reply wrapped in a markdown code block: ```json ... ```
	fencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\s*```$")
	// trailingCommaPattern matches trailing commas before ] or }
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// deadlineLayouts are tried in order. Values without an offset are read as UTC.
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// rawDraft mirrors one draft object as the model returns it.
// Pointers distinguish a missing field from an empty one.
type rawDraft struct {
	Summary     *string `json:"summary"`
	Description *string `json:"description"`
	Assignee    *string `json:"assignee"`
	Priority    *string `json:"priority"`
	Deadline    *string `json:"deadline"`
}

// stripFences removes a surrounding markdown code block and trailing commas
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if m := fencePattern.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}
	content = trailingCommaPattern.ReplaceAllString(content, "$1")
	return strings.TrimSpace(content)
}

// parseOne parses a single draft object
func parseOne(content string) (entities.TaskDraft, error) {
	var raw rawDraft
	if err := json.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		return entities.TaskDraft{}, malformed(fmt.Errorf("decode draft object: %w", err))
	}
	return raw.toDraft()
}

// parseMany parses a draft array and also returns the cleaned JSON it decoded.
// Both a bare array and an object of the form {"tasks": [...]} are accepted,
// since schema-constrained replies must have an object at the root.
func parseMany(content string) ([]entities.TaskDraft, []byte, error) {
	body := []byte(stripFences(content))

	var raws []rawDraft
	if bytes.HasPrefix(body, []byte("{")) {
		var wrapped struct {
			Tasks *[]rawDraft `json:"tasks"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, nil, malformed(fmt.Errorf("decode draft list: %w", err))
		}
		if wrapped.Tasks == nil {
			return nil, nil, malformed(fmt.Errorf("draft list object has no tasks field"))
		}
		raws = *wrapped.Tasks
	} else if err := json.Unmarshal(body, &raws); err != nil {
		return nil, nil, malformed(fmt.Errorf("decode draft list: %w", err))
	}

	drafts := make([]entities.TaskDraft, 0, len(raws))
	for i, raw := range raws {
		d, err := raw.toDraft()
		if err != nil {
			return nil, nil, malformed(fmt.Errorf("draft %d: %w", i, err))
		}
		drafts = append(drafts, d)
	}
	return drafts, body, nil
}

func (r rawDraft) toDraft() (entities.TaskDraft, error) {
	if r.Summary == nil || strings.TrimSpace(*r.Summary) == "" {
		return entities.TaskDraft{}, malformed(fmt.Errorf("missing summary"))
	}
	if r.Description == nil || strings.TrimSpace(*r.Description) == "" {
		return entities.TaskDraft{}, malformed(fmt.Errorf("missing description"))
	}
	if r.Priority == nil {
		return entities.TaskDraft{}, malformed(fmt.Errorf("missing priority"))
	}
	priority, err := entities.ParsePriority(*r.Priority)
	if err != nil {
		return entities.TaskDraft{}, malformed(fmt.Errorf("priority %q: %w", *r.Priority, err))
	}

	draft := entities.TaskDraft{
		Summary:     strings.TrimSpace(*r.Summary),
		Description: strings.TrimSpace(*r.Description),
		Priority:    priority,
	}

	if r.Assignee != nil {
		if name := strings.TrimSpace(*r.Assignee); name != "" && !strings.EqualFold(name, "null") {
			draft.AssigneeName = &name
		}
	}

	if r.Deadline != nil && strings.TrimSpace(*r.Deadline) != "" {
		deadline, err := parseDeadline(*r.Deadline)
		if err != nil {
			return entities.TaskDraft{}, malformed(err)
		}
		draft.Deadline = &deadline
	}

	return draft, nil
}

func parseDeadline(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("deadline %q is not an ISO-8601 date-time", value)
}
