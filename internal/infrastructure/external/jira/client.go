package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/metrics"
)

var (
	// ErrUnauthorized is returned when the tracker rejects the acting user's credentials
	ErrUnauthorized = errors.New("tracker unauthorized")
	// ErrRequestFailed is returned for every other tracker failure
	ErrRequestFailed = errors.New("tracker request failed")
)

const (
	issuePath       = "/rest/api/3/issue"
	myselfPath      = "/rest/api/3/myself"
	maxErrorBodyLen = 2048
)

// IssueUpdate lists the fields that changed on a task. Nil means unchanged.
type IssueUpdate struct {
	Status      *entities.TaskStatus
	Summary     *string
	Description *string
}

// IsEmpty reports whether nothing changed
func (u IssueUpdate) IsEmpty() bool {
	return u.Status == nil && u.Summary == nil && u.Description == nil
}

// Client talks to the Jira REST v3 API on behalf of a platform user
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewClient creates a Jira client rooted at baseURL
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		logger:     logger,
	}
}

// CreateIssue creates a tracker issue for the task and returns the issue key
func (c *Client) CreateIssue(ctx context.Context, actor *entities.User, task *entities.Task) (string, error) {
	if actor.Team == nil {
		return "", fmt.Errorf("%w: user %s has no team", ErrRequestFailed, actor.Username)
	}

	fields := map[string]interface{}{
		"project":     map[string]string{"key": actor.Team.JiraProjectKey},
		"summary":     task.Summary,
		"description": document(task.Description),
		"issuetype":   map[string]string{"name": "Task"},
	}
	if task.Assignee != nil && task.Assignee.JiraUsername != nil && *task.Assignee.JiraUsername != "" {
		fields["assignee"] = map[string]string{"name": *task.Assignee.JiraUsername}
	}
	if task.Priority != "" {
		name, err := PriorityName(task.Priority)
		if err != nil {
			return "", err
		}
		fields["priority"] = map[string]string{"name": name}
	}
	if task.Deadline != nil {
		fields["duedate"] = task.Deadline.Format("2006-01-02")
	}

	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	err := c.do(ctx, actor, http.MethodPost, issuePath, map[string]interface{}{"fields": fields}, &created)
	c.metrics.ObserveTrackerCall("create_issue", result(err))
	if err != nil {
		return "", err
	}
	if created.Key == "" {
		return "", fmt.Errorf("%w: response has no issue key", ErrRequestFailed)
	}

	if c.logger != nil {
		c.logger.Info("✅ Tracker issue created",
			zap.String("issue_key", created.Key),
			zap.String("task_id", task.ID.String()),
		)
	}
	return created.Key, nil
}

// UpdateIssue transitions the issue when the status changed, then edits summary and description.
// A failed transition is logged and does not stop the field edit; a failed field edit is returned.
func (c *Client) UpdateIssue(ctx context.Context, actor *entities.User, issueKey string, update IssueUpdate) error {
	if update.Status != nil {
		transitionID, err := TransitionID(*update.Status)
		if err != nil {
			return err
		}
		body := map[string]interface{}{"transition": map[string]string{"id": transitionID}}
		err = c.do(ctx, actor, http.MethodPost, issuePath+"/"+issueKey+"/transitions", body, nil)
		c.metrics.ObserveTrackerCall("transition_issue", result(err))
		if err != nil && c.logger != nil {
			c.logger.Warn("⚠️ Tracker transition failed, continuing with field update",
				zap.String("issue_key", issueKey),
				zap.String("status", string(*update.Status)),
				zap.Error(err),
			)
		}
	}

	fields := map[string]interface{}{}
	if update.Summary != nil {
		fields["summary"] = *update.Summary
	}
	if update.Description != nil {
		fields["description"] = document(*update.Description)
	}
	if len(fields) == 0 {
		return nil
	}

	err := c.do(ctx, actor, http.MethodPut, issuePath+"/"+issueKey, map[string]interface{}{"fields": fields}, nil)
	c.metrics.ObserveTrackerCall("update_issue", result(err))
	return err
}

// ValidateCredentials reports whether the tracker accepts the given identity. It never fails.
func (c *Client) ValidateCredentials(ctx context.Context, username, apiToken string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+myselfPath, nil)
	if err != nil {
		return false
	}
	req.SetBasicAuth(username, apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("tracker credential check failed", zap.Error(err))
		}
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// IssueURL derives the browse URL of an issue from the actor's team configuration
func (c *Client) IssueURL(actor *entities.User, issueKey string) string {
	base := c.baseURL
	if actor != nil && actor.Team != nil && actor.Team.JiraURL != "" {
		base = strings.TrimRight(actor.Team.JiraURL, "/")
	}
	return base + "/browse/" + issueKey
}

func (c *Client) do(ctx context.Context, actor *entities.User, method, path string, body interface{}, out interface{}) error {
	if actor == nil || !actor.HasTrackerCredentials() {
		return fmt.Errorf("%w: no tracker credentials stored", ErrUnauthorized)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode payload: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.SetBasicAuth(*actor.JiraUsername, *actor.JiraAPIToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s %s returned status %d", ErrUnauthorized, method, path, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return fmt.Errorf("%w: %s %s returned status %d: %s", ErrRequestFailed, method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	return nil
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}

// document wraps plain text in an Atlassian Document Format envelope
func document(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": []interface{}{
			map[string]interface{}{
				"type": "paragraph",
				"content": []interface{}{
					map[string]interface{}{"type": "text", "text": text},
				},
			},
		},
	}
}
