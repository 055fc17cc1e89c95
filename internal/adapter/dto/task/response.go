package task

import "time"

// AssigneeResponse is the short form of a task's assignee
type AssigneeResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// TaskResponse represents a task in responses
type TaskResponse struct {
	ID          string            `json:"id"`
	IssueKey    *string           `json:"jira_key,omitempty"`
	IssueURL    *string           `json:"jira_url,omitempty"`
	Summary     string            `json:"summary"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Priority    string            `json:"priority"`
	Deadline    *time.Time        `json:"deadline,omitempty"`
	Assignee    *AssigneeResponse `json:"assignee,omitempty"`
	MeetingID   *string           `json:"meeting_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
