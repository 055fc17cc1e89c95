package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle status of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusInReview   TaskStatus = "IN_REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusBlocked    TaskStatus = "BLOCKED"
)

// AllTaskStatuses lists every task status; mapping tables are checked against it
var AllTaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusInReview,
	TaskStatusDone,
	TaskStatusBlocked,
}

// IsValid checks if the status is a known value
func (s TaskStatus) IsValid() bool {
	for _, v := range AllTaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseTaskStatus parses a status label case-insensitively
func ParseTaskStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", ErrInvalidTaskStatus
	}
	return s, nil
}

// TaskPriority is the priority of a task
type TaskPriority string

const (
	PriorityLow      TaskPriority = "LOW"
	PriorityMedium   TaskPriority = "MEDIUM"
	PriorityHigh     TaskPriority = "HIGH"
	PriorityCritical TaskPriority = "CRITICAL"
)

// AllPriorities lists every priority; mapping tables are checked against it
var AllPriorities = []TaskPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

// IsValid checks if the priority is a known value
func (p TaskPriority) IsValid() bool {
	for _, v := range AllPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// ParsePriority parses a priority label case-insensitively
func ParsePriority(raw string) (TaskPriority, error) {
	p := TaskPriority(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.IsValid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

// Task is a unit of work synchronized to the issue tracker
type Task struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	IssueKey    *string      `json:"issue_key,omitempty" gorm:"column:jira_key;type:varchar(50);uniqueIndex"`
	IssueURL    *string      `json:"issue_url,omitempty" gorm:"column:jira_url;type:varchar(500)"`
	Summary     string       `json:"summary" gorm:"type:varchar(500);not null"`
	Description string       `json:"description" gorm:"type:text;not null"`
	AssigneeID  *uuid.UUID   `json:"assignee_id,omitempty" gorm:"type:uuid;index"`
	Assignee    *User        `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	TeamID      uuid.UUID    `json:"team_id" gorm:"type:uuid;not null;index"`
	Status      TaskStatus   `json:"status" gorm:"type:varchar(20);not null;index;default:'TODO'"`
	Priority    TaskPriority `json:"priority" gorm:"type:varchar(20);not null;default:'MEDIUM'"`
	Deadline    *time.Time   `json:"deadline,omitempty" gorm:"type:timestamp"`
	MeetingID   *uuid.UUID   `json:"meeting_id,omitempty" gorm:"type:uuid;index"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewTask creates a TODO task for a team
func NewTask(teamID uuid.UUID, summary, description string, priority TaskPriority) *Task {
	now := time.Now()
	return &Task{
		ID:          uuid.New(),
		TeamID:      teamID,
		Summary:     summary,
		Description: description,
		Status:      TaskStatusTodo,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AssignTo sets the assignee
func (t *Task) AssignTo(u *User) {
	if u == nil {
		t.AssigneeID = nil
		t.Assignee = nil
		return
	}
	id := u.ID
	t.AssigneeID = &id
	t.Assignee = u
}

// MarkSynced records the tracker key and URL
func (t *Task) MarkSynced(key, url string) {
	t.IssueKey = &key
	t.IssueURL = &url
	t.UpdatedAt = time.Now()
}

// IsSynced reports whether the task has a tracker issue
func (t *Task) IsSynced() bool {
	return t.IssueKey != nil && *t.IssueKey != ""
}

// IsOverdue reports whether the deadline has passed and the task is not done
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now) && t.Status != TaskStatusDone
}

// Validate validates task data
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Summary) == "" {
		return ErrEmptySummary
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return nil
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}

// TaskDraft is one extracted, not yet persisted, candidate task
type TaskDraft struct {
	Summary      string       `json:"summary"`
	Description  string       `json:"description"`
	AssigneeName *string      `json:"assignee,omitempty"`
	Priority     TaskPriority `json:"priority"`
	Deadline     *time.Time   `json:"deadline,omitempty"`
}

// ToTask turns the draft into a task for the given team
func (d TaskDraft) ToTask(teamID uuid.UUID) *Task {
	t := NewTask(teamID, d.Summary, d.Description, d.Priority)
	t.Deadline = d.Deadline
	return t
}
