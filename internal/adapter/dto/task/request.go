package task

import "time"

// CreateTaskRequest represents the request to create a task by hand
type CreateTaskRequest struct {
	Summary     string     `json:"summary" validate:"required,min=1,max=500"`
	Description string     `json:"description" validate:"required"`
	AssigneeID  *string    `json:"assignee_id,omitempty" validate:"omitempty,uuid"`
	Priority    string     `json:"priority" validate:"required,priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// CreateFromTextRequest represents free text to extract one task from
type CreateFromTextRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// UpdateTaskRequest represents the fields of a task to change
type UpdateTaskRequest struct {
	Summary     *string    `json:"summary,omitempty" validate:"omitempty,min=1,max=500"`
	Description *string    `json:"description,omitempty" validate:"omitempty,min=1"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,task_status"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,priority"`
	AssigneeID  *string    `json:"assignee_id,omitempty" validate:"omitempty,uuid"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// ListTasksRequest represents query parameters for listing tasks
type ListTasksRequest struct {
	Status string `query:"status" validate:"omitempty,task_status"`
}
