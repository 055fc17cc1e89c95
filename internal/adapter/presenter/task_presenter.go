package presenter

import (
	taskDTO "github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/task"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// ToTaskResponse converts a Task entity to TaskResponse DTO
func ToTaskResponse(t *entities.Task) taskDTO.TaskResponse {
	resp := taskDTO.TaskResponse{
		ID:          t.ID.String(),
		IssueKey:    t.IssueKey,
		IssueURL:    t.IssueURL,
		Summary:     t.Summary,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Deadline:    t.Deadline,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}

	if t.Assignee != nil {
		resp.Assignee = &taskDTO.AssigneeResponse{
			ID:       t.Assignee.ID.String(),
			Username: t.Assignee.Username,
		}
	} else if t.AssigneeID != nil {
		resp.Assignee = &taskDTO.AssigneeResponse{ID: t.AssigneeID.String()}
	}
	if t.MeetingID != nil {
		id := t.MeetingID.String()
		resp.MeetingID = &id
	}

	return resp
}

// ToTaskResponses converts a list of tasks, keeping their order
func ToTaskResponses(tasks []*entities.Task) []taskDTO.TaskResponse {
	out := make([]taskDTO.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToTaskResponse(t))
	}
	return out
}
