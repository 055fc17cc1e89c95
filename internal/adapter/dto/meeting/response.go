package meeting

import (
	"time"

	"github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/task"
)

// AnalyzeResponse is returned as soon as a meeting is accepted
type AnalyzeResponse struct {
	MeetingID string `json:"meeting_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// MeetingStatusResponse represents a meeting and the tasks created from it so far
type MeetingStatusResponse struct {
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	FileName     *string             `json:"file_name,omitempty"`
	DraftsTotal  int                 `json:"drafts_total"`
	DraftsFailed int                 `json:"drafts_failed"`
	UploadedAt   time.Time           `json:"uploaded_at"`
	ProcessedAt  *time.Time          `json:"processed_at,omitempty"`
	Tasks        []task.TaskResponse `json:"tasks"`
}
