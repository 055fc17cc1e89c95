package presenter

import (
	meetingDTO "github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/meeting"
	statusDTO "github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/status"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/meeting"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/status"
)

// ToAnalyzeResponse converts a submission result
func ToAnalyzeResponse(r *meeting.SubmitResult) meetingDTO.AnalyzeResponse {
	return meetingDTO.AnalyzeResponse{
		MeetingID: r.MeetingID.String(),
		Status:    string(r.Status),
		Message:   "Meeting accepted, tasks are being extracted",
	}
}

// ToMeetingStatusResponse converts a meeting status snapshot
func ToMeetingStatusResponse(v *meeting.StatusView) meetingDTO.MeetingStatusResponse {
	m := v.Meeting
	return meetingDTO.MeetingStatusResponse{
		ID:           m.ID.String(),
		Status:       string(m.Status),
		FileName:     m.FileName,
		DraftsTotal:  m.DraftsTotal,
		DraftsFailed: m.DraftsFailed,
		UploadedAt:   m.UploadedAt,
		ProcessedAt:  m.ProcessedAt,
		Tasks:        ToTaskResponses(v.Tasks),
	}
}

// ToOverviewResponse converts a status overview
func ToOverviewResponse(o *status.Overview) statusDTO.OverviewResponse {
	return statusDTO.OverviewResponse{
		Completed:  o.Completed,
		InProgress: o.InProgress,
		Todo:       o.Todo,
		Overdue:    o.Overdue,
		UpdatedAt:  o.UpdatedAt,
	}
}
