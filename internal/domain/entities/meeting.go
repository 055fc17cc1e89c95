package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingStatus is the processing state of a meeting submission
type MeetingStatus string

const (
	MeetingStatusUploaded   MeetingStatus = "UPLOADED"   // Persisted, waiting for a worker
	MeetingStatusProcessing MeetingStatus = "PROCESSING" // Attempt running
	MeetingStatusCompleted  MeetingStatus = "COMPLETED"  // All drafts handled
	MeetingStatusFailed     MeetingStatus = "FAILED"     // Attempt aborted
)

// IsTerminal reports whether no further transition is possible
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusFailed
}

// CanTransitionTo reports whether moving from s to next keeps the state machine monotonic.
// UPLOADED -> PROCESSING -> {COMPLETED, FAILED}; UPLOADED -> FAILED is allowed for
// attempts that never started (queue rejection, stale reaping).
func (s MeetingStatus) CanTransitionTo(next MeetingStatus) bool {
	switch s {
	case MeetingStatusUploaded:
		return next == MeetingStatusProcessing || next == MeetingStatusFailed
	case MeetingStatusProcessing:
		return next == MeetingStatusCompleted || next == MeetingStatusFailed
	}
	return false
}

// Meeting is one submitted unit of source content tracked through the pipeline
type Meeting struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TeamID        uuid.UUID      `json:"team_id" gorm:"type:uuid;not null;index"`
	SubmittedByID uuid.UUID      `json:"submitted_by_id" gorm:"type:uuid;not null"`
	FileName      *string        `json:"file_name,omitempty" gorm:"type:varchar(500)"`
	FileURL       *string        `json:"file_url,omitempty" gorm:"type:text"`
	Transcript    *string        `json:"transcript,omitempty" gorm:"type:text"`
	Summary       *string        `json:"summary,omitempty" gorm:"type:text"`
	Status        MeetingStatus  `json:"status" gorm:"type:varchar(20);not null;index;default:'UPLOADED'"`
	DraftsTotal   int            `json:"drafts_total" gorm:"not null;default:0"`
	DraftsFailed  int            `json:"drafts_failed" gorm:"not null;default:0"`
	ExtractionRaw datatypes.JSON `json:"-" gorm:"type:jsonb"`
	Tasks         []Task         `json:"tasks,omitempty" gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE"`

	UploadedAt  time.Time  `json:"uploaded_at" gorm:"autoCreateTime"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" gorm:"type:timestamp"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewMeeting creates a meeting in UPLOADED state
func NewMeeting(teamID, submittedBy uuid.UUID, fileName string) *Meeting {
	now := time.Now()
	m := &Meeting{
		ID:            uuid.New(),
		TeamID:        teamID,
		SubmittedByID: submittedBy,
		Status:        MeetingStatusUploaded,
		UploadedAt:    now,
		UpdatedAt:     now,
	}
	if fileName != "" {
		m.FileName = &fileName
	}
	return m
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}
