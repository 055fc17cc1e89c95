package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	Create(ctx context.Context, meeting *entities.Meeting) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// Transition moves a meeting from one status to another atomically.
	// It returns entities.ErrInvalidTransition when the meeting is no longer in `from`.
	Transition(ctx context.Context, id uuid.UUID, from, to entities.MeetingStatus) error

	SaveTranscript(ctx context.Context, id uuid.UUID, transcript string) error
	SaveFileURL(ctx context.Context, id uuid.UUID, url string) error
	SaveExtraction(ctx context.Context, id uuid.UUID, raw []byte, draftsTotal int) error
	IncrementDraftsFailed(ctx context.Context, id uuid.UUID) error

	// Heartbeat refreshes updated_at of a PROCESSING meeting. It returns
	// entities.ErrInvalidTransition once the meeting has left PROCESSING.
	Heartbeat(ctx context.Context, id uuid.UUID) error

	// ListStale returns non-terminal meetings not updated since the cutoff
	ListStale(ctx context.Context, before time.Time, limit int) ([]*entities.Meeting, error)
}
