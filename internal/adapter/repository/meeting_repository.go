package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// MeetingRepository handles meeting data operations
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create creates a new meeting
func (r *MeetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	if err := r.db.WithContext(ctx).Omit("Tasks").Create(meeting).Error; err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

// FindByID retrieves a meeting by ID
func (r *MeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}
	return &meeting, nil
}

// Transition performs a conditional status update so a meeting can only move forward
func (r *MeetingRepository) Transition(ctx context.Context, id uuid.UUID, from, to entities.MeetingStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", entities.ErrInvalidTransition, from, to)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	if to.IsTerminal() {
		updates["processed_at"] = now
	}

	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update meeting status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: meeting %s is not %s", entities.ErrInvalidTransition, id, from)
	}
	return nil
}

// SaveTranscript stores the transcript as soon as it is known
func (r *MeetingRepository) SaveTranscript(ctx context.Context, id uuid.UUID, transcript string) error {
	return r.update(ctx, id, map[string]interface{}{"transcript": transcript})
}

// SaveFileURL stores the object storage location of the uploaded audio
func (r *MeetingRepository) SaveFileURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.update(ctx, id, map[string]interface{}{"file_url": url})
}

// SaveExtraction stores the raw extraction output and the number of drafts it produced.
// raw must be valid JSON.
func (r *MeetingRepository) SaveExtraction(ctx context.Context, id uuid.UUID, raw []byte, draftsTotal int) error {
	if !json.Valid(raw) {
		return fmt.Errorf("extraction output is not valid JSON")
	}
	return r.update(ctx, id, map[string]interface{}{
		"extraction_raw": datatypes.JSON(raw),
		"drafts_total":   draftsTotal,
	})
}

// IncrementDraftsFailed counts one more draft that could not be turned into a task
func (r *MeetingRepository) IncrementDraftsFailed(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{
		"drafts_failed": gorm.Expr("drafts_failed + 1"),
	})
}

// Heartbeat refreshes updated_at while the meeting is still PROCESSING
func (r *MeetingRepository) Heartbeat(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status = ?", id, entities.MeetingStatusProcessing).
		Update("updated_at", time.Now())
	if result.Error != nil {
		return fmt.Errorf("failed to refresh meeting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: meeting %s is not %s", entities.ErrInvalidTransition, id, entities.MeetingStatusProcessing)
	}
	return nil
}

// ListStale returns meetings stuck in a non-terminal status since before the cutoff
func (r *MeetingRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]*entities.Meeting, error) {
	if limit <= 0 {
		limit = 100
	}
	var meetings []*entities.Meeting
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]entities.MeetingStatus{entities.MeetingStatusUploaded, entities.MeetingStatusProcessing},
			before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&meetings).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale meetings: %w", err)
	}
	return meetings, nil
}

func (r *MeetingRepository) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update meeting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return entities.ErrMeetingNotFound
	}
	return nil
}
