package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// SyncFunc creates the tracker issue for a task and returns its key and URL
type SyncFunc func(ctx context.Context, task *entities.Task) (key string, url string, err error)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// CreateSynced runs sync, then inserts the task with the returned key and URL.
	// A sync error leaves no row behind.
	CreateSynced(ctx context.Context, task *entities.Task, sync SyncFunc) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error

	// ListByTeam returns all tasks of a team, optionally filtered by status
	ListByTeam(ctx context.Context, teamID uuid.UUID, status *entities.TaskStatus) ([]*entities.Task, error)

	// ListByMeeting returns the tasks created by a meeting in creation order
	ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.Task, error)
}
