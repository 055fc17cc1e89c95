package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// TaskRepository handles task data operations
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// CreateSynced creates the tracker issue, then inserts the task with its key.
// No transaction spans the tracker call.
func (r *TaskRepository) CreateSynced(ctx context.Context, task *entities.Task, sync repositories.SyncFunc) error {
	if task == nil {
		return errors.New("task cannot be nil")
	}

	key, url, err := sync(ctx, task)
	if err != nil {
		return err
	}
	task.MarkSynced(key, url)

	if err := r.db.WithContext(ctx).Omit("Assignee").Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task for issue %s: %w", key, err)
	}
	return nil
}

// FindByID retrieves a task by ID with its assignee
func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	var task entities.Task
	if err := r.db.WithContext(ctx).Preload("Assignee").Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// Update saves all task fields
func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) error {
	if err := r.db.WithContext(ctx).Omit("Assignee").Save(task).Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// ListByTeam returns the tasks of a team
func (r *TaskRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, status *entities.TaskStatus) ([]*entities.Task, error) {
	query := r.db.WithContext(ctx).Preload("Assignee").Where("team_id = ?", teamID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var tasks []*entities.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListByMeeting returns tasks produced by a meeting
func (r *TaskRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.Task, error) {
	var tasks []*entities.Task
	if err := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("meeting_id = ?", meetingID).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to list meeting tasks: %w", err)
	}
	return tasks, nil
}
