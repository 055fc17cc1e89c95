package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/external/jira"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/meeting"
)

// IssueTracker creates and edits tracker issues on behalf of a user
type IssueTracker interface {
	CreateIssue(ctx context.Context, actor *entities.User, task *entities.Task) (string, error)
	UpdateIssue(ctx context.Context, actor *entities.User, issueKey string, update jira.IssueUpdate) error
	IssueURL(actor *entities.User, issueKey string) string
}

// Extractor extracts one draft from free text
type Extractor interface {
	ExtractOne(ctx context.Context, text string, roster []string) (entities.TaskDraft, error)
}

// CreateInput holds the fields of a task created by hand
type CreateInput struct {
	Summary     string
	Description string
	AssigneeID  *uuid.UUID
	Priority    entities.TaskPriority
	Deadline    *time.Time
}

// UpdateInput holds the fields to change; nil means unchanged
type UpdateInput struct {
	Summary     *string
	Description *string
	Status      *entities.TaskStatus
	Priority    *entities.TaskPriority
	AssigneeID  *uuid.UUID
	Deadline    *time.Time
}

// Service manages tasks created outside the meeting pipeline
type Service struct {
	tasks     repositories.TaskRepository
	users     repositories.UserRepository
	tracker   IssueTracker
	extractor Extractor
	logger    *zap.Logger
}

// NewService creates the task service
func NewService(tasks repositories.TaskRepository, users repositories.UserRepository, tracker IssueTracker, extractor Extractor, logger *zap.Logger) *Service {
	return &Service{
		tasks:     tasks,
		users:     users,
		tracker:   tracker,
		extractor: extractor,
		logger:    logger,
	}
}

// CreateTask creates a task and its tracker issue
func (s *Service) CreateTask(ctx context.Context, actor *entities.User, in CreateInput) (*entities.Task, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	task := entities.NewTask(*actor.TeamID, strings.TrimSpace(in.Summary), strings.TrimSpace(in.Description), in.Priority)
	task.Deadline = in.Deadline
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ucerrors.ErrInvalidInput, err)
	}

	if in.AssigneeID != nil {
		assignee, err := s.teamMember(ctx, actor, *in.AssigneeID)
		if err != nil {
			return nil, err
		}
		task.AssignTo(assignee)
	}

	if err := s.createSynced(ctx, actor, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CreateFromText extracts one task from free text with the team roster and creates it
func (s *Service) CreateFromText(ctx context.Context, actor *entities.User, text string) (*entities.Task, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", ucerrors.ErrInvalidInput)
	}

	members, err := s.users.ListByTeam(ctx, *actor.TeamID)
	if err != nil {
		return nil, err
	}
	roster := make([]string, 0, len(members))
	for _, m := range members {
		roster = append(roster, m.Username)
	}

	draft, err := s.extractor.ExtractOne(ctx, text, roster)
	if err != nil {
		return nil, err
	}

	task := draft.ToTask(*actor.TeamID)
	task.AssignTo(meeting.ResolveAssignee(members, draft.AssigneeName))

	if err := s.createSynced(ctx, actor, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns the team's tasks, optionally only those with the given status
func (s *Service) ListTasks(ctx context.Context, actor *entities.User, status *entities.TaskStatus) ([]*entities.Task, error) {
	if !actor.HasTeam() {
		return nil, ucerrors.ErrNoTeam
	}
	return s.tasks.ListByTeam(ctx, *actor.TeamID, status)
}

// GetTask returns one task of the actor's team
func (s *Service) GetTask(ctx context.Context, actor *entities.User, id uuid.UUID) (*entities.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, entities.ErrTaskNotFound) {
			return nil, ucerrors.ErrNotFound
		}
		return nil, err
	}
	if !actor.InTeam(task.TeamID) {
		return nil, ucerrors.ErrAccessDenied
	}
	return task, nil
}

// UpdateTask applies the changes, pushes them to the tracker issue and saves the task.
// A failed field edit on the tracker aborts the update; a failed transition does not.
func (s *Service) UpdateTask(ctx context.Context, actor *entities.User, id uuid.UUID, in UpdateInput) (*entities.Task, error) {
	if !actor.IsProjectManager() {
		return nil, ucerrors.ErrRoleViolation
	}
	task, err := s.GetTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var change jira.IssueUpdate
	if in.Summary != nil {
		if summary := strings.TrimSpace(*in.Summary); summary != task.Summary {
			task.Summary = summary
			change.Summary = &task.Summary
		}
	}
	if in.Description != nil {
		if description := strings.TrimSpace(*in.Description); description != task.Description {
			task.Description = description
			change.Description = &task.Description
		}
	}
	if in.Status != nil && *in.Status != task.Status {
		task.Status = *in.Status
		change.Status = &task.Status
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.Deadline != nil {
		task.Deadline = in.Deadline
	}
	if in.AssigneeID != nil {
		assignee, err := s.teamMember(ctx, actor, *in.AssigneeID)
		if err != nil {
			return nil, err
		}
		task.AssignTo(assignee)
	}

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ucerrors.ErrInvalidInput, err)
	}

	if task.IsSynced() && !change.IsEmpty() {
		if err := s.tracker.UpdateIssue(ctx, actor, *task.IssueKey, change); err != nil {
			return nil, err
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("✏️ Task updated",
			zap.String("task_id", task.ID.String()),
			zap.String("status", string(task.Status)),
		)
	}
	return task, nil
}

func (s *Service) createSynced(ctx context.Context, actor *entities.User, task *entities.Task) error {
	err := s.tasks.CreateSynced(ctx, task, func(ctx context.Context, t *entities.Task) (string, string, error) {
		key, err := s.tracker.CreateIssue(ctx, actor, t)
		if err != nil {
			return "", "", err
		}
		return key, s.tracker.IssueURL(actor, key), nil
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("📝 Task created",
			zap.String("task_id", task.ID.String()),
			zap.String("issue_key", *task.IssueKey),
		)
	}
	return nil
}

func (s *Service) teamMember(ctx context.Context, actor *entities.User, userID uuid.UUID) (*entities.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: assignee", ucerrors.ErrNotFound)
		}
		return nil, err
	}
	if !user.InTeam(*actor.TeamID) {
		return nil, ucerrors.ErrNotTeamMember
	}
	return user, nil
}

func requireManager(actor *entities.User) error {
	if !actor.IsProjectManager() {
		return ucerrors.ErrRoleViolation
	}
	if !actor.HasTeam() {
		return ucerrors.ErrNoTeam
	}
	return nil
}
