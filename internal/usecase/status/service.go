package status

import (
	"context"
	"time"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
)

// Overview counts a team's tasks by disposition
type Overview struct {
	Completed  int
	InProgress int
	Todo       int
	Overdue    int
	UpdatedAt  time.Time
}

// Service computes overviews from the current task set. Nothing is stored.
type Service struct {
	tasks repositories.TaskRepository
	now   func() time.Time
}

// NewService creates the aggregator
func NewService(tasks repositories.TaskRepository) *Service {
	return &Service{tasks: tasks, now: time.Now}
}

// WithClock replaces the evaluation clock
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Overview returns the counts for the user's team
func (s *Service) Overview(ctx context.Context, user *entities.User) (*Overview, error) {
	if !user.HasTeam() {
		return nil, ucerrors.ErrNoTeam
	}

	tasks, err := s.tasks.ListByTeam(ctx, *user.TeamID, nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	overview := Aggregate(tasks, now)
	return &overview, nil
}

// Aggregate counts tasks in a single pass, evaluating deadlines against now
func Aggregate(tasks []*entities.Task, now time.Time) Overview {
	o := Overview{UpdatedAt: now}
	for _, t := range tasks {
		switch t.Status {
		case entities.TaskStatusDone:
			o.Completed++
		case entities.TaskStatusInProgress, entities.TaskStatusInReview:
			o.InProgress++
		case entities.TaskStatusTodo:
			o.Todo++
		}
		if t.IsOverdue(now) {
			o.Overdue++
		}
	}
	return o
}
