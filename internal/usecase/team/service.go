package team

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
)

// CreateInput holds the fields of a new team
type CreateInput struct {
	Name           string
	JiraProjectKey string
	JiraURL        string
}

// MemberInput describes a user to add to the team
type MemberInput struct {
	Username     string
	Email        *string
	Role         entities.UserRole
	JiraUsername *string
}

// Service manages the project manager's team
type Service struct {
	teams  repositories.TeamRepository
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewService creates the team service
func NewService(teams repositories.TeamRepository, users repositories.UserRepository, logger *zap.Logger) *Service {
	return &Service{teams: teams, users: users, logger: logger}
}

// CreateTeam creates a team owned by the actor
func (s *Service) CreateTeam(ctx context.Context, actor *entities.User, in CreateInput) (*entities.Team, error) {
	if !actor.IsProjectManager() {
		return nil, ucerrors.ErrRoleViolation
	}
	if actor.HasTeam() {
		return nil, ucerrors.ErrAlreadyHasTeam
	}

	team := entities.NewTeam(strings.TrimSpace(in.Name), actor.ID,
		strings.ToUpper(strings.TrimSpace(in.JiraProjectKey)), strings.TrimSpace(in.JiraURL))
	if err := team.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ucerrors.ErrInvalidInput, err)
	}

	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("👥 Team created",
			zap.String("team_id", team.ID.String()),
			zap.String("name", team.Name),
			zap.String("project_manager", actor.Username),
		)
	}
	return s.teams.FindByID(ctx, team.ID)
}

// AddMember adds an existing user to the team, or creates a roster-only user that
// can later claim the account by registering
func (s *Service) AddMember(ctx context.Context, actor *entities.User, in MemberInput) (*entities.User, error) {
	if !actor.IsProjectManager() {
		return nil, ucerrors.ErrRoleViolation
	}
	if !actor.HasTeam() {
		return nil, ucerrors.ErrNoTeam
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ucerrors.ErrInvalidInput)
	}
	if !in.Role.IsValid() || in.Role == entities.RoleProjectManager {
		return nil, fmt.Errorf("%w: role %q cannot be given to a member", ucerrors.ErrInvalidInput, in.Role)
	}

	member, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		member = entities.NewUser(username, in.Role)
		member.Email = in.Email
		member.JiraUsername = in.JiraUsername
		if err := s.users.Create(ctx, member); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if member.HasTeam() && !member.InTeam(*actor.TeamID) {
			return nil, ucerrors.ErrAlreadyInTeam
		}
		member.Role = in.Role
		if in.Email != nil {
			member.Email = in.Email
		}
		if in.JiraUsername != nil {
			member.JiraUsername = in.JiraUsername
		}
		if err := s.users.Update(ctx, member); err != nil {
			return nil, err
		}
	}

	if err := s.users.SetTeam(ctx, member.ID, actor.TeamID); err != nil {
		return nil, err
	}
	teamID := *actor.TeamID
	member.TeamID = &teamID

	if s.logger != nil {
		s.logger.Info("➕ Member added",
			zap.String("team_id", teamID.String()),
			zap.String("username", member.Username),
			zap.String("role", string(member.Role)),
		)
	}
	return member, nil
}

// GetTeam returns the actor's team with its members
func (s *Service) GetTeam(ctx context.Context, actor *entities.User) (*entities.Team, error) {
	if !actor.HasTeam() {
		return nil, ucerrors.ErrNoTeam
	}
	team, err := s.teams.FindByID(ctx, *actor.TeamID)
	if err != nil {
		if errors.Is(err, entities.ErrTeamNotFound) {
			return nil, ucerrors.ErrNoTeam
		}
		return nil, err
	}
	return team, nil
}

// GetMembers returns the members of the actor's team ordered by username
func (s *Service) GetMembers(ctx context.Context, actor *entities.User) ([]*entities.User, error) {
	if !actor.HasTeam() {
		return nil, ucerrors.ErrNoTeam
	}
	return s.users.ListByTeam(ctx, *actor.TeamID)
}

// RemoveMember takes a member out of the actor's team
func (s *Service) RemoveMember(ctx context.Context, actor *entities.User, memberID uuid.UUID) error {
	if !actor.IsProjectManager() {
		return ucerrors.ErrRoleViolation
	}
	if !actor.HasTeam() {
		return ucerrors.ErrNoTeam
	}

	member, err := s.users.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return ucerrors.ErrNotFound
		}
		return err
	}
	if !member.InTeam(*actor.TeamID) {
		return ucerrors.ErrNotTeamMember
	}
	if member.IsProjectManager() || member.ID == actor.ID {
		return ucerrors.ErrCannotRemoveManager
	}

	if err := s.users.SetTeam(ctx, member.ID, nil); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("➖ Member removed",
			zap.String("team_id", actor.TeamID.String()),
			zap.String("username", member.Username),
		)
	}
	return nil
}
