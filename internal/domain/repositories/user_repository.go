package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// FindByID finds a user by ID, with its team loaded
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByUsername finds a user by username, with its team loaded
	FindByUsername(ctx context.Context, username string) (*entities.User, error)

	// ListByTeam returns every member of a team ordered by username
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*entities.User, error)

	// Update updates a user
	Update(ctx context.Context, user *entities.User) error

	// SetTeam moves a user into a team, or out of any team when teamID is nil
	SetTeam(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) error

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}
