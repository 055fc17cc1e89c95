package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// Create creates a team and moves its project manager into it
	Create(ctx context.Context, team *entities.Team) error

	// FindByID finds a team by ID, with members loaded
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Team, error)
}
