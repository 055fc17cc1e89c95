package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// TeamRepository handles team data operations
type TeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts the team and attaches its project manager in one transaction
func (r *TeamRepository) Create(ctx context.Context, team *entities.Team) error {
	if team == nil {
		return errors.New("team cannot be nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members").Create(team).Error; err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		if err := tx.Model(&entities.User{}).
			Where("id = ?", team.ProjectManagerID).
			Update("team_id", team.ID).Error; err != nil {
			return fmt.Errorf("failed to attach project manager: %w", err)
		}
		return nil
	})
}

// FindByID finds a team by ID
func (r *TeamRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Team, error) {
	var team entities.Team
	if err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("username ASC")
		}).
		Where("id = ?", id).
		First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return &team, nil
}
