package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Team groups users under one project manager and one tracker project
type Team struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name             string    `json:"name" gorm:"type:varchar(255);not null"`
	ProjectManagerID uuid.UUID `json:"project_manager_id" gorm:"type:uuid;not null;index"`
	JiraProjectKey   string    `json:"jira_project_key" gorm:"type:varchar(50);not null"`
	JiraURL          string    `json:"jira_url" gorm:"type:varchar(500)"`
	Members          []User    `json:"members,omitempty" gorm:"foreignKey:TeamID"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// NewTeam creates a new team owned by the given project manager
func NewTeam(name string, pmID uuid.UUID, projectKey, jiraURL string) *Team {
	return &Team{
		ID:               uuid.New(),
		Name:             name,
		ProjectManagerID: pmID,
		JiraProjectKey:   projectKey,
		JiraURL:          strings.TrimRight(jiraURL, "/"),
		CreatedAt:        time.Now(),
	}
}

// Validate validates team data
func (t *Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidTeamName
	}
	if strings.TrimSpace(t.JiraProjectKey) == "" {
		return ErrInvalidProjectKey
	}
	return nil
}

// TableName specifies the table name for GORM
func (Team) TableName() string {
	return "teams"
}
