package team

import (
	"time"

	"github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/auth"
)

// TeamResponse represents a team with its members
type TeamResponse struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ProjectManagerID string              `json:"project_manager_id"`
	JiraProjectKey   string              `json:"jira_project_key"`
	JiraURL          string              `json:"jira_url,omitempty"`
	Members          []auth.UserResponse `json:"members"`
	CreatedAt        time.Time           `json:"created_at"`
}
