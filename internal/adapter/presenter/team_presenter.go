package presenter

import (
	teamDTO "github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/team"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

// ToTeamResponse converts a Team entity with its members
func ToTeamResponse(t *entities.Team) teamDTO.TeamResponse {
	members := make([]*entities.User, 0, len(t.Members))
	for i := range t.Members {
		members = append(members, &t.Members[i])
	}
	return teamDTO.TeamResponse{
		ID:               t.ID.String(),
		Name:             t.Name,
		ProjectManagerID: t.ProjectManagerID.String(),
		JiraProjectKey:   t.JiraProjectKey,
		JiraURL:          t.JiraURL,
		Members:          ToUserResponses(members),
		CreatedAt:        t.CreatedAt,
	}
}
