package presenter

import (
	authDTO "github.com/johnquangdev/meeting-taskflow/internal/adapter/dto/auth"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/auth"
)

// ToUserResponse converts a User entity to UserResponse DTO. Secrets are never copied.
func ToUserResponse(u *entities.User) *authDTO.UserResponse {
	if u == nil {
		return nil
	}

	response := &authDTO.UserResponse{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		Role:         string(u.Role),
		JiraUsername: u.JiraUsername,
		TelegramID:   u.TelegramID,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}

	if u.HasTeam() {
		teamID := u.TeamID.String()
		response.TeamID = &teamID
	}
	if u.Team != nil {
		name := u.Team.Name
		response.TeamName = &name
	}

	return response
}

// ToUserResponses converts a list of users
func ToUserResponses(users []*entities.User) []authDTO.UserResponse {
	out := make([]authDTO.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *ToUserResponse(u))
	}
	return out
}

// ToAuthResponse converts usecase AuthResponse to DTO AuthResponse
func ToAuthResponse(usecaseResp *auth.AuthResponse) *authDTO.AuthResponse {
	if usecaseResp == nil {
		return nil
	}

	return &authDTO.AuthResponse{
		AccessToken: usecaseResp.AccessToken,
		ExpiresIn:   int(usecaseResp.ExpiresIn),
		TokenType:   "Bearer",
		User:        ToUserResponse(usecaseResp.User),
	}
}
