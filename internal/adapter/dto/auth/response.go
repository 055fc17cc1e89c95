package auth

import "time"

// UserResponse represents user information in responses
type UserResponse struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        *string    `json:"email,omitempty"`
	Role         string     `json:"role"`
	JiraUsername *string    `json:"jira_username,omitempty"`
	TelegramID   *int64     `json:"telegram_id,omitempty"`
	TeamID       *string    `json:"team_id,omitempty"`
	TeamName     *string    `json:"team_name,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int           `json:"expires_in"` // seconds
	TokenType   string        `json:"token_type"` // "Bearer"
	User        *UserResponse `json:"user"`
}
