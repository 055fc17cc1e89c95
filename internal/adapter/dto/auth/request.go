package auth

// PMLoginRequest represents a project manager login with tracker credentials
type PMLoginRequest struct {
	Username     string `json:"username" validate:"required,min=1,max=100"`
	JiraUsername string `json:"jira_username" validate:"required"`
	JiraAPIToken string `json:"jira_api_token" validate:"required"`
	TelegramID   *int64 `json:"telegram_id,omitempty"`
}

// RegisterRequest represents the request to create an account
type RegisterRequest struct {
	Username   string  `json:"username" validate:"required,min=1,max=100"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Role       string  `json:"role" validate:"required,user_role"`
	TelegramID *int64  `json:"telegram_id,omitempty"`
}

// LoginRequest represents a username and password login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
