package team

// CreateTeamRequest represents the request to create the manager's team
type CreateTeamRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=255"`
	JiraProjectKey string `json:"jira_project_key" validate:"required,alphanum,max=50"`
	JiraURL        string `json:"jira_url" validate:"omitempty,url"`
}

// AddMemberRequest represents a user to add to the team
type AddMemberRequest struct {
	Username     string  `json:"username" validate:"required,min=1,max=100"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Role         string  `json:"role" validate:"required,user_role"`
	JiraUsername *string `json:"jira_username,omitempty"`
}
