package entities

import (
	"time"

	"github.com/google/uuid"
)

// UserRole defines user roles
type UserRole string

const (
	RoleProjectManager UserRole = "PROJECT_MANAGER"
	RoleDeveloper      UserRole = "DEVELOPER"
	RoleQA             UserRole = "QA"
	RoleDesigner       UserRole = "DESIGNER"
)

// IsValid checks if the user role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleProjectManager, RoleDeveloper, RoleQA, RoleDesigner:
		return true
	}
	return false
}

// User represents a platform user and, optionally, a member of one team
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username     string    `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	Email        *string   `json:"email,omitempty" gorm:"type:varchar(255)"`
	PasswordHash *string   `json:"-" gorm:"column:password_hash;type:text"` // Never expose in JSON
	TelegramID   *int64    `json:"telegram_id,omitempty" gorm:"uniqueIndex"`
	Role         UserRole  `json:"role" gorm:"type:varchar(50);not null;default:'DEVELOPER'"`

	// Tracker identity used for every outbound tracker call made on this user's behalf
	JiraUsername *string `json:"jira_username,omitempty" gorm:"column:jira_username;type:varchar(255)"`
	JiraAPIToken *string `json:"-" gorm:"column:jira_api_token;type:text"` // Never expose in JSON

	TeamID *uuid.UUID `json:"team_id,omitempty" gorm:"type:uuid;index"`
	Team   *Team      `json:"-" gorm:"foreignKey:TeamID"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty" gorm:"type:timestamp"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewUser creates a new user with default values
func NewUser(username string, role UserRole) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		Username:  username,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsProjectManager reports whether the user holds the PM role
func (u *User) IsProjectManager() bool {
	return u.Role == RoleProjectManager
}

// HasTeam reports whether the user belongs to a team
func (u *User) HasTeam() bool {
	return u.TeamID != nil && *u.TeamID != uuid.Nil
}

// InTeam reports whether the user belongs to the given team
func (u *User) InTeam(teamID uuid.UUID) bool {
	return u.HasTeam() && *u.TeamID == teamID
}

// HasTrackerCredentials reports whether tracker calls can be made on the user's behalf
func (u *User) HasTrackerCredentials() bool {
	return u.JiraUsername != nil && *u.JiraUsername != "" &&
		u.JiraAPIToken != nil && *u.JiraAPIToken != ""
}

// SetTrackerCredentials stores the tracker identity
func (u *User) SetTrackerCredentials(username, apiToken string) {
	u.JiraUsername = &username
	u.JiraAPIToken = &apiToken
	u.UpdatedAt = time.Now()
}

// UpdateLastLogin updates the last login timestamp
func (u *User) UpdateLastLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// Validate validates user data
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrInvalidUsername
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}
