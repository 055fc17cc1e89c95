package errors

import "errors"

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInternalError = errors.New("internal server error")
)

// Authorization errors
var (
	ErrRoleViolation = errors.New("actor lacks the required role")
	ErrAccessDenied  = errors.New("resource belongs to another team")
	ErrNoTeam        = errors.New("user has no team")
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
)

// Team errors
var (
	ErrAlreadyHasTeam      = errors.New("project manager already has a team")
	ErrAlreadyInTeam       = errors.New("user already belongs to a team")
	ErrNotTeamMember       = errors.New("user is not a member of this team")
	ErrCannotRemoveManager = errors.New("cannot remove the project manager from the team")
)

// Pipeline errors
var (
	ErrQueueFull    = errors.New("pipeline queue is full")
	ErrEmptyContent = errors.New("meeting content is empty")
)
