package entities

import "errors"

// Domain errors
var (
	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidRole       = errors.New("invalid role")

	// Team errors
	ErrTeamNotFound      = errors.New("team not found")
	ErrInvalidTeamName   = errors.New("invalid team name")
	ErrInvalidProjectKey = errors.New("invalid tracker project key")

	// Meeting errors
	ErrMeetingNotFound   = errors.New("meeting not found")
	ErrInvalidTransition = errors.New("invalid meeting status transition")

	// Task errors
	ErrTaskNotFound      = errors.New("task not found")
	ErrEmptySummary      = errors.New("task summary is empty")
	ErrEmptyDescription  = errors.New("task description is empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrInvalidPriority   = errors.New("invalid task priority")
)
