package jira

import (
	"fmt"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

var priorityNames = map[entities.TaskPriority]string{
	entities.PriorityLow:      "Low",
	entities.PriorityMedium:   "Medium",
	entities.PriorityHigh:     "High",
	entities.PriorityCritical: "Highest",
}

var transitionIDs = map[entities.TaskStatus]string{
	entities.TaskStatusTodo:       "11",
	entities.TaskStatusInProgress: "21",
	entities.TaskStatusInReview:   "31",
	entities.TaskStatusDone:       "41",
	entities.TaskStatusBlocked:    "51",
}

// CheckMappings verifies that every priority and status has a tracker counterpart.
// It runs at package init and at startup; a gap is a programming error.
func CheckMappings() error {
	for _, p := range entities.AllPriorities {
		if _, ok := priorityNames[p]; !ok {
			return fmt.Errorf("no tracker priority for %s", p)
		}
	}
	for _, s := range entities.AllTaskStatuses {
		if _, ok := transitionIDs[s]; !ok {
			return fmt.Errorf("no tracker transition for %s", s)
		}
	}
	return nil
}

func init() {
	if err := CheckMappings(); err != nil {
		panic(err)
	}
}

// PriorityName returns the tracker priority name
func PriorityName(p entities.TaskPriority) (string, error) {
	name, ok := priorityNames[p]
	if !ok {
		return "", fmt.Errorf("%w: unmapped priority %q", ErrRequestFailed, p)
	}
	return name, nil
}

// TransitionID returns the tracker transition identifier that moves an issue into status s
func TransitionID(s entities.TaskStatus) (string, error) {
	id, ok := transitionIDs[s]
	if !ok {
		return "", fmt.Errorf("%w: unmapped status %q", ErrRequestFailed, s)
	}
	return id, nil
}
