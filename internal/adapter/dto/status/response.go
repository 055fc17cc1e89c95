package status

import "time"

// OverviewResponse represents task counts of the caller's team
type OverviewResponse struct {
	Completed  int       `json:"completed"`
	InProgress int       `json:"in_progress"`
	Todo       int       `json:"todo"`
	Overdue    int       `json:"overdue"`
	UpdatedAt  time.Time `json:"updated_at"`
}
