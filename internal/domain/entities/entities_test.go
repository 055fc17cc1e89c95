package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeetingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to MeetingStatus
		want     bool
	}{
		{MeetingStatusUploaded, MeetingStatusProcessing, true},
		{MeetingStatusUploaded, MeetingStatusFailed, true},
		{MeetingStatusUploaded, MeetingStatusCompleted, false},
		{MeetingStatusProcessing, MeetingStatusCompleted, true},
		{MeetingStatusProcessing, MeetingStatusFailed, true},
		{MeetingStatusProcessing, MeetingStatusUploaded, false},
		{MeetingStatusCompleted, MeetingStatusProcessing, false},
		{MeetingStatusFailed, MeetingStatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, MeetingStatusCompleted.IsTerminal())
	assert.True(t, MeetingStatusFailed.IsTerminal())
	assert.False(t, MeetingStatusProcessing.IsTerminal())
}

func TestParsePriorityAndStatus(t *testing.T) {
	p, err := ParsePriority(" high ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("URGENT")
	assert.ErrorIs(t, err, ErrInvalidPriority)

	s, err := ParseTaskStatus("in_review")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusInReview, s)

	_, err = ParseTaskStatus("CLOSED")
	assert.ErrorIs(t, err, ErrInvalidTaskStatus)
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2030, 1, 10, 12, 0, 0, 0, time.UTC)
	task := NewTask(uuid.New(), "s", "d", PriorityLow)

	assert.False(t, task.IsOverdue(now), "no deadline")

	past := now.Add(-time.Hour)
	task.Deadline = &past
	assert.True(t, task.IsOverdue(now))

	task.Status = TaskStatusDone
	assert.False(t, task.IsOverdue(now), "done tasks are never overdue")

	future := now.Add(time.Hour)
	task.Status = TaskStatusInProgress
	task.Deadline = &future
	assert.False(t, task.IsOverdue(now))
}

func TestTask_AssignAndValidate(t *testing.T) {
	teamID := uuid.New()
	task := TaskDraft{Summary: "Ship", Description: "Release 1.2", Priority: PriorityMedium}.ToTask(teamID)
	require.NoError(t, task.Validate())
	assert.Equal(t, TaskStatusTodo, task.Status)
	assert.Equal(t, teamID, task.TeamID)

	user := NewUser("alice", RoleDeveloper)
	task.AssignTo(user)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, user.ID, *task.AssigneeID)

	task.AssignTo(nil)
	assert.Nil(t, task.AssigneeID)

	task.Summary = "  "
	assert.ErrorIs(t, task.Validate(), ErrEmptySummary)

	assert.False(t, task.IsSynced())
	task.MarkSynced("CORE-7", "https://jira.example.com/browse/CORE-7")
	assert.True(t, task.IsSynced())
}

func TestUser_TeamAndCredentials(t *testing.T) {
	u := NewUser("pm", RoleProjectManager)
	require.NoError(t, u.Validate())
	assert.True(t, u.IsProjectManager())
	assert.False(t, u.HasTeam())

	teamID := uuid.New()
	u.TeamID = &teamID
	assert.True(t, u.InTeam(teamID))
	assert.False(t, u.InTeam(uuid.New()))

	assert.False(t, u.HasTrackerCredentials())
	u.SetTrackerCredentials("pm@example.com", "token")
	assert.True(t, u.HasTrackerCredentials())

	assert.ErrorIs(t, NewUser("", RoleQA).Validate(), ErrInvalidUsername)
	assert.ErrorIs(t, NewUser("x", "CEO").Validate(), ErrInvalidRole)
}
