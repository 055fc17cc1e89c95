package meeting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-taskflow/internal/adapter/repository/repositorytest"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
)

func TestReaper_FailsStaleMeetings(t *testing.T) {
	ctx := context.Background()
	store := repositorytest.NewStore()
	repo := store.Meetings()
	teamID := uuid.New()
	now := time.Now()

	newMeeting := func(status entities.MeetingStatus, age time.Duration) uuid.UUID {
		m := entities.NewMeeting(teamID, uuid.New(), "")
		require.NoError(t, repo.Create(ctx, m))
		if status != entities.MeetingStatusUploaded {
			require.NoError(t, repo.Transition(ctx, m.ID, entities.MeetingStatusUploaded, entities.MeetingStatusProcessing))
		}
		if status.IsTerminal() {
			require.NoError(t, repo.Transition(ctx, m.ID, entities.MeetingStatusProcessing, status))
		}
		store.SetMeetingUpdatedAt(m.ID, now.Add(-age))
		return m.ID
	}

	stuckUploaded := newMeeting(entities.MeetingStatusUploaded, time.Hour)
	stuckProcessing := newMeeting(entities.MeetingStatusProcessing, 2*time.Hour)
	fresh := newMeeting(entities.MeetingStatusProcessing, time.Minute)
	done := newMeeting(entities.MeetingStatusCompleted, 3*time.Hour)

	r := NewReaper(repo, 30*time.Minute, time.Minute, nil)
	r.now = func() time.Time { return now }

	assert.Equal(t, 2, r.ReapOnce(ctx))

	status := func(id uuid.UUID) entities.MeetingStatus {
		m, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		return m.Status
	}
	assert.Equal(t, entities.MeetingStatusFailed, status(stuckUploaded))
	assert.Equal(t, entities.MeetingStatusFailed, status(stuckProcessing))
	assert.Equal(t, entities.MeetingStatusProcessing, status(fresh))
	assert.Equal(t, entities.MeetingStatusCompleted, status(done))

	assert.Zero(t, r.ReapOnce(ctx))
}

func TestReaper_StartStop(t *testing.T) {
	store := repositorytest.NewStore()
	m := entities.NewMeeting(uuid.New(), uuid.New(), "")
	require.NoError(t, store.Meetings().Create(context.Background(), m))
	store.SetMeetingUpdatedAt(m.ID, time.Now().Add(-time.Hour))

	r := NewReaper(store.Meetings(), time.Minute, time.Hour, nil)
	r.Start(context.Background())

	require.Eventually(t, func() bool {
		got, err := store.Meetings().FindByID(context.Background(), m.ID)
		return err == nil && got.Status == entities.MeetingStatusFailed
	}, time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop()
}

func TestDispatcher_RejectsWhenStopped(t *testing.T) {
	d := NewDispatcher(1, 1, func(ctx context.Context, workerID int, job Job) {}, nil, nil)
	assert.Error(t, d.Enqueue(Job{}))

	require.NoError(t, d.Start(context.Background()))
	assert.Error(t, d.Start(context.Background()))
	require.NoError(t, d.Stop())

	assert.Error(t, d.Enqueue(Job{}))
	assert.Error(t, d.Stop())
}

func TestDispatcher_DrainsOnStop(t *testing.T) {
	handled := make(chan uuid.UUID, 3)
	d := NewDispatcher(1, 3, func(ctx context.Context, workerID int, job Job) {
		handled <- job.MeetingID
	}, nil, nil)
	require.NoError(t, d.Start(context.Background()))

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, d.Enqueue(Job{MeetingID: id}))
	}
	require.NoError(t, d.Stop())

	close(handled)
	var got []uuid.UUID
	for id := range handled {
		got = append(got, id)
	}
	assert.Equal(t, ids, got)
}

func TestDispatcher_Len(t *testing.T) {
	picked := make(chan struct{}, 3)
	release := make(chan struct{})
	d := NewDispatcher(1, 3, func(ctx context.Context, workerID int, job Job) {
		picked <- struct{}{}
		<-release
	}, nil, nil)
	require.NoError(t, d.Start(context.Background()))
	assert.Zero(t, d.Len())

	require.NoError(t, d.Enqueue(Job{MeetingID: uuid.New()}))
	<-picked
	require.NoError(t, d.Enqueue(Job{MeetingID: uuid.New()}))
	require.NoError(t, d.Enqueue(Job{MeetingID: uuid.New()}))
	assert.Equal(t, 2, d.Len())

	close(release)
	require.NoError(t, d.Stop())
	assert.Zero(t, d.Len())
}
