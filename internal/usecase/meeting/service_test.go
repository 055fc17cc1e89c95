package meeting

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-taskflow/internal/adapter/repository/repositorytest"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
)

type fakeTranscriber struct {
	text  string
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

type fakeExtractor struct {
	drafts  []entities.TaskDraft
	raw     string
	err     error
	panics  bool
	started chan struct{}
	release chan struct{}

	mu         sync.Mutex
	transcript string
	roster     []string
}

func (f *fakeExtractor) ExtractMany(ctx context.Context, transcript string, roster []string) ([]entities.TaskDraft, string, error) {
	f.mu.Lock()
	f.transcript = transcript
	f.roster = roster
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	if f.panics {
		panic("model returned garbage")
	}
	if f.err != nil {
		return nil, "", f.err
	}
	raw := f.raw
	if raw == "" {
		data, _ := json.Marshal(map[string]interface{}{"tasks": f.drafts})
		raw = string(data)
	}
	return f.drafts, raw, nil
}

type fakeTracker struct {
	failOn int // 1-based call number that fails; 0 never fails

	mu     sync.Mutex
	calls  int
	actors []string
}

func (f *fakeTracker) CreateIssue(ctx context.Context, actor *entities.User, task *entities.Task) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.actors = append(f.actors, actor.Username)
	if f.failOn == f.calls {
		return "", errors.New("tracker request failed: 500")
	}
	return "CORE-" + string(rune('0'+f.calls)), nil
}

func (f *fakeTracker) IssueURL(actor *entities.User, key string) string {
	return "https://example.atlassian.net/browse/" + key
}

type fakeAudioStore struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeAudioStore) PutAudio(ctx context.Context, key string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return "s3://meeting-audio/" + key, nil
}

type fixture struct {
	store       *repositorytest.Store
	pm          *entities.User
	alice       *entities.User
	bob         *entities.User
	transcriber *fakeTranscriber
	extractor   *fakeExtractor
	tracker     *fakeTracker
	audio       *fakeAudioStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repositorytest.NewStore()

	pm := entities.NewUser("pm", entities.RoleProjectManager)
	pm.SetTrackerCredentials("pm@example.com", "token")
	require.NoError(t, store.Users().Create(ctx, pm))

	team := entities.NewTeam("Core", pm.ID, "CORE", "https://example.atlassian.net")
	require.NoError(t, store.Teams().Create(ctx, team))

	alice := entities.NewUser("Alice", entities.RoleDeveloper)
	bob := entities.NewUser("Bob", entities.RoleQA)
	for _, u := range []*entities.User{alice, bob} {
		require.NoError(t, store.Users().Create(ctx, u))
		require.NoError(t, store.Users().SetTeam(ctx, u.ID, &team.ID))
	}

	pm, err := store.Users().FindByID(ctx, pm.ID)
	require.NoError(t, err)

	return &fixture{
		store:       store,
		pm:          pm,
		alice:       alice,
		bob:         bob,
		transcriber: &fakeTranscriber{text: "transcribed audio"},
		extractor:   &fakeExtractor{},
		tracker:     &fakeTracker{},
		audio:       &fakeAudioStore{},
	}
}

func (f *fixture) service(t *testing.T, cfg Config) *Service {
	t.Helper()
	if cfg.Workers == 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 8
	}
	svc := NewService(Deps{
		Meetings:    f.store.Meetings(),
		Tasks:       f.store.Tasks(),
		Users:       f.store.Users(),
		Transcriber: f.transcriber,
		Extractor:   f.extractor,
		Tracker:     f.tracker,
		Audio:       f.audio,
	}, cfg, nil)
	require.NoError(t, svc.StartWorkerPool(context.Background()))
	t.Cleanup(func() { _ = svc.StopWorkerPool() })
	return svc
}

func (f *fixture) waitFor(t *testing.T, id uuid.UUID, want entities.MeetingStatus) *entities.Meeting {
	t.Helper()
	var m *entities.Meeting
	require.Eventually(t, func() bool {
		var err error
		m, err = f.store.Meetings().FindByID(context.Background(), id)
		return err == nil && m.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return m
}

func strPtr(s string) *string { return &s }

func TestSubmit_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.extractor.drafts = []entities.TaskDraft{{
		Summary:      "Fix login bug",
		Description:  "Alice will fix the login bug by Friday",
		AssigneeName: strPtr("Alice"),
		Priority:     entities.PriorityHigh,
	}}
	svc := f.service(t, Config{})

	res, err := svc.Submit(context.Background(), f.pm, Submission{Transcript: "Alice will fix the login bug by Friday"})
	require.NoError(t, err)
	assert.Equal(t, entities.MeetingStatusProcessing, res.Status)

	m := f.waitFor(t, res.MeetingID, entities.MeetingStatusCompleted)
	require.NotNil(t, m.ProcessedAt)
	assert.Equal(t, 1, m.DraftsTotal)

	view, err := svc.GetStatus(context.Background(), f.pm, res.MeetingID)
	require.NoError(t, err)
	require.Len(t, view.Tasks, 1)

	task := view.Tasks[0]
	assert.Equal(t, "Fix login bug", task.Summary)
	assert.Equal(t, entities.PriorityHigh, task.Priority)
	assert.Equal(t, entities.TaskStatusTodo, task.Status)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, f.alice.ID, *task.AssigneeID)
	assert.True(t, task.IsSynced())
	assert.Equal(t, "https://example.atlassian.net/browse/"+*task.IssueKey, *task.IssueURL)
	require.NotNil(t, task.MeetingID)
	assert.Equal(t, res.MeetingID, *task.MeetingID)

	assert.Equal(t, "Alice will fix the login bug by Friday", f.extractor.transcript)
	assert.ElementsMatch(t, []string{"Alice", "Bob", "pm"}, f.extractor.roster)
	assert.Equal(t, []string{"pm"}, f.tracker.actors)
	assert.Zero(t, f.transcriber.calls)
}

func TestSubmit_DoesNotWaitForProcessing(t *testing.T) {
	f := newFixture(t)
	f.extractor.started = make(chan struct{}, 1)
	f.extractor.release = make(chan struct{})
	svc := f.service(t, Config{})

	done := make(chan *SubmitResult, 1)
	go func() {
		res, err := svc.Submit(context.Background(), f.pm, Submission{Transcript: "slow meeting"})
		assert.NoError(t, err)
		done <- res
	}()

	var res *SubmitResult
	select {
	case res = <-done:
	case <-time.After(time.Second):
		t.Fatal("submit blocked on processing")
	}

	<-f.extractor.started
	m, err := f.store.Meetings().FindByID(context.Background(), res.MeetingID)
	require.NoError(t, err)
	assert.Equal(t, entities.MeetingStatusProcessing, m.Status)

	close(f.extractor.release)
	f.waitFor(t, res.MeetingID, entities.MeetingStatusCompleted)
}

func TestProcess_SecondDraftFails(t *testing.T) {
	f := newFixture(t)
	f.extractor.drafts = []entities.TaskDraft{
		{Summary: "First", Description: "one", Priority: entities.PriorityLow},
		{Summary: "Second", Description: "two", Priority: entities.PriorityMedium},
	}
	f.tracker.failOn = 2
	svc := f.service(t, Config{})

	res, err := svc.Submit(context.Background(), f.pm, Submission{Transcript: "two things"})
	require.NoError(t, err)

	m := f.waitFor(t, res.MeetingID, entities.MeetingStatusFailed)
	require.NotNil(t, m.ProcessedAt)

	view, err := svc.GetStatus(context.Background(), f.pm, res.MeetingID)
	require.NoError(t, err)
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, "First", view.Tasks[0].Summary)
	assert.True(t, view.Tasks[0].IsSynced())
	assert.Equal(t, 1, f.store.TaskCount())
}

func TestProcess_IsolatedDrafts(t *testing.T) {
	f := newFixture(t)
	f.extractor.drafts = []entities.TaskDraft{
		{Summary: "First", Description: "one", Priority: entities.PriorityLow},
		{Summary: "Second", Description: "two", Priority: entities.PriorityMedium},
		{Summary: "Third", Description: "three", Priority: entities.PriorityHigh},
	}
	f.tracker.failOn = 2
	svc := f.service(t, Config{IsolateDrafts: true})

	res, err := svc.Submit(context.Background(), f.pm, Submission{Transcript: "three things"})
	require.NoError(t, err)

	m := f.waitFor(t, res.MeetingID, entities.MeetingStatusCompleted)
	assert.Equal(t, 3, m.DraftsTotal)
	assert.Equal(t, 1, m.DraftsFailed)

	view, err := svc.GetStatus(context.Background(), f.pm, res.MeetingID)
	require.NoError(t, err)
	require.Len(t, view.Tasks, 2)
	assert.Equal(t, "First", view.Tasks[0].Summary)
	assert.Equal(t, "Third", view.Tasks[1].Summary)
}

func TestProcess_UnknownAssigneeLeavesTaskUnassigned(t *testing.T) {
	f := newFixture(t)
	f.extractor.drafts = []entities.TaskDraft{
		{Summary: "Deploy", Description: "Carol deploys", AssigneeName: strPtr("Carol"), Priority: entities.PriorityLow},
		{Summary: "Review", Description: "alice reviews", AssigneeName: strPtr("alice"), Priority: entities.PriorityLow},
	}
	svc := f.service(t, Config{})

	res, err := svc.Submit(context.Background(), f.pm, Submission{Transcript: "x"})
	require.NoError(t, err)
	f.waitFor(t, res.MeetingID, entities.MeetingStatusCompleted)

	view, err := svc.GetStatus(context.Background(), f.pm, res.MeetingID)
	require.NoError(t, err)
	require.Len(t, view.Tasks, 2)
	for _, task := range view.Tasks {
		assert.Nil(t, task.AssigneeID)
	}
}

func TestProcess_FailuresReachFailed(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		sub   Submission
	}{
		{
			name:  "extraction error",
			setup: func(f *fixture) { f.extractor.err = errors.New("malformed reply") },
			sub:   Submission{Transcript: "x"},
		},
		{
			name:  "extraction panic",
			setup: func(f *fixture) { f.extractor.panics = true },
			sub:   Submission{Transcript: "x"},
		},
		{
			name:  "transcription error",
			setup: func(f *fixture) { f.transcriber.err = errors.New("upstream timeout") },
			sub:   Submission{FileName: "standup.mp3", Audio: []byte("RIFF")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			svc := f.service(t, Config{})

			res, err := svc.Submit(context.Background(), f.pm, tt.sub)
			require.NoError(t, err)
			m := f.waitFor(t, res.MeetingID, entities.MeetingStatusFailed)
			assert.NotNil(t, m.ProcessedAt)
			assert.Zero(t, f.store.TaskCount())
		})
	}
}

func TestProcess_AudioIsStoredAndTranscribed(t *testing.T) {
	f := newFixture(t)
	f.extractor.drafts = []entities.TaskDraft{}
	svc := f.service(t, Config{})

	res, err := svc.Submit(context.Background(), f.pm, Submission{FileName: "standup.mp3", Audio: []byte("ID3")})
	require.NoError(t, err)
	m := f.waitFor(t, res.MeetingID, entities.MeetingStatusCompleted)

	require.NotNil(t, m.Transcript)
	assert.Equal(t, "transcribed audio", *m.Transcript)
	assert.Equal(t, "transcribed audio", f.extractor.transcript)
	require.NotNil(t, m.FileURL)
	assert.Equal(t, "s3://meeting-audio/meetings/"+res.MeetingID.String()+"/standup.mp3", *m.FileURL)
	assert.Equal(t, 1, f.transcriber.calls)
}

func TestProcess_StoresExtractionAsJSON(t *testing.T) {
	f := newFixture(t)
	f.extractor.drafts = []entities.TaskDraft{
		{Summary: "Write notes", Description: "Bob writes the notes", AssigneeName: strPtr("Bob"), Priority: entities.PriorityLow},
	}
	f.extractor.raw = "```json\n[{\"summary\":\"Write notes\",\"description\":\"Bob writes the notes\",\"assignee\":\"Bob\",\"priority\":\"LOW\"},]\n```"
	svc := f.service(t, Config{})

	res, err := svc.Submit(context.Background(), f.pm, Submission{Transcript: "Bob writes the notes"})
	require.NoError(t, err)
	m := f.waitFor(t, res.MeetingID, entities.MeetingStatusCompleted)

	require.True(t, json.Valid(m.ExtractionRaw), "stored extraction: %s", m.ExtractionRaw)
	var stored []entities.TaskDraft
	require.NoError(t, json.Unmarshal(m.ExtractionRaw, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "Write notes", stored[0].Summary)
	assert.Equal(t, 1, m.DraftsTotal)
	assert.Equal(t, 1, f.store.TaskCount())
}

func TestExtractionJSON(t *testing.T) {
	drafts := []entities.TaskDraft{{Summary: "A", Description: "a", Priority: entities.PriorityHigh}}

	assert.JSONEq(t, `{"tasks":[]}`, string(extractionJSON(`{"tasks":[]}`, nil)))
	assert.JSONEq(t, `[{"summary":"A","description":"a","priority":"HIGH"}]`, string(extractionJSON("```json\n[1,]\n```", drafts)))
	assert.JSONEq(t, `[]`, string(extractionJSON("not json", nil)))
}

func TestProcess_ReapedAttemptCreatesNoTasks(t *testing.T) {
	f := newFixture(t)
	f.extractor.drafts = []entities.TaskDraft{
		{Summary: "Late task", Description: "arrives after the reaper", Priority: entities.PriorityLow},
	}
	f.extractor.started = make(chan struct{}, 1)
	f.extractor.release = make(chan struct{})
	svc := f.service(t, Config{Workers: 1})
	ctx := context.Background()

	res, err := svc.Submit(ctx, f.pm, Submission{Transcript: "slow meeting"})
	require.NoError(t, err)
	<-f.extractor.started

	f.store.SetMeetingUpdatedAt(res.MeetingID, time.Now().Add(-time.Hour))
	assert.Equal(t, 1, NewReaper(f.store.Meetings(), 30*time.Minute, 0, nil).ReapOnce(ctx))

	close(f.extractor.release)
	require.NoError(t, svc.StopWorkerPool())

	m, err := f.store.Meetings().FindByID(ctx, res.MeetingID)
	require.NoError(t, err)
	assert.Equal(t, entities.MeetingStatusFailed, m.Status)
	assert.Zero(t, f.store.TaskCount())
	assert.Zero(t, f.tracker.calls)
}

func TestAttemptHeartbeat(t *testing.T) {
	f := newFixture(t)
	f.extractor.drafts = []entities.TaskDraft{
		{Summary: "Slow task", Description: "extraction takes a while", Priority: entities.PriorityLow},
	}
	f.extractor.started = make(chan struct{}, 1)
	f.extractor.release = make(chan struct{})
	defer close(f.extractor.release)
	svc := f.service(t, Config{Workers: 1, StaleAfter: 60 * time.Millisecond, ReapInterval: time.Hour})
	ctx := context.Background()

	res, err := svc.Submit(ctx, f.pm, Submission{Transcript: "long meeting"})
	require.NoError(t, err)
	<-f.extractor.started

	before, err := f.store.Meetings().FindByID(ctx, res.MeetingID)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		m, err := f.store.Meetings().FindByID(ctx, res.MeetingID)
		return err == nil && m.UpdatedAt.After(before.UpdatedAt)
	}, 2*time.Second, 5*time.Millisecond, "running attempt should refresh updated_at")

	// Another process fails the meeting; the attempt must stop without creating tasks.
	require.NoError(t, f.store.Meetings().Transition(ctx, res.MeetingID,
		entities.MeetingStatusProcessing, entities.MeetingStatusFailed))

	stopped := make(chan error, 1)
	go func() { stopped <- svc.StopWorkerPool() }()
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("attempt kept running after its meeting was failed")
	}

	m, err := f.store.Meetings().FindByID(ctx, res.MeetingID)
	require.NoError(t, err)
	assert.Equal(t, entities.MeetingStatusFailed, m.Status)
	assert.Zero(t, f.store.TaskCount())
	assert.Zero(t, f.tracker.calls)
}

func TestSubmit_Rejections(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Config{})
	ctx := context.Background()

	dev, err := f.store.Users().FindByID(ctx, f.alice.ID)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, dev, Submission{Transcript: "x"})
	assert.ErrorIs(t, err, ucerrors.ErrRoleViolation)

	loner := entities.NewUser("loner", entities.RoleProjectManager)
	_, err = svc.Submit(ctx, loner, Submission{Transcript: "x"})
	assert.ErrorIs(t, err, ucerrors.ErrNoTeam)

	_, err = svc.Submit(ctx, f.pm, Submission{Transcript: "   "})
	assert.ErrorIs(t, err, ucerrors.ErrEmptyContent)
}

func TestSubmit_QueueFullFailsMeeting(t *testing.T) {
	f := newFixture(t)
	f.extractor.started = make(chan struct{}, 4)
	f.extractor.release = make(chan struct{})
	svc := f.service(t, Config{Workers: 1, QueueSize: 1})
	ctx := context.Background()

	first, err := svc.Submit(ctx, f.pm, Submission{Transcript: "one"})
	require.NoError(t, err)
	<-f.extractor.started

	second, err := svc.Submit(ctx, f.pm, Submission{Transcript: "two"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, f.pm, Submission{Transcript: "three"})
	require.ErrorIs(t, err, ucerrors.ErrQueueFull)

	close(f.extractor.release)
	f.waitFor(t, first.MeetingID, entities.MeetingStatusCompleted)
	f.waitFor(t, second.MeetingID, entities.MeetingStatusCompleted)
}

func TestGetStatus_AccessControl(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Config{})
	ctx := context.Background()

	res, err := svc.Submit(ctx, f.pm, Submission{Transcript: "x"})
	require.NoError(t, err)

	otherPM := entities.NewUser("other-pm", entities.RoleProjectManager)
	require.NoError(t, f.store.Users().Create(ctx, otherPM))
	otherTeam := entities.NewTeam("Other", otherPM.ID, "OTH", "")
	require.NoError(t, f.store.Teams().Create(ctx, otherTeam))
	otherPM, err = f.store.Users().FindByID(ctx, otherPM.ID)
	require.NoError(t, err)

	view, err := svc.GetStatus(ctx, otherPM, res.MeetingID)
	assert.ErrorIs(t, err, ucerrors.ErrAccessDenied)
	assert.Nil(t, view)

	_, err = svc.GetStatus(ctx, f.pm, uuid.New())
	assert.ErrorIs(t, err, ucerrors.ErrNotFound)

	bob, err := f.store.Users().FindByID(ctx, f.bob.ID)
	require.NoError(t, err)
	_, err = svc.GetStatus(ctx, bob, res.MeetingID)
	assert.NoError(t, err)
}

func TestStatusNeverRegresses(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, Config{})
	ctx := context.Background()

	res, err := svc.Submit(ctx, f.pm, Submission{Transcript: "x"})
	require.NoError(t, err)
	f.waitFor(t, res.MeetingID, entities.MeetingStatusCompleted)

	repo := f.store.Meetings()
	assert.Error(t, repo.Transition(ctx, res.MeetingID, entities.MeetingStatusCompleted, entities.MeetingStatusProcessing))
	assert.Error(t, repo.Transition(ctx, res.MeetingID, entities.MeetingStatusProcessing, entities.MeetingStatusFailed))
	assert.Error(t, repo.Transition(ctx, res.MeetingID, entities.MeetingStatusUploaded, entities.MeetingStatusProcessing))

	m, err := repo.FindByID(ctx, res.MeetingID)
	require.NoError(t, err)
	assert.Equal(t, entities.MeetingStatusCompleted, m.Status)
}

func TestResolveAssignee(t *testing.T) {
	alice := entities.NewUser("Alice", entities.RoleDeveloper)
	members := []*entities.User{alice, entities.NewUser("Bob", entities.RoleQA)}

	assert.Same(t, alice, ResolveAssignee(members, strPtr("Alice")))
	assert.Nil(t, ResolveAssignee(members, strPtr("ALICE")))
	assert.Nil(t, ResolveAssignee(members, strPtr("Carol")))
	assert.Nil(t, ResolveAssignee(members, nil))
	assert.Nil(t, ResolveAssignee(nil, strPtr("Alice")))
}
