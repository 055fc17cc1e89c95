package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-taskflow/internal/adapter/repository/repositorytest"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/external/jira"
	httpmw "github.com/johnquangdev/meeting-taskflow/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/metrics"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/auth"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/extraction"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/meeting"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/status"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/task"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/team"
	pkgai "github.com/johnquangdev/meeting-taskflow/pkg/ai"
	"github.com/johnquangdev/meeting-taskflow/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/meeting-taskflow/pkg/validator"
)

type okValidator struct{}

func (okValidator) ValidateCredentials(ctx context.Context, username, apiToken string) bool {
	return apiToken != "bad"
}

type replyGenerator struct {
	mu      sync.Mutex
	single  string
	list    string
	prompts []string
}

func (g *replyGenerator) Generate(ctx context.Context, system, prompt string, opts pkgai.GenerateOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if opts.Schema != nil && opts.Schema.Name == "task" {
		return g.single, nil
	}
	return g.list, nil
}

type recordingTracker struct {
	mu      sync.Mutex
	created int
	updates map[string]jira.IssueUpdate
}

func (t *recordingTracker) CreateIssue(ctx context.Context, actor *entities.User, task *entities.Task) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.created++
	return fmt.Sprintf("CORE-%d", t.created), nil
}

func (t *recordingTracker) UpdateIssue(ctx context.Context, actor *entities.User, issueKey string, update jira.IssueUpdate) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.updates == nil {
		t.updates = map[string]jira.IssueUpdate{}
	}
	t.updates[issueKey] = update
	return nil
}

func (t *recordingTracker) IssueURL(actor *entities.User, issueKey string) string {
	return "https://jira.example.com/browse/" + issueKey
}

type echoTranscriber struct{}

func (echoTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "transcript of " + string(audio), nil
}

type harness struct {
	mu        sync.Mutex
	e         *echo.Echo
	store     *repositorytest.Store
	generator *replyGenerator
	tracker   *recordingTracker
}

type envelope struct {
	Code    interface{}     `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Info    string          `json:"info"`
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := repositorytest.NewStore()
	revoked := cache.NewMemoryStore()
	t.Cleanup(func() { _ = revoked.Close() })

	generator := &replyGenerator{}
	tracker := &recordingTracker{}
	extractor := extraction.NewExtractor(generator, extraction.Options{}, nil)
	reg := prometheus.NewRegistry()

	authSvc := auth.NewService(store.Users(), okValidator{}, jwt.NewManager("test-secret", time.Hour, ""), revoked, nil)
	meetingSvc := meeting.NewService(meeting.Deps{
		Meetings:    store.Meetings(),
		Tasks:       store.Tasks(),
		Users:       store.Users(),
		Transcriber: echoTranscriber{},
		Extractor:   extractor,
		Tracker:     tracker,
		Metrics:     metrics.New(reg),
	}, meeting.Config{Workers: 1, QueueSize: 8}, nil)
	require.NoError(t, meetingSvc.StartWorkerPool(context.Background()))
	t.Cleanup(func() { _ = meetingSvc.StopWorkerPool() })

	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HTTPErrorHandler = HTTPErrorHandler(nil)

	handlers := Handlers{
		Auth:    NewAuth(authSvc, nil, false),
		Meeting: NewMeeting(meetingSvc, 1<<20, nil),
		Task:    NewTask(task.NewService(store.Tasks(), store.Users(), tracker, extractor, nil), nil),
		Team:    NewTeam(team.NewService(store.Teams(), store.Users(), nil), nil),
		Status:  NewStatus(status.NewService(store.Tasks()), nil),
	}
	checks := map[string]HealthCheck{"database": func(ctx context.Context) error { return nil }}
	NewRouter(nil, handlers, httpmw.EchoAuth(authSvc), reg, checks).Setup(e)

	return &harness{e: e, store: store, generator: generator, tracker: tracker}
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return h.serve(t, req)
}

func (h *harness) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type authData struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

type taskData struct {
	ID       string  `json:"id"`
	IssueKey *string `json:"jira_key"`
	Status   string  `json:"status"`
	Assignee *struct {
		Username string `json:"username"`
	} `json:"assignee"`
}

// managerWithTeam logs a project manager in, creates team CORE and adds alice
func (h *harness) managerWithTeam(t *testing.T) (token, aliceID string) {
	t.Helper()

	rec, env := h.do(t, http.MethodPost, "/v1/auth/pm-login", "", map[string]string{
		"username": "pm", "jira_username": "pm@example.com", "jira_api_token": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token = decode[authData](t, env).AccessToken

	rec, _ = h.do(t, http.MethodPost, "/v1/team", token, map[string]string{
		"name": "Core", "jira_project_key": "CORE", "jira_url": "https://jira.example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = h.do(t, http.MethodPost, "/v1/team/members", token, map[string]string{
		"username": "alice", "role": "DEVELOPER",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var member struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &member))
	return token, member.ID
}

type meetingStatusData struct {
	Status string     `json:"status"`
	Tasks  []taskData `json:"tasks"`
}

// waitCompleted polls the status endpoint until the meeting leaves processing
func (h *harness) waitCompleted(t *testing.T, token, meetingID string) meetingStatusData {
	t.Helper()

	var last meetingStatusData
	assert.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/v1/meetings/"+meetingID+"/status", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		h.e.ServeHTTP(rec, req)

		var env struct {
			Data meetingStatusData `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			return false
		}
		h.mu.Lock()
		last = env.Data
		h.mu.Unlock()
		return env.Data.Status == "COMPLETED"
	}, 2*time.Second, 10*time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Equal(t, "COMPLETED", last.Status)
	return last
}

func TestTaskLifecycle(t *testing.T) {
	h := newHarness(t)
	token, aliceID := h.managerWithTeam(t)

	rec, env := h.do(t, http.MethodPost, "/v1/tasks", token, map[string]interface{}{
		"summary":     "Write release notes",
		"description": "Cover the new export flow",
		"assignee_id": aliceID,
		"priority":    "high",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[taskData](t, env)
	require.NotNil(t, created.IssueKey)
	assert.Equal(t, "CORE-1", *created.IssueKey)
	require.NotNil(t, created.Assignee)
	assert.Equal(t, "alice", created.Assignee.Username)

	rec, env = h.do(t, http.MethodGet, "/v1/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]taskData](t, env), 1)

	rec, env = h.do(t, http.MethodGet, "/v1/status/overview", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[map[string]interface{}](t, env)
	assert.EqualValues(t, 1, overview["todo"])

	rec, env = h.do(t, http.MethodPut, "/v1/tasks/"+created.ID, token, map[string]string{"status": "DONE"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "DONE", decode[taskData](t, env).Status)
	require.Contains(t, h.tracker.updates, "CORE-1")

	rec, env = h.do(t, http.MethodGet, "/v1/tasks?status=DONE", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]taskData](t, env), 1)

	_, env = h.do(t, http.MethodGet, "/v1/status/overview", token, nil)
	overview = decode[map[string]interface{}](t, env)
	assert.EqualValues(t, 1, overview["completed"])
	assert.EqualValues(t, 0, overview["todo"])
}

func TestCreateTaskFromText(t *testing.T) {
	h := newHarness(t)
	token, _ := h.managerWithTeam(t)
	h.generator.single = `{"summary":"Fix login","description":"Session expires too early","assignee":"alice","priority":"CRITICAL","deadline":null}`

	rec, env := h.do(t, http.MethodPost, "/v1/tasks/from-text", token, map[string]string{"text": "alice please fix login asap"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[taskData](t, env)
	require.NotNil(t, created.Assignee)
	assert.Equal(t, "alice", created.Assignee.Username)

	h.generator.single = `not json`
	rec, env = h.do(t, http.MethodPost, "/v1/tasks/from-text", token, map[string]string{"text": "anything"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "EXTRACTION_FAILED", env.Code)
}

func TestMeetingTranscriptPipeline(t *testing.T) {
	h := newHarness(t)
	token, _ := h.managerWithTeam(t)
	h.generator.list = `{"tasks":[
		{"summary":"Prepare demo","description":"Slides for Friday","assignee":"alice","priority":"HIGH","deadline":"2030-01-10T09:00:00"},
		{"summary":"Book room","description":"For the retro","assignee":null,"priority":"LOW","deadline":null}
	]}`

	rec, env := h.do(t, http.MethodPost, "/v1/meetings/analyze/transcript", token, map[string]string{
		"transcript": "Alice will prepare the demo. Someone books a room.",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	accepted := decode[map[string]string](t, env)
	assert.Equal(t, "PROCESSING", accepted["status"])
	meetingID := accepted["meeting_id"]

	statusBody := h.waitCompleted(t, token, meetingID)

	require.Len(t, statusBody.Tasks, 2)
	require.NotNil(t, statusBody.Tasks[0].Assignee)
	assert.Equal(t, "alice", statusBody.Tasks[0].Assignee.Username)
	assert.Nil(t, statusBody.Tasks[1].Assignee)
}

func TestMeetingAudioUpload(t *testing.T) {
	h := newHarness(t)
	token, _ := h.managerWithTeam(t)
	h.generator.list = `[]`

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "standup.mp3")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-audio"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/meetings/analyze", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec, env := h.serve(t, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	meetingID := decode[map[string]string](t, env)["meeting_id"]

	h.waitCompleted(t, token, meetingID)

	h.generator.mu.Lock()
	lastPrompt := h.generator.prompts[len(h.generator.prompts)-1]
	h.generator.mu.Unlock()
	assert.Contains(t, lastPrompt, "transcript of fake-audio")

	req = httptest.NewRequest(http.MethodPost, "/v1/meetings/analyze", strings.NewReader(""))
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec, env = h.serve(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", env.Code)
}

func TestAuthAndAccessErrors(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodGet, "/v1/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", env.Code)

	rec, env = h.do(t, http.MethodGet, "/v1/tasks", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_INVALID_TOKEN", env.Code)

	rec, env = h.do(t, http.MethodPost, "/v1/auth/pm-login", "", map[string]string{
		"username": "pm", "jira_username": "pm", "jira_api_token": "bad",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", env.Code)

	rec, env = h.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "dev", "password": "password-1", "role": "DEVELOPER",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	devToken := decode[authData](t, env).AccessToken

	rec, env = h.do(t, http.MethodPost, "/v1/meetings/analyze/transcript", devToken, map[string]string{"transcript": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ROLE_VIOLATION", env.Code)

	rec, env = h.do(t, http.MethodGet, "/v1/status/overview", devToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NO_TEAM", env.Code)

	rec, env = h.do(t, http.MethodPost, "/v1/tasks", devToken, map[string]string{
		"summary": "s", "description": "d", "priority": "URGENT",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PAYLOAD", env.Code)

	rec, _ = h.do(t, http.MethodGet, "/v1/auth/me", devToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = h.do(t, http.MethodPost, "/v1/auth/logout", devToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = h.do(t, http.MethodGet, "/v1/auth/me", devToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_INVALID_TOKEN", env.Code)
}

func TestCrossTeamAccess(t *testing.T) {
	h := newHarness(t)
	token, aliceID := h.managerWithTeam(t)

	rec, env := h.do(t, http.MethodPost, "/v1/tasks", token, map[string]interface{}{
		"summary": "Private", "description": "Team CORE only", "assignee_id": aliceID, "priority": "LOW",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	taskID := decode[taskData](t, env).ID

	rec, env = h.do(t, http.MethodPost, "/v1/auth/pm-login", "", map[string]string{
		"username": "other-pm", "jira_username": "other", "jira_api_token": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	otherToken := decode[authData](t, env).AccessToken
	rec, _ = h.do(t, http.MethodPost, "/v1/team", otherToken, map[string]string{"name": "Other", "jira_project_key": "OTH"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = h.do(t, http.MethodGet, "/v1/tasks/"+taskID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCESS_DENIED", env.Code)

	rec, env = h.do(t, http.MethodPost, "/v1/team/members", otherToken, map[string]string{"username": "alice", "role": "DEVELOPER"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_IN_TEAM", env.Code)

	rec, env = h.do(t, http.MethodGet, "/v1/meetings/not-a-uuid/status", otherToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", env.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	rec = httptest.NewRecorder()
	h.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "meeting_taskflow_pipeline_queue_depth")
}
