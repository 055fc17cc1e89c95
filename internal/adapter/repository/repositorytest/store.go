// Package repositorytest implements the repository interfaces over maps
// for usecase and handler tests.
package repositorytest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

// Store holds every record in memory
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]entities.User
	teams    map[uuid.UUID]entities.Team
	meetings map[uuid.UUID]entities.Meeting
	tasks    map[uuid.UUID]entities.Task
	taskSeq  map[uuid.UUID]int
	seq      int
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]entities.User),
		teams:    make(map[uuid.UUID]entities.Team),
		meetings: make(map[uuid.UUID]entities.Meeting),
		tasks:    make(map[uuid.UUID]entities.Task),
		taskSeq:  make(map[uuid.UUID]int),
	}
}

// Users returns the user repository
func (s *Store) Users() repositories.UserRepository { return userRepo{s} }

// Teams returns the team repository
func (s *Store) Teams() repositories.TeamRepository { return teamRepo{s} }

// Meetings returns the meeting repository
func (s *Store) Meetings() repositories.MeetingRepository { return meetingRepo{s} }

// Tasks returns the task repository
func (s *Store) Tasks() repositories.TaskRepository { return taskRepo{s} }

// SetMeetingUpdatedAt backdates a meeting, for stale-meeting tests
func (s *Store) SetMeetingUpdatedAt(id uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.meetings[id]; ok {
		m.UpdatedAt = at
		s.meetings[id] = m
	}
}

// TaskCount returns the number of stored tasks
func (s *Store) TaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *Store) userWithTeam(u entities.User) *entities.User {
	if u.TeamID != nil {
		if t, ok := s.teams[*u.TeamID]; ok {
			u.Team = &t
		}
	} else {
		u.Team = nil
	}
	return &u
}

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return entities.ErrUserAlreadyExists
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stored := *user
	stored.Team = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r userRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	return r.s.userWithTeam(u), nil
}

func (r userRepo) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return r.s.userWithTeam(u), nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r userRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entities.User
	for _, u := range r.s.users {
		if u.TeamID != nil && *u.TeamID == teamID {
			uu := u
			uu.Team = nil
			out = append(out, &uu)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r userRepo) Update(ctx context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return entities.ErrUserNotFound
	}
	stored := *user
	stored.Team = nil
	stored.UpdatedAt = time.Now()
	r.s.users[user.ID] = stored
	return nil
}

func (r userRepo) SetTeam(ctx context.Context, userID uuid.UUID, teamID *uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return entities.ErrUserNotFound
	}
	u.TeamID = teamID
	r.s.users[userID] = u
	return nil
}

func (r userRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return entities.ErrUserNotFound
	}
	u.UpdateLastLogin()
	r.s.users[userID] = u
	return nil
}

type teamRepo struct{ s *Store }

func (r teamRepo) Create(ctx context.Context, team *entities.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pm, ok := r.s.users[team.ProjectManagerID]
	if !ok {
		return entities.ErrUserNotFound
	}
	stored := *team
	stored.Members = nil
	r.s.teams[team.ID] = stored

	id := team.ID
	pm.TeamID = &id
	r.s.users[pm.ID] = pm
	return nil
}

func (r teamRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, entities.ErrTeamNotFound
	}
	for _, u := range r.s.users {
		if u.TeamID != nil && *u.TeamID == id {
			u.Team = nil
			t.Members = append(t.Members, u)
		}
	}
	sort.Slice(t.Members, func(i, j int) bool { return t.Members[i].Username < t.Members[j].Username })
	return &t, nil
}

type meetingRepo struct{ s *Store }

func (r meetingRepo) Create(ctx context.Context, meeting *entities.Meeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *meeting
	stored.Tasks = nil
	r.s.meetings[meeting.ID] = stored
	return nil
}

func (r meetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.meetings[id]
	if !ok {
		return nil, entities.ErrMeetingNotFound
	}
	return &m, nil
}

func (r meetingRepo) Transition(ctx context.Context, id uuid.UUID, from, to entities.MeetingStatus) error {
	if !from.CanTransitionTo(to) {
		return entities.ErrInvalidTransition
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.meetings[id]
	if !ok || m.Status != from {
		return entities.ErrInvalidTransition
	}
	now := time.Now()
	m.Status = to
	m.UpdatedAt = now
	if to.IsTerminal() {
		m.ProcessedAt = &now
	}
	r.s.meetings[id] = m
	return nil
}

func (r meetingRepo) SaveTranscript(ctx context.Context, id uuid.UUID, transcript string) error {
	return r.update(id, func(m *entities.Meeting) { m.Transcript = &transcript })
}

func (r meetingRepo) SaveFileURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.update(id, func(m *entities.Meeting) { m.FileURL = &url })
}

// SaveExtraction rejects invalid JSON the way a jsonb column does
func (r meetingRepo) SaveExtraction(ctx context.Context, id uuid.UUID, raw []byte, draftsTotal int) error {
	if !json.Valid(raw) {
		return fmt.Errorf("invalid input syntax for type json")
	}
	return r.update(id, func(m *entities.Meeting) {
		m.ExtractionRaw = append([]byte(nil), raw...)
		m.DraftsTotal = draftsTotal
	})
}

func (r meetingRepo) IncrementDraftsFailed(ctx context.Context, id uuid.UUID) error {
	return r.update(id, func(m *entities.Meeting) { m.DraftsFailed++ })
}

func (r meetingRepo) Heartbeat(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.meetings[id]
	if !ok || m.Status != entities.MeetingStatusProcessing {
		return entities.ErrInvalidTransition
	}
	m.UpdatedAt = time.Now()
	r.s.meetings[id] = m
	return nil
}

func (r meetingRepo) ListStale(ctx context.Context, before time.Time, limit int) ([]*entities.Meeting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entities.Meeting
	for _, m := range r.s.meetings {
		if !m.Status.IsTerminal() && m.UpdatedAt.Before(before) {
			mm := m
			out = append(out, &mm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r meetingRepo) update(id uuid.UUID, fn func(*entities.Meeting)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.meetings[id]
	if !ok {
		return entities.ErrMeetingNotFound
	}
	fn(&m)
	m.UpdatedAt = time.Now()
	r.s.meetings[id] = m
	return nil
}

type taskRepo struct{ s *Store }

// CreateSynced runs sync first and stores the task only when it succeeds
func (r taskRepo) CreateSynced(ctx context.Context, task *entities.Task, sync repositories.SyncFunc) error {
	key, url, err := sync(ctx, task)
	if err != nil {
		return err
	}
	task.MarkSynced(key, url)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	r.s.tasks[task.ID] = *task
	r.s.taskSeq[task.ID] = r.s.seq
	return nil
}

func (r taskRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return r.withAssignee(t), nil
}

func (r taskRepo) Update(ctx context.Context, task *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[task.ID]; !ok {
		return entities.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now()
	r.s.tasks[task.ID] = *task
	return nil
}

func (r taskRepo) ListByTeam(ctx context.Context, teamID uuid.UUID, status *entities.TaskStatus) ([]*entities.Task, error) {
	return r.list(func(t entities.Task) bool {
		return t.TeamID == teamID && (status == nil || t.Status == *status)
	}), nil
}

func (r taskRepo) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]*entities.Task, error) {
	return r.list(func(t entities.Task) bool {
		return t.MeetingID != nil && *t.MeetingID == meetingID
	}), nil
}

func (r taskRepo) list(match func(entities.Task) bool) []*entities.Task {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entities.Task
	for _, t := range r.s.tasks {
		if match(t) {
			out = append(out, r.withAssignee(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.s.taskSeq[out[i].ID] < r.s.taskSeq[out[j].ID] })
	return out
}

func (r taskRepo) withAssignee(t entities.Task) *entities.Task {
	t.Assignee = nil
	if t.AssigneeID != nil {
		if u, ok := r.s.users[*t.AssigneeID]; ok {
			u.Team = nil
			t.Assignee = &u
		}
	}
	return &t
}
