package meeting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/metrics"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
	"github.com/johnquangdev/meeting-taskflow/pkg/jobcontext"
)

// Transcriber turns audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Extractor turns a transcript into task drafts and returns the raw reply alongside
type Extractor interface {
	ExtractMany(ctx context.Context, transcript string, roster []string) ([]entities.TaskDraft, string, error)
}

// IssueTracker creates tracker issues on behalf of a user
type IssueTracker interface {
	CreateIssue(ctx context.Context, actor *entities.User, task *entities.Task) (string, error)
	IssueURL(actor *entities.User, issueKey string) string
}

// AudioStore keeps uploaded audio
type AudioStore interface {
	PutAudio(ctx context.Context, key string, data []byte) (string, error)
}

// Submission is the content of one meeting: audio or a ready transcript
type Submission struct {
	FileName   string
	Audio      []byte
	Transcript string
}

// SubmitResult is returned to the submitter before any processing happens
type SubmitResult struct {
	MeetingID uuid.UUID
	Status    entities.MeetingStatus
}

// StatusView is a snapshot of a meeting and the tasks linked to it so far
type StatusView struct {
	Meeting *entities.Meeting
	Tasks   []*entities.Task
}

// Config tunes the pipeline
type Config struct {
	Workers       int
	QueueSize     int
	IsolateDrafts bool
	StaleAfter    time.Duration
	ReapInterval  time.Duration
}

// Deps groups the collaborators of the pipeline. Audio may be nil.
type Deps struct {
	Meetings    repositories.MeetingRepository
	Tasks       repositories.TaskRepository
	Users       repositories.UserRepository
	Transcriber Transcriber
	Extractor   Extractor
	Tracker     IssueTracker
	Audio       AudioStore
	Metrics     *metrics.Metrics
}

// Service runs the meeting-to-tasks pipeline
type Service struct {
	meetings    repositories.MeetingRepository
	tasks       repositories.TaskRepository
	users       repositories.UserRepository
	transcriber Transcriber
	extractor   Extractor
	tracker     IssueTracker
	audio       AudioStore
	metrics     *metrics.Metrics
	cfg         Config
	logger      *zap.Logger

	dispatcher *Dispatcher
	reaper     *Reaper
}

// NewService creates the pipeline with its own worker pool
func NewService(deps Deps, cfg Config, logger *zap.Logger) *Service {
	s := &Service{
		meetings:    deps.Meetings,
		tasks:       deps.Tasks,
		users:       deps.Users,
		transcriber: deps.Transcriber,
		extractor:   deps.Extractor,
		tracker:     deps.Tracker,
		audio:       deps.Audio,
		metrics:     deps.Metrics,
		cfg:         cfg,
		logger:      logger,
	}
	s.dispatcher = NewDispatcher(cfg.Workers, cfg.QueueSize, s.runAttempt, deps.Metrics, logger)
	s.reaper = NewReaper(deps.Meetings, cfg.StaleAfter, cfg.ReapInterval, logger)
	return s
}

// StartWorkerPool starts the workers and the stale-meeting reaper
func (s *Service) StartWorkerPool(ctx context.Context) error {
	if err := s.dispatcher.Start(ctx); err != nil {
		return err
	}
	s.reaper.Start(ctx)
	return nil
}

// StopWorkerPool stops accepting work, drains the queue and stops the reaper
func (s *Service) StopWorkerPool() error {
	s.reaper.Stop()
	return s.dispatcher.Stop()
}

// Submit records a new meeting and queues its attempt. It never waits for processing.
func (s *Service) Submit(ctx context.Context, actor *entities.User, sub Submission) (*SubmitResult, error) {
	if !actor.IsProjectManager() {
		return nil, ucerrors.ErrRoleViolation
	}
	if !actor.HasTeam() {
		return nil, ucerrors.ErrNoTeam
	}
	transcript := strings.TrimSpace(sub.Transcript)
	if transcript == "" && len(sub.Audio) == 0 {
		return nil, ucerrors.ErrEmptyContent
	}

	meeting := entities.NewMeeting(*actor.TeamID, actor.ID, sub.FileName)
	if transcript != "" {
		meeting.Transcript = &transcript
	}
	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}
	s.metrics.MeetingSubmitted()

	if s.logger != nil {
		s.logger.Info("📥 Meeting submitted",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("team_id", meeting.TeamID.String()),
			zap.Bool("audio", transcript == ""),
		)
	}

	job := Job{
		MeetingID:  meeting.ID,
		ActorID:    actor.ID,
		FileName:   sub.FileName,
		Audio:      sub.Audio,
		Transcript: transcript,
	}
	if err := s.dispatcher.Enqueue(job); err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Meeting rejected, pipeline queue is full",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
		}
		if terr := s.meetings.Transition(context.WithoutCancel(ctx), meeting.ID,
			entities.MeetingStatusUploaded, entities.MeetingStatusFailed); terr != nil && s.logger != nil {
			s.logger.Error("failed to mark rejected meeting as failed",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(terr),
			)
		}
		s.metrics.AttemptFinished("rejected", 0)
		return nil, err
	}

	return &SubmitResult{MeetingID: meeting.ID, Status: entities.MeetingStatusProcessing}, nil
}

// GetStatus returns the meeting with whatever tasks it has produced so far
func (s *Service) GetStatus(ctx context.Context, actor *entities.User, meetingID uuid.UUID) (*StatusView, error) {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, entities.ErrMeetingNotFound) {
			return nil, ucerrors.ErrNotFound
		}
		return nil, err
	}
	if !actor.InTeam(meeting.TeamID) {
		return nil, ucerrors.ErrAccessDenied
	}

	tasks, err := s.tasks.ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	return &StatusView{Meeting: meeting, Tasks: tasks}, nil
}

// runAttempt executes one attempt and guarantees the meeting ends in a terminal state
func (s *Service) runAttempt(parent context.Context, workerID int, job Job) {
	ctx, cancel := context.WithCancel(jobcontext.Begin(parent, job.MeetingID, workerID))
	defer cancel()

	if err := s.meetings.Transition(context.WithoutCancel(ctx), job.MeetingID,
		entities.MeetingStatusUploaded, entities.MeetingStatusProcessing); err != nil {
		// Reaped or otherwise finished before a worker picked it up.
		if s.logger != nil {
			s.logger.Warn("⏭️ Meeting not in UPLOADED, skipping attempt",
				zap.String("meeting_id", job.MeetingID.String()),
				zap.Int("worker_id", workerID),
				zap.Error(err),
			)
		}
		return
	}

	stopHeartbeat := s.startHeartbeat(ctx, cancel, job.MeetingID)
	err := jobcontext.Run(ctx, func(ctx context.Context) error {
		return s.Process(ctx, job)
	})
	stopHeartbeat()
	elapsed := jobcontext.GetAttemptMetadata(ctx).Elapsed()

	final := entities.MeetingStatusCompleted
	outcome := "completed"
	if err != nil {
		final = entities.MeetingStatusFailed
		outcome = "failed"
		if s.logger != nil {
			s.logger.Error("❌ Meeting attempt failed",
				zap.String("meeting_id", job.MeetingID.String()),
				zap.Int("worker_id", workerID),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
		}
	}

	if terr := s.meetings.Transition(context.WithoutCancel(ctx), job.MeetingID,
		entities.MeetingStatusProcessing, final); terr != nil {
		if s.logger != nil {
			s.logger.Error("failed to record meeting outcome",
				zap.String("meeting_id", job.MeetingID.String()),
				zap.String("status", string(final)),
				zap.Error(terr),
			)
		}
		return
	}
	s.metrics.AttemptFinished(outcome, elapsed)

	if err == nil && s.logger != nil {
		s.logger.Info("✅ Meeting processed",
			zap.String("meeting_id", job.MeetingID.String()),
			zap.Int("worker_id", workerID),
			zap.Duration("elapsed", elapsed),
		)
	}
}

// startHeartbeat keeps updated_at fresh while the attempt runs so the reaper
// leaves it alone. The attempt is cancelled once the meeting leaves PROCESSING.
func (s *Service) startHeartbeat(ctx context.Context, cancel context.CancelFunc, meetingID uuid.UUID) func() {
	interval := s.cfg.StaleAfter / 3
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := s.meetings.Heartbeat(context.WithoutCancel(ctx), meetingID)
				if err == nil {
					continue
				}
				if errors.Is(err, entities.ErrInvalidTransition) {
					if s.logger != nil {
						s.logger.Warn("🧹 Meeting left PROCESSING, cancelling attempt",
							zap.String("meeting_id", meetingID.String()),
						)
					}
					cancel()
					return
				}
				if s.logger != nil {
					s.logger.Warn("failed to refresh meeting heartbeat",
						zap.String("meeting_id", meetingID.String()),
						zap.Error(err),
					)
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// Process runs the steps of one attempt in order: transcript, extraction, then one
// task per draft in the order the drafts were returned. The caller owns status transitions.
func (s *Service) Process(ctx context.Context, job Job) error {
	actor, err := s.users.FindByID(ctx, job.ActorID)
	if err != nil {
		return fmt.Errorf("load submitter: %w", err)
	}
	meeting, err := s.meetings.FindByID(ctx, job.MeetingID)
	if err != nil {
		return fmt.Errorf("load meeting: %w", err)
	}

	transcript, err := s.transcript(ctx, meeting, job)
	if err != nil {
		return err
	}

	members, err := s.users.ListByTeam(ctx, meeting.TeamID)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	roster := make([]string, 0, len(members))
	for _, m := range members {
		roster = append(roster, m.Username)
	}

	drafts, raw, err := s.extractor.ExtractMany(ctx, transcript, roster)
	if err != nil {
		return fmt.Errorf("extract tasks: %w", err)
	}
	s.metrics.DraftsExtracted(len(drafts))
	if err := s.meetings.SaveExtraction(ctx, meeting.ID, extractionJSON(raw, drafts), len(drafts)); err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}

	for i, draft := range drafts {
		if err := s.meetings.Heartbeat(ctx, meeting.ID); err != nil {
			return fmt.Errorf("meeting %s before draft %d: %w", meeting.ID, i, err)
		}
		if err := s.createTask(ctx, actor, meeting, members, draft); err != nil {
			if !s.cfg.IsolateDrafts {
				return fmt.Errorf("draft %d: %w", i, err)
			}
			if s.logger != nil {
				s.logger.Warn("⚠️ Draft failed, continuing with the next one",
					zap.String("meeting_id", meeting.ID.String()),
					zap.Int("draft", i),
					zap.Error(err),
				)
			}
			if err := s.meetings.IncrementDraftsFailed(ctx, meeting.ID); err != nil {
				return fmt.Errorf("count failed draft: %w", err)
			}
		}
	}
	return nil
}

// extractionJSON returns the reply when it is valid JSON and the parsed drafts otherwise
func extractionJSON(raw string, drafts []entities.TaskDraft) []byte {
	if json.Valid([]byte(raw)) {
		return []byte(raw)
	}
	if drafts == nil {
		drafts = []entities.TaskDraft{}
	}
	data, err := json.Marshal(drafts)
	if err != nil {
		return []byte("[]")
	}
	return data
}

// transcript returns the submitted text, or transcribes the audio and persists the result
func (s *Service) transcript(ctx context.Context, meeting *entities.Meeting, job Job) (string, error) {
	if job.Transcript != "" {
		return job.Transcript, nil
	}

	if s.audio != nil {
		name := job.FileName
		if name == "" {
			name = "audio"
		}
		key := path.Join("meetings", meeting.ID.String(), path.Base(name))
		if url, err := s.audio.PutAudio(ctx, key, job.Audio); err != nil {
			if s.logger != nil {
				s.logger.Warn("⚠️ Failed to store meeting audio",
					zap.String("meeting_id", meeting.ID.String()),
					zap.Error(err),
				)
			}
		} else if err := s.meetings.SaveFileURL(ctx, meeting.ID, url); err != nil {
			return "", fmt.Errorf("save file url: %w", err)
		}
	}

	text, err := s.transcriber.Transcribe(ctx, job.Audio)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if err := s.meetings.SaveTranscript(ctx, meeting.ID, text); err != nil {
		return "", fmt.Errorf("save transcript: %w", err)
	}
	return text, nil
}

// createTask persists one draft as a task and creates its tracker issue in the same unit of work
func (s *Service) createTask(ctx context.Context, actor *entities.User, meeting *entities.Meeting, members []*entities.User, draft entities.TaskDraft) error {
	task := draft.ToTask(meeting.TeamID)
	task.MeetingID = &meeting.ID
	task.AssignTo(ResolveAssignee(members, draft.AssigneeName))

	err := s.tasks.CreateSynced(ctx, task, func(ctx context.Context, t *entities.Task) (string, string, error) {
		key, err := s.tracker.CreateIssue(ctx, actor, t)
		if err != nil {
			return "", "", err
		}
		return key, s.tracker.IssueURL(actor, key), nil
	})
	if err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("📝 Task created from meeting",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("task_id", task.ID.String()),
			zap.String("issue_key", *task.IssueKey),
		)
	}
	return nil
}

// ResolveAssignee finds the roster member whose username equals name exactly.
// No name or no match leaves the task unassigned.
func ResolveAssignee(members []*entities.User, name *string) *entities.User {
	if name == nil {
		return nil
	}
	for _, m := range members {
		if m.Username == *name {
			return m
		}
	}
	return nil
}
