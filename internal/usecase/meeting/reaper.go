package meeting

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/repositories"
)

const reapBatchSize = 100

// Reaper fails meetings left in UPLOADED or PROCESSING longer than staleAfter.
// Attempts do not survive a restart, so this is what brings such meetings to a terminal state.
type Reaper struct {
	meetings   repositories.MeetingRepository
	staleAfter time.Duration
	interval   time.Duration
	logger     *zap.Logger
	now        func() time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewReaper creates a reaper. A non-positive staleAfter disables it.
func NewReaper(meetings repositories.MeetingRepository, staleAfter, interval time.Duration, logger *zap.Logger) *Reaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reaper{
		meetings:   meetings,
		staleAfter: staleAfter,
		interval:   interval,
		logger:     logger,
		now:        time.Now,
		stopChan:   make(chan struct{}),
	}
}

// Start reaps once immediately, then on every interval until Stop
func (r *Reaper) Start(ctx context.Context) {
	if r.staleAfter <= 0 {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.ReapOnce(ctx)
		for {
			select {
			case <-r.stopChan:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.ReapOnce(ctx)
			}
		}
	}()
}

// Stop stops the background loop
func (r *Reaper) Stop() {
	r.once.Do(func() { close(r.stopChan) })
	r.wg.Wait()
}

// ReapOnce fails every stale meeting and returns how many were failed
func (r *Reaper) ReapOnce(ctx context.Context) int {
	cutoff := r.now().Add(-r.staleAfter)
	stale, err := r.meetings.ListStale(ctx, cutoff, reapBatchSize)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("❌ Failed to list stale meetings", zap.Error(err))
		}
		return 0
	}

	reaped := 0
	for _, m := range stale {
		if err := r.meetings.Transition(ctx, m.ID, m.Status, entities.MeetingStatusFailed); err != nil {
			// The owning attempt moved it first.
			continue
		}
		reaped++
		if r.logger != nil {
			r.logger.Warn("🧹 Failed stale meeting",
				zap.String("meeting_id", m.ID.String()),
				zap.String("was", string(m.Status)),
				zap.Time("updated_at", m.UpdatedAt),
			)
		}
	}
	return reaped
}
