package meeting

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/metrics"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
)

// Job is one queued attempt
type Job struct {
	MeetingID  uuid.UUID
	ActorID    uuid.UUID
	FileName   string
	Audio      []byte
	Transcript string
}

// HandlerFunc runs one attempt on a worker
type HandlerFunc func(ctx context.Context, workerID int, job Job)

// Dispatcher hands attempts from submitters to a fixed pool of workers over a bounded queue
type Dispatcher struct {
	workers int
	queue   chan Job
	handle  HandlerFunc
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher; call Start before enqueueing
func NewDispatcher(workers, queueSize int, handle HandlerFunc, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Dispatcher{
		workers: workers,
		queue:   make(chan Job, queueSize),
		handle:  handle,
		metrics: m,
		logger:  logger,
	}
}

// Start launches the workers. ctx is the parent of every attempt context.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("dispatcher already running")
	}
	if d.closed {
		return fmt.Errorf("dispatcher already stopped")
	}
	d.running = true

	if d.logger != nil {
		d.logger.Info("🚀 Starting meeting worker pool",
			zap.Int("worker_count", d.workers),
			zap.Int("queue_size", cap(d.queue)),
		)
	}

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	return nil
}

// Enqueue queues a job without blocking. It returns ErrQueueFull when no slot is free
// and an error when the dispatcher is not accepting work.
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running || d.closed {
		return fmt.Errorf("%w: dispatcher is not running", ucerrors.ErrQueueFull)
	}

	select {
	case d.queue <- job:
		d.metrics.SetQueueDepth(d.Len())
		return nil
	default:
		return ucerrors.ErrQueueFull
	}
}

// Len returns the number of queued jobs
func (d *Dispatcher) Len() int {
	return len(d.queue)
}

// Stop closes the queue and waits for the workers to drain it
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher not running")
	}
	d.running = false
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info("🛑 Stopping meeting worker pool...")
	}

	d.wg.Wait()

	if d.logger != nil {
		d.logger.Info("✅ Meeting worker pool stopped")
	}
	return nil
}

func (d *Dispatcher) worker(ctx context.Context, workerID int) {
	defer d.wg.Done()

	if d.logger != nil {
		d.logger.Debug("👷 Worker started", zap.Int("worker_id", workerID))
	}

	for job := range d.queue {
		d.metrics.SetQueueDepth(d.Len())
		d.handle(ctx, workerID, job)
	}
}
