package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyMeetingID    KeyContext = "meeting_id"
	keyWorkerID     KeyContext = "worker_id"
	keyAttemptStart KeyContext = "attempt_start_time"
)

// ErrPanic marks an error produced by a recovered panic
var ErrPanic = errors.New("panic recovered")

// AttemptMetadata holds metadata for one pipeline attempt
type AttemptMetadata struct {
	MeetingID uuid.UUID
	WorkerID  int
	StartTime time.Time
}

// Elapsed returns the time since the attempt started
func (m AttemptMetadata) Elapsed() time.Duration {
	if m.StartTime.IsZero() {
		return 0
	}
	return time.Since(m.StartTime)
}

// Begin derives an attempt context carrying the meeting and worker identity.
// No deadline is attached; each outbound call bounds itself.
func Begin(parentCtx context.Context, meetingID uuid.UUID, workerID int) context.Context {
	ctx := context.WithValue(parentCtx, keyMeetingID, meetingID)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyAttemptStart, time.Now())
	return ctx
}

// Run executes fn and converts a panic into an error wrapping ErrPanic
func Run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, p, debug.Stack())
		}
	}()

	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before attempt: %w", ctx.Err())
	}

	return fn(ctx)
}

// GetMeetingID extracts meeting ID from context
func GetMeetingID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keyMeetingID).(uuid.UUID)
	return id, ok
}

// GetWorkerID extracts worker ID from context
func GetWorkerID(ctx context.Context) int {
	workerID, ok := ctx.Value(keyWorkerID).(int)
	if !ok {
		return -1
	}
	return workerID
}

// GetAttemptStartTime extracts attempt start time from context
func GetAttemptStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyAttemptStart).(time.Time)
	return startTime, ok
}

// GetAttemptMetadata extracts all attempt metadata from context
func GetAttemptMetadata(ctx context.Context) AttemptMetadata {
	meetingID, _ := GetMeetingID(ctx)
	startTime, _ := GetAttemptStartTime(ctx)

	return AttemptMetadata{
		MeetingID: meetingID,
		WorkerID:  GetWorkerID(ctx),
		StartTime: startTime,
	}
}

// IsRetryableError checks if an error is transient.
// Retryable errors include network errors, timeouts, rate limits and 5xx responses.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}
