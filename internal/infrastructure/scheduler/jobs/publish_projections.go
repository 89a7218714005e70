// Package jobs contains the scheduled jobs of the interaction hub.
package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/alem-hub/interaction-hub/internal/application/projection"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUBLISH PROJECTIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// Publisher is the part of projection.Publisher the job needs.
type Publisher interface {
	Publish(ctx context.Context, force bool) (*projection.PublishResult, error)
}

// PublishProjectionsJobName is the scheduler name of PublishProjectionsJob.
const PublishProjectionsJobName = "publish_projections"

// PublishProjectionsJob pushes the rankings and the archive when the store
// changed since the last successful publish.
type PublishProjectionsJob struct {
	publisher Publisher
	timeout   time.Duration
	logger    *logger.Logger

	last atomic.Pointer[projection.PublishResult]
}

// NewPublishProjectionsJob creates the job. A zero timeout means none.
func NewPublishProjectionsJob(publisher Publisher, timeout time.Duration, log *logger.Logger) *PublishProjectionsJob {
	if log == nil {
		log = logger.Nop()
	}
	return &PublishProjectionsJob{
		publisher: publisher,
		timeout:   timeout,
		logger:    log.With(logger.Component("publish_projections")),
	}
}

// Name returns the job name.
func (j *PublishProjectionsJob) Name() string {
	return PublishProjectionsJobName
}

// Description returns a human-readable description.
func (j *PublishProjectionsJob) Description() string {
	return "Publishes comment rankings, daily activity and archived views when the store changed"
}

// Run executes the job. A partially failed publish is reported as an error
// so the scheduler counts it; the publisher stays dirty and retries next tick.
func (j *PublishProjectionsJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	result, err := j.publisher.Publish(ctx, false)
	if result != nil {
		j.last.Store(result)
	}
	if err != nil {
		if errors.Is(err, projection.ErrPublishIncomplete) {
			j.logger.Warn("publish incomplete, will retry on next run", logger.Err(err))
		}
		return err
	}

	if !result.Skipped {
		j.logger.Info("projections published",
			logger.Int64("version", result.Version),
			logger.Int("sinks", len(result.Sinks)),
		)
	}
	return nil
}

// LastResult returns the result of the most recent run, or nil.
func (j *PublishProjectionsJob) LastResult() *projection.PublishResult {
	return j.last.Load()
}
