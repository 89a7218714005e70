// Package eventhandler contains subscribers that react to interaction events.
package eventhandler

import (
	"sync"
	"time"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RECORD CHANGED HANDLER
// Tracks whether the published projections (Redis ranking, archive) are
// behind the store. Every interaction event changes at least one derived
// aggregate, so the tracker listens to all of them.
// ═══════════════════════════════════════════════════════════════════════════

// ProjectionTracker counts changes since the last successful publish.
type ProjectionTracker struct {
	mu         sync.Mutex
	pending    int
	byType     map[shared.EventType]int
	lastChange time.Time

	log *logger.Logger
}

// NewProjectionTracker creates a tracker. A nil logger discards output.
func NewProjectionTracker(log *logger.Logger) *ProjectionTracker {
	if log == nil {
		log = logger.Nop()
	}
	return &ProjectionTracker{
		byType: make(map[shared.EventType]int),
		log:    log.With(logger.Component("projection_tracker")),
	}
}

// Attach subscribes the tracker to every event on bus.
func (t *ProjectionTracker) Attach(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(t.Handle)
}

// Handle implements shared.EventHandler.
func (t *ProjectionTracker) Handle(event shared.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending++
	t.byType[event.EventType()]++
	if at := event.OccurredAt(); at.After(t.lastChange) {
		t.lastChange = at
	}
	return nil
}

// Dirty reports whether anything changed since MarkPublished.
func (t *ProjectionTracker) Dirty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending > 0
}

// Pending returns the number of events since MarkPublished, by type.
func (t *ProjectionTracker) Pending() (int, map[shared.EventType]int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	byType := make(map[shared.EventType]int, len(t.byType))
	for k, v := range t.byType {
		byType[k] = v
	}
	return t.pending, byType
}

// LastChange returns the timestamp of the newest event seen.
func (t *ProjectionTracker) LastChange() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastChange
}

// MarkPublished resets the pending counters.
func (t *ProjectionTracker) MarkPublished() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending > 0 {
		t.log.Debug("projection caught up", logger.Int("events", t.pending))
	}
	t.pending = 0
	t.byType = make(map[shared.EventType]int)
}
