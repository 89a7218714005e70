package eventhandler

import (
	"sort"
	"sync"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON COMMENT FLAGGED HANDLER
// Keeps the moderation queue: comments that were flagged at processing time
// or by a moderator and have not been unflagged or deleted since.
// ═══════════════════════════════════════════════════════════════════════════

// flaggedStatus mirrors interaction.StatusFlagged without importing the domain.
const flaggedStatus = "flagged"

// QueueEntry is a comment waiting for review.
type QueueEntry struct {
	CommentID string   `json:"comment_id"`
	Reason    string   `json:"reason,omitempty"`
	Flags     []string `json:"flags,omitempty"`
}

// ModerationQueue collects comments that need a moderator.
type ModerationQueue struct {
	mu      sync.Mutex
	entries map[string]QueueEntry

	// spamReview queues comments flagged by the spam heuristic at
	// processing time. Moderator flags are always queued.
	spamReview bool

	log *logger.Logger
}

// QueueOption configures a ModerationQueue.
type QueueOption func(*ModerationQueue)

// WithoutSpamReview stops the queue from collecting comments the heuristic
// flagged. They stay flagged in the store.
func WithoutSpamReview() QueueOption {
	return func(q *ModerationQueue) { q.spamReview = false }
}

// NewModerationQueue creates an empty queue.
func NewModerationQueue(log *logger.Logger, opts ...QueueOption) *ModerationQueue {
	if log == nil {
		log = logger.Nop()
	}
	q := &ModerationQueue{
		entries:    make(map[string]QueueEntry),
		spamReview: true,
		log:        log.With(logger.Component("moderation_queue")),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Attach subscribes the queue to the events that change it.
func (q *ModerationQueue) Attach(bus shared.EventSubscriber) error {
	for _, t := range []shared.EventType{
		shared.EventRecordProcessed,
		shared.EventCommentFlagged,
		shared.EventCommentUnflagged,
		shared.EventRecordDeleted,
	} {
		if err := bus.Subscribe(t, q.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle implements shared.EventHandler.
func (q *ModerationQueue) Handle(event shared.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch e := event.(type) {
	case shared.RecordProcessedEvent:
		if q.spamReview && e.Kind == "comment" && e.Status == flaggedStatus {
			q.enqueue(QueueEntry{CommentID: e.AggregateID(), Reason: "processing", Flags: e.Flags})
		}
	case shared.CommentModeratedEvent:
		switch e.EventType() {
		case shared.EventCommentFlagged:
			q.enqueue(QueueEntry{CommentID: e.AggregateID(), Reason: e.Reason, Flags: e.Flags})
		case shared.EventCommentUnflagged:
			delete(q.entries, e.AggregateID())
		}
	case shared.RecordStatusEvent:
		delete(q.entries, e.AggregateID())
	}
	return nil
}

func (q *ModerationQueue) enqueue(entry QueueEntry) {
	if _, exists := q.entries[entry.CommentID]; !exists {
		q.log.Info("comment queued for review",
			logger.RecordID(entry.CommentID),
			logger.String("reason", entry.Reason),
		)
	}
	q.entries[entry.CommentID] = entry
}

// Pending returns the queued comments ordered by id.
func (q *ModerationQueue) Pending() []QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]QueueEntry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommentID < out[j].CommentID })
	return out
}

// Len returns the queue size.
func (q *ModerationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
