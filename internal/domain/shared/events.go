// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents a write that happened to the
// interaction store; read-side projections and metrics subscribe to them.
const (
	// Record lifecycle events
	EventRecordAdded     EventType = "interaction.added"
	EventRecordProcessed EventType = "interaction.processed"
	EventRecordDeleted   EventType = "interaction.deleted"
	EventRecordRestored  EventType = "interaction.restored"

	// Moderation events
	EventCommentFlagged   EventType = "moderation.comment_flagged"
	EventCommentUnflagged EventType = "moderation.comment_unflagged"
	EventCommentEdited    EventType = "moderation.comment_edited"

	// Reaction events
	EventLikeToggled EventType = "reaction.like_toggled"

	// Subscription events
	EventTierChanged EventType = "subscription.tier_changed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event stamped with the given time.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// Base returns the embedded metadata.
func (e BaseEvent) Base() BaseEvent {
	return e
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Record Events
// ═══════════════════════════════════════════════════════════════════════════

// RecordAddedEvent is emitted when a record is appended to the store.
type RecordAddedEvent struct {
	BaseEvent
	Kind   string `json:"kind"`
	UserID string `json:"user_id"`
}

// Payload implements Event interface.
func (e RecordAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"record_id": e.AggregateId,
		"kind":      e.Kind,
		"user_id":   e.UserID,
	}
}

// NewRecordAddedEvent creates a new RecordAddedEvent.
func NewRecordAddedEvent(recordID, kind, userID string, at time.Time) RecordAddedEvent {
	return RecordAddedEvent{
		BaseEvent: NewBaseEvent(EventRecordAdded, recordID, at),
		Kind:      kind,
		UserID:    userID,
	}
}

// RecordProcessedEvent is emitted after a record ran its processing step.
type RecordProcessedEvent struct {
	BaseEvent
	Kind     string   `json:"kind"`
	Accepted bool     `json:"accepted"`
	Status   string   `json:"status"`
	Flags    []string `json:"flags,omitempty"`
}

// Payload implements Event interface.
func (e RecordProcessedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"record_id": e.AggregateId,
		"kind":      e.Kind,
		"accepted":  e.Accepted,
		"status":    e.Status,
		"flags":     e.Flags,
	}
}

// NewRecordProcessedEvent creates a new RecordProcessedEvent.
func NewRecordProcessedEvent(recordID, kind string, accepted bool, status string, flags []string, at time.Time) RecordProcessedEvent {
	return RecordProcessedEvent{
		BaseEvent: NewBaseEvent(EventRecordProcessed, recordID, at),
		Kind:      kind,
		Accepted:  accepted,
		Status:    status,
		Flags:     flags,
	}
}

// RecordStatusEvent is emitted on soft delete and restore.
type RecordStatusEvent struct {
	BaseEvent
	Kind           string `json:"kind"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
}

// Payload implements Event interface.
func (e RecordStatusEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"record_id":       e.AggregateId,
		"kind":            e.Kind,
		"previous_status": e.PreviousStatus,
		"status":          e.Status,
	}
}

// NewRecordStatusEvent creates a status change event of the given type.
func NewRecordStatusEvent(eventType EventType, recordID, kind, previous, current string, at time.Time) RecordStatusEvent {
	return RecordStatusEvent{
		BaseEvent:      NewBaseEvent(eventType, recordID, at),
		Kind:           kind,
		PreviousStatus: previous,
		Status:         current,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Moderation Events
// ═══════════════════════════════════════════════════════════════════════════

// CommentModeratedEvent is emitted when a comment is flagged, unflagged or edited.
type CommentModeratedEvent struct {
	BaseEvent
	Reason string   `json:"reason,omitempty"`
	Flags  []string `json:"flags,omitempty"`
}

// Payload implements Event interface.
func (e CommentModeratedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"comment_id": e.AggregateId,
		"reason":     e.Reason,
		"flags":      e.Flags,
	}
}

// NewCommentModeratedEvent creates a moderation event of the given type.
func NewCommentModeratedEvent(eventType EventType, commentID, reason string, flags []string, at time.Time) CommentModeratedEvent {
	return CommentModeratedEvent{
		BaseEvent: NewBaseEvent(eventType, commentID, at),
		Reason:    reason,
		Flags:     flags,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Reaction & Subscription Events
// ═══════════════════════════════════════════════════════════════════════════

// LikeToggledEvent is emitted when a like flips polarity.
type LikeToggledEvent struct {
	BaseEvent
	TargetID   string `json:"target_id"`
	TargetType string `json:"target_type"`
	Polarity   string `json:"polarity"`
}

// Payload implements Event interface.
func (e LikeToggledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"like_id":     e.AggregateId,
		"target_id":   e.TargetID,
		"target_type": e.TargetType,
		"polarity":    e.Polarity,
	}
}

// NewLikeToggledEvent creates a new LikeToggledEvent.
func NewLikeToggledEvent(likeID, targetID, targetType, polarity string, at time.Time) LikeToggledEvent {
	return LikeToggledEvent{
		BaseEvent:  NewBaseEvent(EventLikeToggled, likeID, at),
		TargetID:   targetID,
		TargetType: targetType,
		Polarity:   polarity,
	}
}

// TierChangedEvent is emitted when a subscription tier changes.
type TierChangedEvent struct {
	BaseEvent
	ChannelID    string `json:"channel_id"`
	PreviousTier string `json:"previous_tier"`
	Tier         string `json:"tier"`
}

// Payload implements Event interface.
func (e TierChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"subscription_id": e.AggregateId,
		"channel_id":      e.ChannelID,
		"previous_tier":   e.PreviousTier,
		"tier":            e.Tier,
	}
}

// NewTierChangedEvent creates a new TierChangedEvent.
func NewTierChangedEvent(subscriptionID, channelID, previous, current string, at time.Time) TierChangedEvent {
	return TierChangedEvent{
		BaseEvent:    NewBaseEvent(EventTierChanged, subscriptionID, at),
		ChannelID:    channelID,
		PreviousTier: previous,
		Tier:         current,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope serializes event for transport. Events embedding
// BaseEvent keep their id and correlation id.
func NewEventEnvelope(event Event) (EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}

	env := EventEnvelope{
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Payload:     payload,
	}
	if b, ok := event.(interface{ Base() BaseEvent }); ok {
		base := b.Base()
		env.ID = base.ID
		env.Version = base.Version
		env.CorrelationID = base.CorrelationID
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	return env, nil
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(Event) error { return nil }
