// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/internal/domain/shared"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD INTERACTION COMMAND
// Adds a comment, like or subscription to the store and runs its processing
// step so counters and moderation status are settled in one call.
// ══════════════════════════════════════════════════════════════════════════════

// RecordInteractionCommand contains the data to record one interaction.
// Only the fields of the selected Kind are read.
type RecordInteractionCommand struct {
	// ID is the record id. A random UUID is generated when empty.
	ID string

	// UserID is the author of the interaction.
	UserID string

	// Kind selects the variant.
	Kind interaction.Kind

	// Comment fields.
	TargetContentID string
	ParentCommentID string
	Text            string

	// Like fields.
	TargetID   string
	TargetType interaction.TargetType
	Polarity   interaction.Polarity

	// Subscription fields. Empty values fall back to subscribe / all / free.
	ChannelID         string
	Action            interaction.Action
	NotificationLevel interaction.NotificationLevel
	Tier              interaction.Tier

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordInteractionCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return errors.New("record_interaction: user_id is required")
	}

	switch c.Kind {
	case interaction.KindComment:
		if strings.TrimSpace(c.TargetContentID) == "" {
			return errors.New("record_interaction: target_content_id is required for comments")
		}
	case interaction.KindLike:
		if strings.TrimSpace(c.TargetID) == "" {
			return errors.New("record_interaction: target_id is required for likes")
		}
	case interaction.KindSubscription:
		if strings.TrimSpace(c.ChannelID) == "" {
			return errors.New("record_interaction: channel_id is required for subscriptions")
		}
	default:
		return fmt.Errorf("record_interaction: unknown interaction kind: %q", c.Kind)
	}

	return nil
}

// RecordInteractionResult contains the result of recording an interaction.
type RecordInteractionResult struct {
	// RecordID is the id the record was stored under.
	RecordID interaction.RecordID

	// Kind is the variant recorded.
	Kind interaction.Kind

	// Accepted is the outcome of processing. False means the record was flagged.
	Accepted bool

	// Status is the record status after processing.
	Status interaction.Status

	// Flags holds the moderation tags of a comment.
	Flags []string

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordInteractionHandler handles the RecordInteractionCommand.
type RecordInteractionHandler struct {
	repo           interaction.Repository
	eventPublisher shared.EventPublisher
	clock          clockwork.Clock
	logger         *logger.Logger
}

// NewRecordInteractionHandler creates a new RecordInteractionHandler.
// A nil publisher, clock or logger falls back to a no-op, real clock and
// silent logger respectively.
func NewRecordInteractionHandler(
	repo interaction.Repository,
	eventPublisher shared.EventPublisher,
	clock clockwork.Clock,
	log *logger.Logger,
) *RecordInteractionHandler {
	eventPublisher, clock, log = withDefaults(eventPublisher, clock, log)
	return &RecordInteractionHandler{
		repo:           repo,
		eventPublisher: eventPublisher,
		clock:          clock,
		logger:         log.With(logger.Component("record_interaction")),
	}
}

// Handle executes the record interaction command.
func (h *RecordInteractionHandler) Handle(ctx context.Context, cmd RecordInteractionCommand) (*RecordInteractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("record_interaction", "Validate", shared.ErrValidation, "validation failed", err)
	}

	id := interaction.RecordID(cmd.ID)
	if id == "" {
		id = interaction.RecordID(uuid.NewString())
	}
	now := h.clock.Now().UTC()

	record, err := h.build(id, now, cmd)
	if err != nil {
		return nil, fmt.Errorf("record_interaction: failed to build %s: %w", cmd.Kind, err)
	}

	if err := h.repo.Add(record); err != nil {
		h.logger.Warn("add rejected",
			logger.RecordID(id.String()),
			logger.Kind(cmd.Kind.String()),
			logger.Err(err),
		)
		return nil, fmt.Errorf("record_interaction: failed to add record: %w", err)
	}

	accepted, err := h.repo.Process(id)
	if err != nil {
		return nil, fmt.Errorf("record_interaction: failed to process record: %w", err)
	}

	result := &RecordInteractionResult{
		RecordID: id,
		Kind:     cmd.Kind,
		Accepted: accepted,
		Status:   record.Status(),
		Events:   make([]shared.Event, 0, 2),
	}
	if c, ok := record.AsComment(); ok {
		result.Flags = c.Flags()
	}

	if parent := interaction.RecordID(cmd.ParentCommentID); cmd.Kind == interaction.KindComment && parent != "" {
		h.bumpReplyCount(parent)
	}

	added := shared.NewRecordAddedEvent(id.String(), cmd.Kind.String(), cmd.UserID, now)
	processed := shared.NewRecordProcessedEvent(id.String(), cmd.Kind.String(), accepted, result.Status.String(), result.Flags, now)
	if cmd.CorrelationID != "" {
		added.BaseEvent = added.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		processed.BaseEvent = processed.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, added, processed)
	publishAll(h.eventPublisher, h.logger, result.Events)

	outcome := "accepted"
	if !accepted {
		outcome = "flagged"
	}
	h.logger.Info("interaction recorded",
		logger.RecordID(id.String()),
		logger.UserID(cmd.UserID),
		logger.Kind(cmd.Kind.String()),
		logger.Outcome(outcome),
	)

	return result, nil
}

func (h *RecordInteractionHandler) build(id interaction.RecordID, now time.Time, cmd RecordInteractionCommand) (interaction.Record, error) {
	user := interaction.UserID(cmd.UserID)

	switch cmd.Kind {
	case interaction.KindComment:
		var opts []interaction.CommentOption
		if cmd.ParentCommentID != "" {
			opts = append(opts, interaction.WithParent(interaction.RecordID(cmd.ParentCommentID)))
		}
		return interaction.NewComment(id, user, cmd.TargetContentID, cmd.Text, now, opts...)

	case interaction.KindLike:
		targetType := cmd.TargetType
		if targetType == "" {
			targetType = interaction.TargetVideo
		}
		polarity := cmd.Polarity
		if polarity == "" {
			polarity = interaction.PolarityLike
		}
		return interaction.NewLike(id, user, cmd.TargetID, targetType, polarity, now)

	default:
		var opts []interaction.SubscriptionOption
		if cmd.Action != "" {
			opts = append(opts, interaction.WithAction(cmd.Action))
		}
		if cmd.NotificationLevel != "" {
			opts = append(opts, interaction.WithNotificationLevel(cmd.NotificationLevel))
		}
		if cmd.Tier != "" {
			opts = append(opts, interaction.WithTier(cmd.Tier))
		}
		return interaction.NewSubscription(id, user, cmd.ChannelID, now, opts...)
	}
}

// bumpReplyCount increments the reply counter of parent when it is a stored
// comment. A missing parent is logged and otherwise ignored.
func (h *RecordInteractionHandler) bumpReplyCount(parent interaction.RecordID) {
	err := h.repo.Update(parent, func(r interaction.Record) error {
		c, ok := r.AsComment()
		if !ok {
			return shared.ErrNotAComment
		}
		c.AddReply()
		return nil
	})
	if err != nil {
		h.logger.Warn("reply parent not updated",
			logger.RecordID(parent.String()),
			logger.Err(err),
		)
	}
}
