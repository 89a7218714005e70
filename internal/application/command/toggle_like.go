package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/internal/domain/shared"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOGGLE LIKE COMMAND
// Flips a stored like between like and dislike. A processed like moves one
// unit between the store's like and dislike totals.
// ══════════════════════════════════════════════════════════════════════════════

// ToggleLikeCommand identifies the like to flip.
type ToggleLikeCommand struct {
	LikeID        string
	CorrelationID string
}

// Validate validates the command.
func (c ToggleLikeCommand) Validate() error {
	if c.LikeID == "" {
		return errors.New("toggle_like: like_id is required")
	}
	return nil
}

// ToggleLikeResult contains the like state after the flip.
type ToggleLikeResult struct {
	LikeID   interaction.RecordID
	Polarity interaction.Polarity
	Counters interaction.CounterSnapshot
	Event    shared.Event
}

// ToggleLikeHandler handles the ToggleLikeCommand.
type ToggleLikeHandler struct {
	repo           interaction.Repository
	eventPublisher shared.EventPublisher
	clock          clockwork.Clock
	logger         *logger.Logger
}

// NewToggleLikeHandler creates a new ToggleLikeHandler.
func NewToggleLikeHandler(
	repo interaction.Repository,
	eventPublisher shared.EventPublisher,
	clock clockwork.Clock,
	log *logger.Logger,
) *ToggleLikeHandler {
	eventPublisher, clock, log = withDefaults(eventPublisher, clock, log)
	return &ToggleLikeHandler{
		repo:           repo,
		eventPublisher: eventPublisher,
		clock:          clock,
		logger:         log.With(logger.Component("toggle_like")),
	}
}

// Handle executes the toggle like command.
func (h *ToggleLikeHandler) Handle(ctx context.Context, cmd ToggleLikeCommand) (*ToggleLikeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("toggle_like", "Validate", shared.ErrValidation, "validation failed", err)
	}

	id := interaction.RecordID(cmd.LikeID)
	var (
		polarity   interaction.Polarity
		targetID   string
		targetType interaction.TargetType
	)

	err := h.repo.Update(id, func(r interaction.Record) error {
		l, ok := r.AsLike()
		if !ok {
			return shared.ErrNotALike
		}
		polarity = l.Toggle()
		targetID = l.TargetID()
		targetType = l.TargetType()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("toggle_like: %w", err)
	}

	event := shared.NewLikeToggledEvent(id.String(), targetID, targetType.String(), polarity.String(), h.clock.Now().UTC())
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	publishAll(h.eventPublisher, h.logger, []shared.Event{event})

	h.logger.Info("like toggled",
		logger.RecordID(id.String()),
		logger.String("polarity", polarity.String()),
	)

	return &ToggleLikeResult{
		LikeID:   id,
		Polarity: polarity,
		Counters: h.repo.Counters(),
		Event:    event,
	}, nil
}
