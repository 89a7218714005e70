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
// UPDATE SUBSCRIPTION COMMAND
// Changes the tier or notification preference of a stored subscription.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateSubscriptionCommand contains the requested changes. Empty fields are
// left as they are.
type UpdateSubscriptionCommand struct {
	SubscriptionID string

	// Tier upgrades (or sets) the tier.
	Tier interaction.Tier

	// Downgrade resets the tier to free. It cannot be combined with Tier.
	Downgrade bool

	NotificationLevel interaction.NotificationLevel

	CorrelationID string
}

// Validate validates the command.
func (c UpdateSubscriptionCommand) Validate() error {
	if c.SubscriptionID == "" {
		return errors.New("update_subscription: subscription_id is required")
	}
	if c.Downgrade && c.Tier != "" {
		return errors.New("update_subscription: tier and downgrade are mutually exclusive")
	}
	if !c.Downgrade && c.Tier == "" && c.NotificationLevel == "" {
		return errors.New("update_subscription: nothing to update")
	}
	return nil
}

// UpdateSubscriptionResult contains the subscription state after the update.
type UpdateSubscriptionResult struct {
	SubscriptionID    interaction.RecordID
	PreviousTier      interaction.Tier
	Tier              interaction.Tier
	NotificationLevel interaction.NotificationLevel
	Events            []shared.Event
}

// UpdateSubscriptionHandler handles the UpdateSubscriptionCommand.
type UpdateSubscriptionHandler struct {
	repo           interaction.Repository
	eventPublisher shared.EventPublisher
	clock          clockwork.Clock
	logger         *logger.Logger
}

// NewUpdateSubscriptionHandler creates a new UpdateSubscriptionHandler.
func NewUpdateSubscriptionHandler(
	repo interaction.Repository,
	eventPublisher shared.EventPublisher,
	clock clockwork.Clock,
	log *logger.Logger,
) *UpdateSubscriptionHandler {
	eventPublisher, clock, log = withDefaults(eventPublisher, clock, log)
	return &UpdateSubscriptionHandler{
		repo:           repo,
		eventPublisher: eventPublisher,
		clock:          clock,
		logger:         log.With(logger.Component("update_subscription")),
	}
}

// Handle executes the update subscription command. The changes are applied
// all-or-nothing: an invalid value leaves the subscription untouched.
func (h *UpdateSubscriptionHandler) Handle(ctx context.Context, cmd UpdateSubscriptionCommand) (*UpdateSubscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("update_subscription", "Validate", shared.ErrValidation, "validation failed", err)
	}
	if cmd.Tier != "" && !cmd.Tier.IsValid() {
		return nil, fmt.Errorf("update_subscription: %w", shared.ErrInvalidTier)
	}
	if cmd.NotificationLevel != "" && !cmd.NotificationLevel.IsValid() {
		return nil, fmt.Errorf("update_subscription: %w", shared.ErrInvalidNotificationLevel)
	}

	id := interaction.RecordID(cmd.SubscriptionID)
	result := &UpdateSubscriptionResult{
		SubscriptionID: id,
		Events:         make([]shared.Event, 0, 1),
	}
	var channelID string

	err := h.repo.Update(id, func(r interaction.Record) error {
		s, ok := r.AsSubscription()
		if !ok {
			return shared.ErrNotASubscription
		}
		channelID = s.ChannelID()
		result.PreviousTier = s.Tier()

		switch {
		case cmd.Downgrade:
			s.DowngradeTier()
		case cmd.Tier != "":
			if err := s.UpgradeTier(cmd.Tier); err != nil {
				return err
			}
		}
		if cmd.NotificationLevel != "" {
			if err := s.SetNotificationLevel(cmd.NotificationLevel); err != nil {
				return err
			}
		}

		result.Tier = s.Tier()
		result.NotificationLevel = s.NotificationLevel()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update_subscription: %w", err)
	}

	if result.Tier != result.PreviousTier {
		event := shared.NewTierChangedEvent(id.String(), channelID,
			result.PreviousTier.String(), result.Tier.String(), h.clock.Now().UTC())
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		result.Events = append(result.Events, event)
	}
	publishAll(h.eventPublisher, h.logger, result.Events)

	h.logger.Info("subscription updated",
		logger.RecordID(id.String()),
		logger.String("tier", result.Tier.String()),
		logger.String("notification_level", result.NotificationLevel.String()),
	)

	return result, nil
}
