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
// MODERATE COMMAND
// Soft delete, restore, flag, unflag, pin and edit. Every change runs under
// the store lock through Repository.Update.
// ══════════════════════════════════════════════════════════════════════════════

// ModerationAction selects what the moderate command does.
type ModerationAction string

const (
	ModerationDelete  ModerationAction = "delete"
	ModerationRestore ModerationAction = "restore"
	ModerationFlag    ModerationAction = "flag"
	ModerationUnflag  ModerationAction = "unflag"
	ModerationPin     ModerationAction = "pin"
	ModerationUnpin   ModerationAction = "unpin"
	ModerationEdit    ModerationAction = "edit"
)

// commentOnly reports whether the action applies to comments only.
func (a ModerationAction) commentOnly() bool {
	switch a {
	case ModerationFlag, ModerationUnflag, ModerationPin, ModerationUnpin, ModerationEdit:
		return true
	}
	return false
}

// ModerateCommand contains the data for one moderation step.
type ModerateCommand struct {
	RecordID string
	Action   ModerationAction

	// Reason is the tag attached by ModerationFlag.
	Reason string

	// Text is the replacement text for ModerationEdit.
	Text string

	// ActorID, when set, must own the record and the record must be active.
	// Moderators leave it empty.
	ActorID string

	CorrelationID string
}

// Validate validates the command.
func (c ModerateCommand) Validate() error {
	if c.RecordID == "" {
		return errors.New("moderate: record_id is required")
	}

	switch c.Action {
	case ModerationDelete, ModerationRestore, ModerationUnflag, ModerationPin, ModerationUnpin:
	case ModerationFlag:
		if c.Reason == "" {
			return errors.New("moderate: reason is required for flag")
		}
	case ModerationEdit:
		if c.Text == "" {
			return errors.New("moderate: text is required for edit")
		}
	default:
		return fmt.Errorf("moderate: unknown action: %q", c.Action)
	}

	return nil
}

// ModerateResult contains the state after moderation.
type ModerateResult struct {
	RecordID       interaction.RecordID
	Action         ModerationAction
	PreviousStatus interaction.Status
	Status         interaction.Status
	Flags          []string
	Events         []shared.Event
}

// ErrPermissionDenied is returned when the actor may not change the record.
var ErrPermissionDenied = shared.NewDomainError("moderate", "Authorize", shared.ErrInvalidState, "actor may not modify this record")

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ModerateHandler handles the ModerateCommand.
type ModerateHandler struct {
	repo           interaction.Repository
	eventPublisher shared.EventPublisher
	clock          clockwork.Clock
	logger         *logger.Logger
}

// NewModerateHandler creates a new ModerateHandler.
func NewModerateHandler(
	repo interaction.Repository,
	eventPublisher shared.EventPublisher,
	clock clockwork.Clock,
	log *logger.Logger,
) *ModerateHandler {
	eventPublisher, clock, log = withDefaults(eventPublisher, clock, log)
	return &ModerateHandler{
		repo:           repo,
		eventPublisher: eventPublisher,
		clock:          clock,
		logger:         log.With(logger.Component("moderate")),
	}
}

// Handle executes the moderate command.
func (h *ModerateHandler) Handle(ctx context.Context, cmd ModerateCommand) (*ModerateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("moderate", "Validate", shared.ErrValidation, "validation failed", err)
	}

	id := interaction.RecordID(cmd.RecordID)
	result := &ModerateResult{
		RecordID: id,
		Action:   cmd.Action,
		Events:   make([]shared.Event, 0, 1),
	}
	var kind interaction.Kind

	err := h.repo.Update(id, func(r interaction.Record) error {
		if cmd.ActorID != "" && !r.HasPermission(interaction.UserID(cmd.ActorID)) {
			return ErrPermissionDenied
		}

		kind = r.Kind()
		result.PreviousStatus = r.Status()

		var c *interaction.Comment
		if cmd.Action.commentOnly() {
			var ok bool
			if c, ok = r.AsComment(); !ok {
				return shared.ErrNotAComment
			}
		}

		switch cmd.Action {
		case ModerationDelete:
			r.MarkAsDeleted()
		case ModerationRestore:
			r.Restore()
		case ModerationFlag:
			if err := c.AddFlag(cmd.Reason); err != nil {
				return err
			}
		case ModerationUnflag:
			c.ClearFlags()
		case ModerationPin:
			c.Pin()
		case ModerationUnpin:
			c.Unpin()
		case ModerationEdit:
			if err := c.Edit(cmd.Text); err != nil {
				return err
			}
		}

		result.Status = r.Status()
		if c != nil {
			result.Flags = c.Flags()
		}
		return nil
	})
	if err != nil {
		h.logger.Warn("moderation rejected",
			logger.RecordID(cmd.RecordID),
			logger.Operation(string(cmd.Action)),
			logger.Err(err),
		)
		return nil, fmt.Errorf("moderate: %s failed: %w", cmd.Action, err)
	}

	if event := h.eventFor(cmd, kind, result); event != nil {
		result.Events = append(result.Events, event)
	}
	publishAll(h.eventPublisher, h.logger, result.Events)

	h.logger.Info("record moderated",
		logger.RecordID(cmd.RecordID),
		logger.Kind(kind.String()),
		logger.Operation(string(cmd.Action)),
		logger.Status(result.Status.String()),
	)

	return result, nil
}

func (h *ModerateHandler) eventFor(cmd ModerateCommand, kind interaction.Kind, res *ModerateResult) shared.Event {
	now := h.clock.Now().UTC()
	id := res.RecordID.String()

	var event shared.Event
	switch cmd.Action {
	case ModerationDelete:
		event = shared.NewRecordStatusEvent(shared.EventRecordDeleted, id, kind.String(),
			res.PreviousStatus.String(), res.Status.String(), now)
	case ModerationRestore:
		event = shared.NewRecordStatusEvent(shared.EventRecordRestored, id, kind.String(),
			res.PreviousStatus.String(), res.Status.String(), now)
	case ModerationFlag:
		event = shared.NewCommentModeratedEvent(shared.EventCommentFlagged, id, cmd.Reason, res.Flags, now)
	case ModerationUnflag:
		event = shared.NewCommentModeratedEvent(shared.EventCommentUnflagged, id, "", res.Flags, now)
	case ModerationEdit:
		event = shared.NewCommentModeratedEvent(shared.EventCommentEdited, id, "", res.Flags, now)
	default:
		// pin state is not published
		return nil
	}

	if cmd.CorrelationID == "" {
		return event
	}
	switch e := event.(type) {
	case shared.RecordStatusEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		return e
	case shared.CommentModeratedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		return e
	}
	return event
}
