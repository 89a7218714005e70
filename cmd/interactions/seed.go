package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alem-hub/interaction-hub/internal/application/command"
	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DATASET LOADING
// ══════════════════════════════════════════════════════════════════════════════

// seedRecord is one interaction in an input file. Only the fields of Kind
// are read. CreatedAt must not go backwards; when it is missing the record
// is stamped one minute after the previous one.
type seedRecord struct {
	ID     string           `json:"id"`
	UserID string           `json:"user_id"`
	Kind   interaction.Kind `json:"kind"`

	TargetContentID string `json:"target_content_id,omitempty"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
	Text            string `json:"text,omitempty"`

	TargetID   string                 `json:"target_id,omitempty"`
	TargetType interaction.TargetType `json:"target_type,omitempty"`
	Polarity   interaction.Polarity   `json:"polarity,omitempty"`

	ChannelID         string                        `json:"channel_id,omitempty"`
	Action            interaction.Action            `json:"action,omitempty"`
	NotificationLevel interaction.NotificationLevel `json:"notification_level,omitempty"`
	Tier              interaction.Tier              `json:"tier,omitempty"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}

func (r seedRecord) command() command.RecordInteractionCommand {
	return command.RecordInteractionCommand{
		ID:                r.ID,
		UserID:            r.UserID,
		Kind:              r.Kind,
		TargetContentID:   r.TargetContentID,
		ParentCommentID:   r.ParentCommentID,
		Text:              r.Text,
		TargetID:          r.TargetID,
		TargetType:        r.TargetType,
		Polarity:          r.Polarity,
		ChannelID:         r.ChannelID,
		Action:            r.Action,
		NotificationLevel: r.NotificationLevel,
		Tier:              r.Tier,
	}
}

// readRecords decodes a JSON array of records.
func readRecords(path string) ([]seedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	var records []seedRecord
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}

// datasetFor returns the --input records, or the demo set when none is given.
func datasetFor(path string) ([]seedRecord, error) {
	if path == "" {
		return demoRecords(), nil
	}
	return readRecords(path)
}

// load records every entry through the record handler so processing,
// counters and events run exactly as for live traffic. Records the handler
// rejects abort the load.
func (a *app) load(ctx context.Context, records []seedRecord) (int, error) {
	flagged := 0
	for i, r := range records {
		if err := a.advanceTo(r.CreatedAt); err != nil {
			return i, fmt.Errorf("record %d (%s): %w", i, r.ID, err)
		}

		res, err := a.record.Handle(ctx, r.command())
		if err != nil {
			return i, fmt.Errorf("record %d (%s): %w", i, r.ID, err)
		}
		if !res.Accepted {
			flagged++
		}
	}

	a.log.Info("dataset loaded",
		logger.Int("records", len(records)),
		logger.Int("flagged", flagged),
		logger.Time("newest", a.stamp.Now()),
	)
	return len(records), nil
}

// advanceTo moves the stamping clock to at, or one minute on when at is zero.
func (a *app) advanceTo(at time.Time) error {
	now := a.stamp.Now()
	if at.IsZero() {
		if now.Equal(stampEpoch) {
			a.stamp.Advance(time.Now().Truncate(time.Minute).Sub(now))
			return nil
		}
		a.stamp.Advance(time.Minute)
		return nil
	}
	if at.Before(now) {
		return fmt.Errorf("created_at %s is before the previous record (%s)",
			at.Format(time.RFC3339), now.Format(time.RFC3339))
	}
	a.stamp.Advance(at.Sub(now))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DEMO DATASET
// ══════════════════════════════════════════════════════════════════════════════

// demoStart anchors the demo set so its reports are reproducible.
var demoStart = time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC)

// demoRecords spreads a small catalog over five days: two videos, two
// channels, a reply thread, two comments the spam heuristic catches and
// likes on both videos and comments.
func demoRecords() []seedRecord {
	at := func(hours int) time.Time { return demoStart.Add(time.Duration(hours) * time.Hour) }

	return []seedRecord{
		{ID: "c1", UserID: "u1", Kind: interaction.KindComment, TargetContentID: "v1", Text: "Bu bir test yorumudur", CreatedAt: at(0)},
		{ID: "l1", UserID: "u2", Kind: interaction.KindLike, TargetID: "v1", TargetType: interaction.TargetVideo, Polarity: interaction.PolarityLike, CreatedAt: at(1)},
		{ID: "s1", UserID: "u3", Kind: interaction.KindSubscription, ChannelID: "ch1", CreatedAt: at(2)},
		{ID: "c2", UserID: "u2", Kind: interaction.KindComment, TargetContentID: "v1", Text: "Great walkthrough of #golang channels, thanks @u1 #tutorial", CreatedAt: at(9)},
		{ID: "l2", UserID: "u3", Kind: interaction.KindLike, TargetID: "c2", TargetType: interaction.TargetComment, Polarity: interaction.PolarityLike, CreatedAt: at(11)},
		{ID: "c3", UserID: "u6", Kind: interaction.KindComment, TargetContentID: "v2", Text: "free stuff http://a.example http://b.example http://c.example", CreatedAt: at(20)},
		{ID: "c4", UserID: "u4", Kind: interaction.KindComment, TargetContentID: "v1", ParentCommentID: "c2", Text: "@u2 agreed, the select example was the best part #golang", CreatedAt: at(26)},
		{ID: "l3", UserID: "u4", Kind: interaction.KindLike, TargetID: "c2", TargetType: interaction.TargetComment, Polarity: interaction.PolarityLike, CreatedAt: at(27)},
		{ID: "s2", UserID: "u4", Kind: interaction.KindSubscription, ChannelID: "ch1", Tier: interaction.TierPremium, NotificationLevel: interaction.NotifyPersonalized, CreatedAt: at(30)},
		{ID: "l4", UserID: "u5", Kind: interaction.KindLike, TargetID: "c1", TargetType: interaction.TargetComment, Polarity: interaction.PolarityDislike, CreatedAt: at(44)},
		{ID: "c5", UserID: "u5", Kind: interaction.KindComment, TargetContentID: "v2", Text: "Soooooooo good", CreatedAt: at(50)},
		{ID: "l5", UserID: "u1", Kind: interaction.KindLike, TargetID: "v2", TargetType: interaction.TargetVideo, Polarity: interaction.PolarityDislike, CreatedAt: at(52)},
		{ID: "s3", UserID: "u5", Kind: interaction.KindSubscription, ChannelID: "ch2", Action: interaction.ActionUnsubscribe, CreatedAt: at(60)},
		{ID: "c6", UserID: "u1", Kind: interaction.KindComment, TargetContentID: "v2", Text: "The docs at https://go.dev are the best place to start #golang", CreatedAt: at(74)},
		{ID: "l6", UserID: "u3", Kind: interaction.KindLike, TargetID: "v1", TargetType: interaction.TargetVideo, Polarity: interaction.PolarityLike, CreatedAt: at(75)},
		{ID: "l7", UserID: "u4", Kind: interaction.KindLike, TargetID: "c6", TargetType: interaction.TargetComment, Polarity: interaction.PolarityLike, CreatedAt: at(80)},
		{ID: "s4", UserID: "u1", Kind: interaction.KindSubscription, ChannelID: "ch2", Tier: interaction.TierBasic, CreatedAt: at(96)},
		{ID: "l8", UserID: "u6", Kind: interaction.KindLike, TargetID: "v2", TargetType: interaction.TargetVideo, Polarity: interaction.PolarityLike, CreatedAt: at(100)},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEMO MODERATION PASS
// ══════════════════════════════════════════════════════════════════════════════

// demoStep is one moderation or update applied after the demo set is loaded.
type demoStep struct {
	name string
	run  func(ctx context.Context) error
}

// demoSteps exercises every write path once. A moderator clears and
// restores one heuristic hit, deletes the other and pins a comment. The
// author of c1 edits it, a dislike is flipped and two subscriptions change.
func (a *app) demoSteps() []demoStep {
	moderate := func(cmd command.ModerateCommand) func(context.Context) error {
		return func(ctx context.Context) error {
			_, err := a.moderate.Handle(ctx, cmd)
			return err
		}
	}

	return []demoStep{
		{"unflag c5", moderate(command.ModerateCommand{RecordID: "c5", Action: command.ModerationUnflag})},
		{"restore c5", moderate(command.ModerateCommand{RecordID: "c5", Action: command.ModerationRestore})},
		{"delete c3", moderate(command.ModerateCommand{RecordID: "c3", Action: command.ModerationDelete})},
		{"pin c2", moderate(command.ModerateCommand{RecordID: "c2", Action: command.ModerationPin})},
		{"edit c1", moderate(command.ModerateCommand{
			RecordID: "c1", Action: command.ModerationEdit, ActorID: "u1",
			Text: "Bu bir test yorumudur #ilk",
		})},
		{"toggle l4", func(ctx context.Context) error {
			_, err := a.toggleLike.Handle(ctx, command.ToggleLikeCommand{LikeID: "l4"})
			return err
		}},
		{"upgrade s1", func(ctx context.Context) error {
			_, err := a.updateSubscription.Handle(ctx, command.UpdateSubscriptionCommand{
				SubscriptionID: "s1", Tier: interaction.TierPremium,
			})
			return err
		}},
		{"mute s2", func(ctx context.Context) error {
			_, err := a.updateSubscription.Handle(ctx, command.UpdateSubscriptionCommand{
				SubscriptionID: "s2", NotificationLevel: interaction.NotifyNone,
			})
			return err
		}},
	}
}

// runDemoSteps applies the moderation pass one minute apart.
func (a *app) runDemoSteps(ctx context.Context) error {
	for _, step := range a.demoSteps() {
		a.stamp.Advance(time.Minute)
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("demo step %q: %w", step.name, err)
		}
		a.log.Debug("demo step applied", logger.String("step", step.name))
	}
	return nil
}
