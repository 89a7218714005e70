package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/alem-hub/interaction-hub/internal/application/eventhandler"
	"github.com/alem-hub/interaction-hub/internal/application/projection"
	"github.com/alem-hub/interaction-hub/internal/application/query"
	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
)

// demoOutput is what the demo command prints.
type demoOutput struct {
	Loaded          int                         `json:"loaded"`
	Report          any                         `json:"report"`
	Counters        interaction.CounterSnapshot `json:"counters"`
	ModerationQueue []eventhandler.QueueEntry   `json:"moderation_queue"`
	Publish         *projection.PublishResult   `json:"publish,omitempty"`
}

func runDemo(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	a, err := newApp(ctx, appConfig, appLogger, appOptions{connectSinks: demoPublish})
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := datasetFor(inputFile)
	if err != nil {
		return err
	}

	// The moderation pass addresses demo ids, so it only runs on the demo set.
	out, err := a.demo(ctx, records, inputFile == "", demoPublish)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

// demo loads records, optionally applies the moderation pass and renders
// the full report.
func (a *app) demo(ctx context.Context, records []seedRecord, moderationPass, publish bool) (*demoOutput, error) {
	n, err := a.load(ctx, records)
	if err != nil {
		return nil, err
	}
	if moderationPass {
		if err := a.runDemoSteps(ctx); err != nil {
			return nil, err
		}
	}

	report, err := a.reports.Handle(ctx, query.GetReportQuery{
		Section: query.SectionFull,
		Days:    a.cfg.Analytics.DailyDays,
		Limit:   a.cfg.Analytics.TopN,
	})
	if err != nil {
		return nil, err
	}

	out := &demoOutput{
		Loaded:          n,
		Report:          report.Data,
		Counters:        a.store.Counters(),
		ModerationQueue: []eventhandler.QueueEntry{},
	}
	if a.queue != nil {
		out.ModerationQueue = a.queue.Pending()
	}

	if publish {
		res, err := a.publisher.Publish(ctx, true)
		out.Publish = res
		if err != nil && !errors.Is(err, projection.ErrPublishIncomplete) {
			return nil, err
		}
	}
	return out, nil
}

// commandContext returns the command context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
