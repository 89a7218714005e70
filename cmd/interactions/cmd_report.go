package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alem-hub/interaction-hub/internal/application/query"
	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
)

// loadedApp wires an app and loads the dataset selected by --input.
func loadedApp(ctx context.Context, opts appOptions) (*app, error) {
	a, err := newApp(ctx, appConfig, appLogger, opts)
	if err != nil {
		return nil, err
	}

	records, err := datasetFor(inputFile)
	if err == nil {
		_, err = a.load(ctx, records)
	}
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// --- report ---

func runReport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	section := query.SectionFull
	if len(args) == 1 {
		section = args[0]
	}

	a, err := loadedApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.reports.Handle(ctx, a.reportQuery(section))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

// reportQuery builds the query from the report flags. Zero days and limit
// fall back to the analytics settings.
func (a *app) reportQuery(section string) query.GetReportQuery {
	q := query.GetReportQuery{
		Section:        section,
		UserID:         reportUser,
		Keyword:        reportKeyword,
		Days:           reportDays,
		Limit:          reportLimit,
		TargetType:     reportTargetType,
		IncludeDeleted: reportIncludeDeleted,
	}
	if q.Days == 0 {
		q.Days = a.cfg.Analytics.DailyDays
	}
	if q.Limit == 0 {
		q.Limit = a.cfg.Analytics.TopN
	}
	return q
}

// --- breakdown ---

// breakdown groups active records by what they point at.
type breakdown struct {
	LikesByTarget        map[string]map[string]int `json:"likes_by_target"`
	CommentsByVideo      map[string]int            `json:"comments_by_video"`
	SubscribersByChannel map[string]int            `json:"subscribers_by_channel"`
}

func runBreakdown(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	a, err := loadedApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	return printJSON(cmd.OutOrStdout(), a.breakdown())
}

func (a *app) breakdown() breakdown {
	reports := query.NewReportEngine(a.store.Snapshot(),
		query.WithClock(a.clock),
		query.WithLocation(a.cfg.App.Location),
	)

	out := breakdown{
		LikesByTarget:        make(map[string]map[string]int, len(a.cfg.Analytics.LikeTargets)),
		CommentsByVideo:      reports.CommentsByVideo(),
		SubscribersByChannel: reports.SubscribersByChannel(),
	}
	for _, t := range a.cfg.Analytics.LikeTargets {
		out.LikesByTarget[t] = reports.LikesByTarget(interaction.TargetType(t))
	}
	return out
}

// --- top ---

func runTop(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	a, err := loadedApp(ctx, appOptions{connectSinks: true})
	if err != nil {
		return err
	}
	defer a.Close()

	n := topLimit
	if n == 0 {
		n = a.cfg.Analytics.TopN
	}

	res, err := a.top.Handle(ctx, query.GetTopCommentsQuery{Limit: n})
	if err != nil {
		return fmt.Errorf("top comments: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), res)
}
