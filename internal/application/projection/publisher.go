// Package projection rebuilds derived views from a store snapshot and pushes
// them to the external sinks: the Redis ranking and the PostgreSQL archive.
package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alem-hub/interaction-hub/internal/application/eventhandler"
	"github.com/alem-hub/interaction-hub/internal/application/query"
	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/pkg/circuitbreaker"
	"github.com/alem-hub/interaction-hub/pkg/logger"
	"github.com/alem-hub/interaction-hub/pkg/retry"
)

// Sink names used in results, logs and metrics.
const (
	SinkRanking = "redis"
	SinkArchive = "postgres"
)

// SummaryName is the key suffix the full report is published under.
const SummaryName = "full"

// ErrPublishIncomplete is returned when at least one sink failed.
var ErrPublishIncomplete = errors.New("projection: publish incomplete")

// Observer receives per-sink outcomes. *metrics.Collector implements it.
type Observer interface {
	ObserveSink(sink string, took time.Duration, err error)
	ObserveBreaker(sink string, state int)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESULTS
// ══════════════════════════════════════════════════════════════════════════════

// SinkResult is the outcome of one sink.
type SinkResult struct {
	Sink    string        `json:"sink"`
	Written int           `json:"written"`
	Took    time.Duration `json:"took"`

	// Rejected is set when the circuit breaker refused the call.
	Rejected bool   `json:"rejected,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PublishResult summarizes one publish run.
type PublishResult struct {
	Version     int64        `json:"version"`
	PublishedAt time.Time    `json:"published_at"`
	Skipped     bool         `json:"skipped"`
	Sinks       []SinkResult `json:"sinks"`
}

// ══════════════════════════════════════════════════════════════════════════════
// PUBLISHER
// ══════════════════════════════════════════════════════════════════════════════

// Publisher pushes projections to the configured sinks. Either sink may be
// absent; a publisher without sinks only advances its version.
type Publisher struct {
	repo interaction.Repository

	ranking        interaction.RankingCache
	rankingBreaker *circuitbreaker.CircuitBreaker
	rankingRetrier *retry.Retrier
	summaryTTL     time.Duration
	activityDays   int

	archive        interaction.Archive
	archiveBreaker *circuitbreaker.CircuitBreaker

	breakerOpts map[string][]circuitbreaker.Option

	tracker  *eventhandler.ProjectionTracker
	observer Observer
	clock    clockwork.Clock
	log      *logger.Logger

	// reportClock anchors the report windows; nil means clock.
	reportClock clockwork.Clock
	location    *time.Location

	version int64
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithRanking enables the Redis ranking sink.
func WithRanking(cache interaction.RankingCache) Option {
	return func(p *Publisher) { p.ranking = cache }
}

// WithArchive enables the PostgreSQL archive sink.
func WithArchive(archive interaction.Archive) Option {
	return func(p *Publisher) { p.archive = archive }
}

// WithTracker skips publishing when the tracker saw no change.
func WithTracker(t *eventhandler.ProjectionTracker) Option {
	return func(p *Publisher) { p.tracker = t }
}

// WithObserver reports sink outcomes and breaker states.
func WithObserver(o Observer) Option {
	return func(p *Publisher) { p.observer = o }
}

// WithClock sets the clock used for report windows and timings.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithReportClock anchors the activity window at a clock other than the one
// driving timings, breakers and retries. Batch runs pass the clock that
// stamped the loaded records.
func WithReportClock(clock clockwork.Clock) Option {
	return func(p *Publisher) { p.reportClock = clock }
}

// WithLocation sets the timezone of the daily activity keys.
func WithLocation(loc *time.Location) Option {
	return func(p *Publisher) { p.location = loc }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Publisher) {
		if log != nil {
			p.log = log
		}
	}
}

// WithActivityDays sets the daily activity window.
func WithActivityDays(days int) Option {
	return func(p *Publisher) {
		if days > 0 {
			p.activityDays = days
		}
	}
}

// WithSummaryTTL sets how long the published summary lives.
func WithSummaryTTL(ttl time.Duration) Option {
	return func(p *Publisher) {
		if ttl > 0 {
			p.summaryTTL = ttl
		}
	}
}

// WithBreakerOptions tunes the circuit breaker of sink on top of its preset.
func WithBreakerOptions(sink string, opts ...circuitbreaker.Option) Option {
	return func(p *Publisher) {
		p.breakerOpts[sink] = append(p.breakerOpts[sink], opts...)
	}
}

// WithRankingRetrier replaces the retrier used for Redis writes.
func WithRankingRetrier(rt *retry.Retrier) Option {
	return func(p *Publisher) {
		if rt != nil {
			p.rankingRetrier = rt
		}
	}
}

// NewPublisher creates a Publisher over repo.
func NewPublisher(repo interaction.Repository, opts ...Option) *Publisher {
	p := &Publisher{
		repo:         repo,
		activityDays: 7,
		clock:        clockwork.NewRealClock(),
		log:          logger.Nop(),
		breakerOpts:  make(map[string][]circuitbreaker.Option),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.log = p.log.With(logger.Component("projection_publisher"))
	p.rankingBreaker = circuitbreaker.ProjectionBreaker(p.onStateChange,
		append([]circuitbreaker.Option{circuitbreaker.WithClock(p.clock)}, p.breakerOpts[SinkRanking]...)...)
	p.archiveBreaker = circuitbreaker.ArchiveBreaker(p.onStateChange,
		append([]circuitbreaker.Option{circuitbreaker.WithClock(p.clock)}, p.breakerOpts[SinkArchive]...)...)
	if p.rankingRetrier == nil {
		p.rankingRetrier = retry.CacheRetrier(
			retry.WithClock(p.clock),
			retry.WithRetryIf(func(err error) bool {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}),
		)
	}
	return p
}

func (p *Publisher) onStateChange(name string, from, to circuitbreaker.State) {
	p.log.Warn("sink circuit breaker changed state",
		logger.String("breaker", name),
		logger.String("from", from.String()),
		logger.String("to", to.String()),
	)
	if p.observer != nil {
		p.observer.ObserveBreaker(sinkForBreaker(name), int(to))
	}
}

func sinkForBreaker(name string) string {
	if name == "archive" {
		return SinkArchive
	}
	return SinkRanking
}

// Version returns the number of completed publishes.
func (p *Publisher) Version() int64 {
	return p.version
}

// BreakerStates reports the breaker state of every configured sink.
func (p *Publisher) BreakerStates() map[string]string {
	out := make(map[string]string, 2)
	if p.ranking != nil {
		out[sinkForBreaker(p.rankingBreaker.Name())] = p.rankingBreaker.State().String()
	}
	if p.archive != nil {
		out[sinkForBreaker(p.archiveBreaker.Name())] = p.archiveBreaker.State().String()
	}
	return out
}

// Publish rebuilds the projections and pushes them to every sink. Unless
// force is set, the run is skipped when the tracker reports no changes.
// Sinks are independent: a failing sink does not stop the other one.
func (p *Publisher) Publish(ctx context.Context, force bool) (*PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := p.clock.Now()
	if !force && p.tracker != nil && !p.tracker.Dirty() {
		p.log.Debug("projections up to date, skipping publish")
		return &PublishResult{Version: p.version, PublishedAt: now, Skipped: true}, nil
	}

	reportClock := p.reportClock
	if reportClock == nil {
		reportClock = p.clock
	}
	reports := query.NewReportEngine(p.repo.Snapshot(),
		query.WithClock(reportClock),
		query.WithLocation(p.location),
	)
	result := &PublishResult{PublishedAt: now}

	var failed []string
	if p.ranking != nil {
		res := p.run(ctx, SinkRanking, p.rankingBreaker, func(ctx context.Context) (int, error) {
			return p.publishRanking(ctx, reports)
		})
		if res.Error != "" {
			failed = append(failed, res.Sink)
		}
		result.Sinks = append(result.Sinks, res)
	}
	if p.archive != nil {
		res := p.run(ctx, SinkArchive, p.archiveBreaker, func(ctx context.Context) (int, error) {
			return p.archive.SaveViews(ctx, reports.ExportRaw())
		})
		if res.Error != "" {
			failed = append(failed, res.Sink)
		}
		result.Sinks = append(result.Sinks, res)
	}

	if len(failed) > 0 {
		result.Version = p.version
		return result, fmt.Errorf("%w: %v", ErrPublishIncomplete, failed)
	}

	p.version++
	result.Version = p.version
	if p.tracker != nil {
		p.tracker.MarkPublished()
	}
	p.log.Info("projections published",
		logger.F("version", p.version),
		logger.Int("sinks", len(result.Sinks)),
	)
	return result, nil
}

func (p *Publisher) run(
	ctx context.Context,
	sink string,
	breaker *circuitbreaker.CircuitBreaker,
	fn func(context.Context) (int, error),
) SinkResult {
	started := p.clock.Now()
	res := SinkResult{Sink: sink}

	err := breaker.Execute(ctx, func(ctx context.Context) error {
		n, err := fn(ctx)
		res.Written = n
		return err
	})
	res.Took = p.clock.Since(started)

	if err != nil {
		res.Error = err.Error()
		res.Rejected = errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests)
		p.log.Error("sink publish failed",
			logger.String("sink", sink),
			logger.Bool("rejected", res.Rejected),
			logger.Err(err),
		)
	}
	if p.observer != nil {
		p.observer.ObserveSink(sink, res.Took, err)
	}
	return res
}

// publishRanking writes the comment ranking, the daily activity and the
// full summary. It returns the number of ranked comments.
func (p *Publisher) publishRanking(ctx context.Context, reports *query.ReportEngine) (int, error) {
	ranked := reports.RankedCommentIDs()
	activity := reports.DailyActivityMap(p.activityDays)
	summary := reports.FullReport()

	err := p.rankingRetrier.Do(ctx, func(ctx context.Context) error {
		if err := p.ranking.PublishCommentRanking(ctx, ranked); err != nil {
			return err
		}
		if err := p.ranking.PublishDailyActivity(ctx, activity); err != nil {
			return err
		}
		return p.ranking.PublishSummary(ctx, SummaryName, summary, p.summaryTTL)
	})
	if err != nil {
		return 0, err
	}
	return len(ranked), nil
}
