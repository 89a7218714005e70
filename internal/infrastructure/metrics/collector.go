// Package metrics exposes Prometheus instrumentation for the interaction hub.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

const namespace = "interactions"

// Collector holds the interaction metrics. All metrics are registered on the
// Registerer passed to NewCollector so tests can use a private registry.
type Collector struct {
	EventsTotal     *prometheus.CounterVec
	ProcessedTotal  *prometheus.CounterVec
	StatusChanges   *prometheus.CounterVec
	ModerationTotal *prometheus.CounterVec
	LikeToggles     *prometheus.CounterVec
	TierChanges     *prometheus.CounterVec
	StoreRecords    *prometheus.GaugeVec
	StoreCounters   *prometheus.GaugeVec
	SinkDuration    *prometheus.HistogramVec
	SinkErrorsTotal *prometheus.CounterVec
	BreakerState    *prometheus.GaugeVec
	JobRunsTotal    *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
}

// NewCollector creates and registers the metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Domain events observed on the bus by type",
		}, []string{"type"}),

		ProcessedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processed_total",
			Help:      "Processed records by kind and outcome (accepted, flagged)",
		}, []string{"kind", "outcome"}),

		StatusChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Soft deletes and restores by kind and new status",
		}, []string{"kind", "status"}),

		ModerationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comments",
			Name:      "moderation_total",
			Help:      "Comment moderation actions (flagged, unflagged, edited)",
		}, []string{"action"}),

		LikeToggles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "likes",
			Name:      "toggles_total",
			Help:      "Like toggles by resulting polarity",
		}, []string{"polarity"}),

		TierChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscriptions",
			Name:      "tier_changes_total",
			Help:      "Subscription tier changes by new tier",
		}, []string{"tier"}),

		StoreRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records",
			Help:      "Records held by the store by status",
		}, []string{"status"}),

		StoreCounters: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "counters",
			Help:      "Store-wide like and subscription totals",
		}, []string{"counter"}),

		SinkDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "publish_duration_seconds",
			Help:      "Duration of publishing to external sinks (redis, postgres)",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"sink"}),

		SinkErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "errors_total",
			Help:      "Failed publishes to external sinks",
		}, []string{"sink"}),

		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "breaker_state",
			Help:      "Circuit breaker state per sink (0 closed, 1 open, 2 half-open)",
		}, []string{"sink"}),

		JobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and outcome (success, failure)",
		}, []string{"job", "outcome"}),

		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job runs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
}

// Attach subscribes the collector to every event on the bus.
func (c *Collector) Attach(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(c.HandleEvent)
}

// HandleEvent updates counters for one domain event. It never fails.
func (c *Collector) HandleEvent(event shared.Event) error {
	c.EventsTotal.WithLabelValues(string(event.EventType())).Inc()

	switch e := event.(type) {
	case shared.RecordProcessedEvent:
		outcome := "accepted"
		if !e.Accepted {
			outcome = "flagged"
		}
		c.ProcessedTotal.WithLabelValues(e.Kind, outcome).Inc()
	case shared.RecordStatusEvent:
		c.StatusChanges.WithLabelValues(e.Kind, e.Status).Inc()
	case shared.CommentModeratedEvent:
		c.ModerationTotal.WithLabelValues(moderationAction(e.EventType())).Inc()
	case shared.LikeToggledEvent:
		c.LikeToggles.WithLabelValues(e.Polarity).Inc()
	case shared.TierChangedEvent:
		c.TierChanges.WithLabelValues(e.Tier).Inc()
	}
	return nil
}

func moderationAction(t shared.EventType) string {
	switch t {
	case shared.EventCommentFlagged:
		return "flagged"
	case shared.EventCommentUnflagged:
		return "unflagged"
	case shared.EventCommentEdited:
		return "edited"
	default:
		return "other"
	}
}

// ObserveStore sets the store gauges from a repository snapshot.
func (c *Collector) ObserveStore(repo interaction.Repository) {
	for status, n := range repo.CountByStatus() {
		c.StoreRecords.WithLabelValues(status.String()).Set(float64(n))
	}

	snap := repo.Counters()
	c.StoreCounters.WithLabelValues("likes").Set(float64(snap.TotalLikes))
	c.StoreCounters.WithLabelValues("dislikes").Set(float64(snap.TotalDislikes))
	c.StoreCounters.WithLabelValues("subscriptions").Set(float64(snap.TotalSubscriptions))
	c.StoreCounters.WithLabelValues("unsubscriptions").Set(float64(snap.TotalUnsubscriptions))
}

// ObserveSink records the outcome of one publish to an external sink.
func (c *Collector) ObserveSink(sink string, took time.Duration, err error) {
	c.SinkDuration.WithLabelValues(sink).Observe(took.Seconds())
	if err != nil {
		c.SinkErrorsTotal.WithLabelValues(sink).Inc()
	}
}

// ObserveBreaker records a circuit breaker state for sink.
func (c *Collector) ObserveBreaker(sink string, state int) {
	c.BreakerState.WithLabelValues(sink).Set(float64(state))
}

// ObserveJob records one scheduled job run.
func (c *Collector) ObserveJob(job string, took time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.JobRunsTotal.WithLabelValues(job, outcome).Inc()
	c.JobDuration.WithLabelValues(job).Observe(took.Seconds())
}
