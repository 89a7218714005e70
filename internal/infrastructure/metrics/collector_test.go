package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/internal/domain/shared"
	"github.com/alem-hub/interaction-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/interaction-hub/internal/infrastructure/persistence/memory"
)

var at = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func TestCollector_CountsBusEvents(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	require.NoError(t, c.Attach(bus))

	events := []shared.Event{
		shared.NewRecordProcessedEvent("c1", "comment", true, "active", nil, at),
		shared.NewRecordProcessedEvent("c2", "comment", false, "flagged", []string{"spam"}, at),
		shared.NewRecordStatusEvent(shared.EventRecordDeleted, "c1", "comment", "active", "deleted", at),
		shared.NewCommentModeratedEvent(shared.EventCommentFlagged, "c1", "offtopic", []string{"offtopic"}, at),
		shared.NewLikeToggledEvent("l1", "v1", "video", "dislike", at),
		shared.NewTierChangedEvent("s1", "ch", "free", "premium", at),
	}
	for _, e := range events {
		require.NoError(t, bus.Publish(e))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.EventsTotal.WithLabelValues(string(shared.EventRecordProcessed))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ProcessedTotal.WithLabelValues("comment", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ProcessedTotal.WithLabelValues("comment", "flagged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StatusChanges.WithLabelValues("comment", "deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ModerationTotal.WithLabelValues("flagged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LikeToggles.WithLabelValues("dislike")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TierChanges.WithLabelValues("premium")))
}

func TestCollector_ObserveStore(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	store := memory.NewInteractionStore()

	like, err := interaction.NewLike("l1", "u1", "v1", interaction.TargetVideo, interaction.PolarityLike, at)
	require.NoError(t, err)
	require.NoError(t, store.Add(like))
	_, err = store.Process("l1")
	require.NoError(t, err)

	c.ObserveStore(store)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreRecords.WithLabelValues("active")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.StoreRecords.WithLabelValues("deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreCounters.WithLabelValues("likes")))
}

func TestCollector_ObserveSink(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveSink("redis", 20*time.Millisecond, nil)
	c.ObserveSink("redis", time.Second, errors.New("connection refused"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.SinkErrorsTotal.WithLabelValues("redis")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.SinkDuration))

	c.ObserveBreaker("postgres", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BreakerState.WithLabelValues("postgres")))
}

func TestCollector_ObserveJob(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.ObserveJob("publish_projections", time.Millisecond, nil)
	c.ObserveJob("publish_projections", time.Millisecond, errors.New("redis down"))
	c.ObserveJob("publish_projections", time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.JobRunsTotal.WithLabelValues("publish_projections", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.JobRunsTotal.WithLabelValues("publish_projections", "failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.JobDuration))
}
