package query

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
)

var now = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func comment(t *testing.T, id, user, video, text string, at time.Time) *interaction.Comment {
	t.Helper()
	c, err := interaction.NewComment(interaction.RecordID(id), interaction.UserID(user), video, text, at)
	require.NoError(t, err)
	return c
}

func like(t *testing.T, id, user, target string, tt interaction.TargetType, p interaction.Polarity, at time.Time) *interaction.Like {
	t.Helper()
	l, err := interaction.NewLike(interaction.RecordID(id), interaction.UserID(user), target, tt, p, at)
	require.NoError(t, err)
	return l
}

func subscription(t *testing.T, id, user, channel string, action interaction.Action, at time.Time) *interaction.Subscription {
	t.Helper()
	s, err := interaction.NewSubscription(interaction.RecordID(id), interaction.UserID(user), channel, at,
		interaction.WithAction(action))
	require.NoError(t, err)
	return s
}

func TestStatisticsEngine_Empty(t *testing.T) {
	e := NewStatisticsEngine(nil, WithClock(clockwork.NewFakeClockAt(now)))
	summary := e.GenerateSummary()

	assert.Equal(t, 0, summary.TotalInteractions)
	assert.Equal(t, 0.0, summary.Comments.AverageLength)
	assert.Equal(t, 0.0, summary.Comments.AverageScore)
	assert.Equal(t, 0.0, summary.Likes.LikeRatio)
	assert.Equal(t, 0.0, summary.Subscriptions.ActiveRatio)
	assert.Len(t, summary.ByStatus, 4)
	assert.Len(t, summary.ByType, 3)
	assert.Equal(t, now, summary.GeneratedAt)
}

func TestStatisticsEngine_Summary(t *testing.T) {
	popular := comment(t, "c1", "u1", "v1", "great video", now)
	for i := 0; i < 15; i++ {
		popular.AddLike()
	}
	spam := comment(t, "c2", "u2", "v1", "aaaaaaaaa", now)
	require.False(t, spam.Process(nil))

	deleted := comment(t, "c3", "u3", "v2", strings.Repeat("x", 40), now)
	deleted.MarkAsDeleted()

	disliked := like(t, "l2", "u2", "v1", interaction.TargetVideo, interaction.PolarityDislike, now)
	sub := subscription(t, "s1", "u1", "ch", interaction.ActionSubscribe, now)
	unsub := subscription(t, "s2", "u1", "ch", interaction.ActionUnsubscribe, now)
	require.True(t, unsub.Process(nil))

	records := []interaction.Record{
		popular,
		spam,
		deleted,
		like(t, "l1", "u1", "v1", interaction.TargetVideo, interaction.PolarityLike, now),
		disliked,
		like(t, "l3", "u3", "v1", interaction.TargetVideo, interaction.PolarityLike, now),
		sub,
		unsub,
	}

	e := NewStatisticsEngine(records, WithClock(clockwork.NewFakeClockAt(now)))
	s := e.GenerateSummary()

	assert.Equal(t, 8, s.TotalInteractions)
	assert.Equal(t, 3, s.ByType[interaction.KindComment])
	assert.Equal(t, 1, s.ByStatus[interaction.StatusDeleted])
	assert.Equal(t, 1, s.ByStatus[interaction.StatusFlagged])
	assert.Equal(t, 1, s.ByStatus[interaction.StatusInactive])

	// The deleted comment is excluded from derived aggregates.
	assert.Equal(t, 2, s.Comments.Total)
	assert.Equal(t, 1, s.Comments.Flagged)
	assert.Equal(t, 1, s.Comments.Popular)
	assert.Equal(t, 10.0, s.Comments.AverageLength) // (11 + 9) / 2
	assert.Equal(t, 7.5, s.Comments.AverageScore)   // (15 + 0) / 2

	assert.Equal(t, 2, s.Likes.Likes)
	assert.Equal(t, 1, s.Likes.Dislikes)
	assert.Equal(t, 66.67, s.Likes.LikeRatio)

	assert.Equal(t, 2, s.Subscriptions.Total)
	assert.Equal(t, 1, s.Subscriptions.Active)
	assert.Equal(t, 50.0, s.Subscriptions.ActiveRatio)
	assert.Equal(t, 0.0, s.Subscriptions.Retention)
	assert.Equal(t, 100.0, s.Subscriptions.Churn)

	// Like aggregates follow the current polarity.
	disliked.Toggle()
	assert.Equal(t, 3, e.LikeStats().Likes)
	assert.Equal(t, 100.0, e.LikeRatio())

	withDeleted := NewStatisticsEngine(records, IncludeDeleted())
	assert.Equal(t, 3, withDeleted.CommentStats().Total)
}

func TestStatisticsEngine_InteractionsSince(t *testing.T) {
	clock := clockwork.NewFakeClockAt(now)
	records := []interaction.Record{
		comment(t, "c1", "u1", "v1", "old", now.Add(-48*time.Hour)),
		comment(t, "c2", "u1", "v1", "edge", now.Add(-time.Hour)),
		comment(t, "c3", "u1", "v1", "fresh", now.Add(-time.Minute)),
	}
	e := NewStatisticsEngine(records, WithClock(clock))

	assert.Equal(t, 2, e.InteractionsSince(time.Hour))
	assert.Equal(t, 1, e.InteractionsSince(30*time.Minute))
	assert.Equal(t, 2, e.GenerateSummary().Last24Hours)

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 1, e.InteractionsSince(time.Hour))
}
