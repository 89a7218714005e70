package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

func newTestLike(t *testing.T, id string, polarity Polarity) *Like {
	t.Helper()
	l, err := NewLike(RecordID(id), "user-1", "video-1", TargetVideo, polarity, testNow)
	require.NoError(t, err)
	return l
}

func TestNewLike_Validation(t *testing.T) {
	_, err := NewLike("l1", "u1", "v1", TargetType("playlist"), PolarityLike, testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidTargetType)

	_, err = NewLike("l1", "u1", "v1", TargetVideo, Polarity("meh"), testNow)
	assert.ErrorIs(t, err, shared.ErrInvalidPolarity)

	_, err = NewLike("l1", "u1", "", TargetVideo, PolarityLike, testNow)
	assert.ErrorIs(t, err, shared.ErrEmptyTargetID)

	l := newTestLike(t, "l1", PolarityLike)
	assert.True(t, l.Validate())
	assert.True(t, l.IsLike())
	assert.True(t, l.IsVideoLike())
	assert.False(t, l.IsCommentLike())
	assert.Equal(t, "positive", l.Sentiment())
}

func TestLike_ProcessCountsOnce(t *testing.T) {
	counters := NewCounters()
	like := newTestLike(t, "l1", PolarityLike)
	dislike := newTestLike(t, "l2", PolarityDislike)

	assert.True(t, like.Process(counters))
	assert.True(t, like.Process(counters))
	assert.True(t, dislike.Process(counters))

	snap := counters.Snapshot()
	assert.Equal(t, 1, snap.TotalLikes)
	assert.Equal(t, 1, snap.TotalDislikes)
	assert.InDelta(t, 50.0, snap.LikeRatio(), 1e-9)
}

func TestLike_ToggleTwiceRestoresState(t *testing.T) {
	counters := NewCounters()
	l := newTestLike(t, "l1", PolarityLike)
	require.True(t, l.Process(counters))
	before := counters.Snapshot()

	assert.Equal(t, PolarityDislike, l.Toggle())
	mid := counters.Snapshot()
	assert.Equal(t, before.TotalLikes-1, mid.TotalLikes)
	assert.Equal(t, before.TotalDislikes+1, mid.TotalDislikes)
	assert.Equal(t, "negative", l.Sentiment())

	assert.Equal(t, PolarityLike, l.Toggle())
	assert.Equal(t, before, counters.Snapshot())
	assert.Equal(t, PolarityLike, l.Polarity())
}

func TestLike_ToggleUnprocessedLeavesCounters(t *testing.T) {
	counters := NewCounters()
	l := newTestLike(t, "l1", PolarityLike)

	l.Toggle()
	assert.Equal(t, CounterSnapshot{}, counters.Snapshot())

	require.True(t, l.Process(counters))
	assert.Equal(t, 1, counters.TotalDislikes())
	assert.Equal(t, 0, counters.TotalLikes())
}

func TestLike_CloneDetachedFromCounters(t *testing.T) {
	counters := NewCounters()
	l := newTestLike(t, "l1", PolarityLike)
	require.True(t, l.Process(counters))

	clone := l.Clone().(*Like)
	clone.Toggle()
	assert.Equal(t, 1, counters.TotalLikes())
	assert.Equal(t, PolarityLike, l.Polarity())
}

func TestIsControversial(t *testing.T) {
	tests := []struct {
		likes, dislikes int
		want            bool
	}{
		{5, 4, false}, // below reaction threshold
		{6, 4, true},
		{4, 6, true},
		{7, 3, false},
		{50, 50, true},
		{0, 0, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsControversial(tt.likes, tt.dislikes), "likes=%d dislikes=%d", tt.likes, tt.dislikes)
	}
}

func TestSentimentScore(t *testing.T) {
	assert.Equal(t, 0.0, SentimentScore(0, 0))
	assert.Equal(t, 100.0, SentimentScore(3, 0))
	assert.Equal(t, -100.0, SentimentScore(0, 2))
	assert.InDelta(t, 50.0, SentimentScore(3, 1), 1e-9)
}

func TestLike_View(t *testing.T) {
	l := newTestLike(t, "l1", PolarityDislike)
	v := l.ToView()
	assert.Equal(t, "video-1", v[ViewTargetID])
	assert.Equal(t, "video", v[ViewTargetType])
	assert.Equal(t, "dislike", v[ViewPolarity])
	assert.Equal(t, "active", v[ViewStatus])
}
