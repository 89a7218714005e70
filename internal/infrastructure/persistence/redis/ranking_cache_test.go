package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/interaction-hub/internal/application/query"
	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheFromClient(client), mr
}

func likedComment(t *testing.T, id string, likes int) *interaction.Comment {
	t.Helper()
	c, err := interaction.NewComment(interaction.RecordID(id), "u1", "v1", "comment "+id,
		time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	for i := 0; i < likes; i++ {
		c.AddLike()
	}
	return c
}

func TestRankingCache_Keys(t *testing.T) {
	r := NewRankingCache(nil)
	assert.Equal(t, "interactions:comments:top", r.TopCommentsKey())
	assert.Equal(t, "interactions:activity:daily", r.DailyActivityKey())
	assert.Equal(t, "interactions:summary:full", r.SummaryKey("full"))

	custom := NewRankingCache(nil, WithNamespace("staging"), WithTTL(time.Minute))
	assert.Equal(t, "staging:comments:top", custom.TopCommentsKey())
	assert.Equal(t, time.Minute, custom.ttl)

	// Empty values keep the defaults.
	defaults := NewRankingCache(nil, WithNamespace(""), WithTTL(0))
	assert.Equal(t, DefaultNamespace, defaults.namespace)
	assert.Equal(t, TTLRanking, defaults.ttl)
}

func TestRankMembers(t *testing.T) {
	members := rankMembers([]interaction.RecordID{"c2", "", "c1", "c2", "c3"})

	assert.Equal(t, []goredis.Z{
		{Score: 0, Member: "c2"},
		{Score: 1, Member: "c1"},
		{Score: 2, Member: "c3"},
	}, members)
	assert.Empty(t, rankMembers(nil))
}

func TestActivityFields(t *testing.T) {
	fields := activityFields(map[string]int{"2025-03-14": 3, "2025-03-13": 0})
	assert.Equal(t, map[string]interface{}{"2025-03-14": 3, "2025-03-13": 0}, fields)

	parsed, err := parseActivity(map[string]string{"2025-03-14": "3", "2025-03-13": "0"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2025-03-14": 3, "2025-03-13": 0}, parsed)

	_, err = parseActivity(map[string]string{"2025-03-14": "many"})
	assert.Error(t, err)
}

func TestRankingCache_TopCommentIDsNonPositive(t *testing.T) {
	r := NewRankingCache(nil)
	ids, err := r.TopCommentIDs(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCache_SetValidation(t *testing.T) {
	c := NewCacheFromClient(nil)
	ctx := context.Background()

	assert.ErrorIs(t, c.SetJSON(ctx, "", 1, time.Minute), ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.SetJSON(ctx, "k", nil, time.Minute), ErrCacheNilValue)
	assert.ErrorIs(t, c.SetJSON(ctx, "k", 1, -time.Second), ErrCacheInvalidTTL)
	assert.ErrorIs(t, c.GetJSON(ctx, "", nil), ErrCacheKeyEmpty)
}

func TestConfig_Addr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())
}

func TestRankingCache_TiedScoresKeepRankedOrder(t *testing.T) {
	cache, _ := newTestCache(t)
	r := NewRankingCache(cache)
	ctx := context.Background()

	// c2 sorts after c1 by name, so a score-keyed set would return it first.
	reports := query.NewReportEngine([]interaction.Record{
		likedComment(t, "c1", 10),
		likedComment(t, "c2", 10),
		likedComment(t, "c3", 5),
	})
	require.NoError(t, r.PublishCommentRanking(ctx, reports.RankedCommentIDs()))

	ids, err := r.TopCommentIDs(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []interaction.RecordID{"c1", "c2", "c3"}, ids)

	ids, err = r.TopCommentIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []interaction.RecordID{"c1", "c2"}, ids)
}

func TestRankingCache_PublishReplacesRanking(t *testing.T) {
	cache, mr := newTestCache(t)
	r := NewRankingCache(cache, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, r.PublishCommentRanking(ctx, []interaction.RecordID{"a", "b", "c"}))
	assert.Equal(t, time.Minute, mr.TTL(r.TopCommentsKey()))

	require.NoError(t, r.PublishCommentRanking(ctx, []interaction.RecordID{"c", "a"}))
	ids, err := r.TopCommentIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []interaction.RecordID{"c", "a"}, ids)

	require.NoError(t, r.PublishCommentRanking(ctx, nil))
	assert.False(t, mr.Exists(r.TopCommentsKey()))
	ids, err = r.TopCommentIDs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRankingCache_ActivityAndSummary(t *testing.T) {
	cache, _ := newTestCache(t)
	r := NewRankingCache(cache)
	ctx := context.Background()

	activity := map[string]int{"2025-03-13": 0, "2025-03-14": 4}
	require.NoError(t, r.PublishDailyActivity(ctx, activity))
	got, err := r.DailyActivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, activity, got)

	require.NoError(t, r.PublishSummary(ctx, "full", map[string]int{"total": 4}, 0))
	var summary map[string]int
	require.NoError(t, r.Summary(ctx, "full", &summary))
	assert.Equal(t, map[string]int{"total": 4}, summary)

	assert.ErrorIs(t, r.Summary(ctx, "missing", &summary), ErrCacheMiss)
}
