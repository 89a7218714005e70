package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING CACHE
// ══════════════════════════════════════════════════════════════════════════════

// RankingCache publishes report projections to Redis.
//
// Layout:
//   - Sorted Set "{ns}:comments:top" stores commentID -> score
//   - Hash "{ns}:activity:daily" stores YYYY-MM-DD -> interaction count
//   - String "{ns}:summary:{name}" stores a JSON summary
//
// Every publish replaces the previous projection inside a MULTI block so
// readers never observe a half-written ranking.
type RankingCache struct {
	cache     *Cache
	namespace string
	ttl       time.Duration
}

// RankingCacheOption configures a RankingCache.
type RankingCacheOption func(*RankingCache)

// WithNamespace overrides the key prefix.
func WithNamespace(ns string) RankingCacheOption {
	return func(r *RankingCache) {
		if ns != "" {
			r.namespace = ns
		}
	}
}

// WithTTL overrides the ranking TTL.
func WithTTL(ttl time.Duration) RankingCacheOption {
	return func(r *RankingCache) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// NewRankingCache creates a new RankingCache instance.
func NewRankingCache(cache *Cache, opts ...RankingCacheOption) *RankingCache {
	r := &RankingCache{
		cache:     cache,
		namespace: DefaultNamespace,
		ttl:       TTLRanking,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ interaction.RankingCache = (*RankingCache)(nil)

// TopCommentsKey returns the sorted set key of the comment ranking.
func (r *RankingCache) TopCommentsKey() string { return r.namespace + ":comments:top" }

// DailyActivityKey returns the hash key of the per-day counts.
func (r *RankingCache) DailyActivityKey() string { return r.namespace + ":activity:daily" }

// SummaryKey returns the key a named summary is stored under.
func (r *RankingCache) SummaryKey(name string) string { return r.namespace + ":summary:" + name }

// ──────────────────────────────────────────────────────────────────────────────
// Comment ranking
// ──────────────────────────────────────────────────────────────────────────────

// PublishCommentRanking replaces the cached comment ranking. Each member is
// scored with its rank, so readers get ids back in the published order.
func (r *RankingCache) PublishCommentRanking(ctx context.Context, ranked []interaction.RecordID) error {
	key := r.TopCommentsKey()
	pipe := r.cache.Client().TxPipeline()

	pipe.Del(ctx, key)
	if members := rankMembers(ranked); len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "ranking_cache: publish %d ranked comments", len(ranked))
	}
	return nil
}

// TopCommentIDs returns the n best ranked comment ids, best first.
func (r *RankingCache) TopCommentIDs(ctx context.Context, n int) ([]interaction.RecordID, error) {
	if n <= 0 {
		return []interaction.RecordID{}, nil
	}

	members, err := r.cache.Client().ZRange(ctx, r.TopCommentsKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "ranking_cache: read top comments")
	}

	ids := make([]interaction.RecordID, 0, len(members))
	for _, m := range members {
		ids = append(ids, interaction.RecordID(m))
	}
	return ids, nil
}

// rankMembers scores ids by position. Empty and repeated ids are dropped,
// the first position wins.
func rankMembers(ranked []interaction.RecordID) []redis.Z {
	members := make([]redis.Z, 0, len(ranked))
	seen := make(map[interaction.RecordID]struct{}, len(ranked))
	for _, id := range ranked {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, redis.Z{Score: float64(len(members)), Member: id.String()})
	}
	return members
}

// ──────────────────────────────────────────────────────────────────────────────
// Daily activity
// ──────────────────────────────────────────────────────────────────────────────

// PublishDailyActivity stores the per-day interaction counts.
func (r *RankingCache) PublishDailyActivity(ctx context.Context, activity map[string]int) error {
	key := r.DailyActivityKey()
	pipe := r.cache.Client().TxPipeline()

	pipe.Del(ctx, key)
	if fields := activityFields(activity); len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "ranking_cache: publish daily activity")
	}
	return nil
}

// DailyActivity returns the cached per-day counts.
func (r *RankingCache) DailyActivity(ctx context.Context) (map[string]int, error) {
	raw, err := r.cache.Client().HGetAll(ctx, r.DailyActivityKey()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "ranking_cache: read daily activity")
	}
	return parseActivity(raw)
}

func activityFields(activity map[string]int) map[string]interface{} {
	fields := make(map[string]interface{}, len(activity))
	for day, n := range activity {
		fields[day] = n
	}
	return fields
}

func parseActivity(raw map[string]string) (map[string]int, error) {
	activity := make(map[string]int, len(raw))
	for day, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "ranking_cache: day %s has non-numeric count %q", day, v)
		}
		activity[day] = n
	}
	return activity, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Summaries
// ──────────────────────────────────────────────────────────────────────────────

// PublishSummary stores summary as JSON under name. A non-positive ttl uses
// TTLSummary.
func (r *RankingCache) PublishSummary(ctx context.Context, name string, summary any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLSummary
	}
	if err := r.cache.SetJSON(ctx, r.SummaryKey(name), summary, ttl); err != nil {
		return errors.Wrapf(err, "ranking_cache: publish summary %s", name)
	}
	return nil
}

// Summary loads a published summary into dest.
func (r *RankingCache) Summary(ctx context.Context, name string, dest any) error {
	return r.cache.GetJSON(ctx, r.SummaryKey(name), dest)
}
