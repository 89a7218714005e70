package query

import (
	"time"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS ENGINE
// Aggregate counters over a record snapshot: totals, per-variant rollups,
// trailing-window counts.
// ══════════════════════════════════════════════════════════════════════════════

// CommentStats aggregates comment records.
type CommentStats struct {
	Total         int     `json:"total"`
	Flagged       int     `json:"flagged"`
	Popular       int     `json:"popular"`
	Replies       int     `json:"replies"`
	AverageLength float64 `json:"average_length"`
	AverageScore  float64 `json:"average_score"`
}

// LikeStats aggregates like records by their current polarity.
type LikeStats struct {
	Total     int     `json:"total"`
	Likes     int     `json:"likes"`
	Dislikes  int     `json:"dislikes"`
	LikeRatio float64 `json:"like_ratio"`
	Sentiment float64 `json:"sentiment"`
}

// SubscriptionStats aggregates subscription actions.
type SubscriptionStats struct {
	Total        int     `json:"total"`
	Active       int     `json:"active"`
	Inactive     int     `json:"inactive"`
	Subscribes   int     `json:"subscribes"`
	Unsubscribes int     `json:"unsubscribes"`
	ActiveRatio  float64 `json:"active_ratio"`
	Retention    float64 `json:"retention"`
	Churn        float64 `json:"churn"`
}

// Summary is the composed statistics result.
type Summary struct {
	GeneratedAt       time.Time                  `json:"generated_at"`
	TotalInteractions int                        `json:"total_interactions"`
	ByType            map[interaction.Kind]int   `json:"by_type"`
	ByStatus          map[interaction.Status]int `json:"by_status"`
	Comments          CommentStats               `json:"comments"`
	Likes             LikeStats                  `json:"likes"`
	Subscriptions     SubscriptionStats          `json:"subscriptions"`
	Last24Hours       int                        `json:"last_24_hours"`
}

// StatisticsEngine computes aggregates over a fixed record snapshot.
type StatisticsEngine struct {
	snapshot
}

// NewStatisticsEngine creates an engine over records. The slice is copied;
// records themselves are only read.
func NewStatisticsEngine(records []interaction.Record, opts ...Option) *StatisticsEngine {
	return &StatisticsEngine{snapshot: newSnapshot(records, opts)}
}

// TotalCount returns the number of records, soft-deleted included.
func (e *StatisticsEngine) TotalCount() int {
	return len(e.all)
}

// CountByType returns the record count per variant over all records.
func (e *StatisticsEngine) CountByType() map[interaction.Kind]int {
	return countByType(e.all)
}

// CountByStatus returns the record count per status over all records.
func (e *StatisticsEngine) CountByStatus() map[interaction.Status]int {
	return countByStatus(e.all)
}

// ─────────────────────────────────────────────────────────────────────────────
// Comments
// ─────────────────────────────────────────────────────────────────────────────

// CommentStats aggregates comments. Averages are 0 when there are none.
func (e *StatisticsEngine) CommentStats() CommentStats {
	comments := e.comments()
	stats := CommentStats{Total: len(comments)}
	if len(comments) == 0 {
		return stats
	}

	var totalLength int
	var totalScore float64
	for _, c := range comments {
		if c.IsFlagged() {
			stats.Flagged++
		}
		if c.IsPopular() {
			stats.Popular++
		}
		if c.IsReply() {
			stats.Replies++
		}
		totalLength += c.CharCount()
		totalScore += c.CalculateScore()
	}

	stats.AverageLength = round2(float64(totalLength) / float64(len(comments)))
	stats.AverageScore = round2(totalScore / float64(len(comments)))
	return stats
}

// FlaggedComments returns the number of flagged comments.
func (e *StatisticsEngine) FlaggedComments() int { return e.CommentStats().Flagged }

// PopularComments returns the number of popular comments.
func (e *StatisticsEngine) PopularComments() int { return e.CommentStats().Popular }

// AverageCommentLength returns the mean text length in code points.
func (e *StatisticsEngine) AverageCommentLength() float64 { return e.CommentStats().AverageLength }

// AverageCommentScore returns the mean comment score.
func (e *StatisticsEngine) AverageCommentScore() float64 { return e.CommentStats().AverageScore }

// ─────────────────────────────────────────────────────────────────────────────
// Likes
// ─────────────────────────────────────────────────────────────────────────────

// LikeStats counts likes by their current polarity.
func (e *StatisticsEngine) LikeStats() LikeStats {
	likes := e.likes()
	stats := LikeStats{Total: len(likes)}
	for _, l := range likes {
		if l.IsLike() {
			stats.Likes++
		} else {
			stats.Dislikes++
		}
	}
	stats.LikeRatio = round2(percent(stats.Likes, stats.Likes+stats.Dislikes))
	stats.Sentiment = round2(interaction.SentimentScore(stats.Likes, stats.Dislikes))
	return stats
}

// LikeRatio returns likes as a percentage of all reactions.
func (e *StatisticsEngine) LikeRatio() float64 { return e.LikeStats().LikeRatio }

// ─────────────────────────────────────────────────────────────────────────────
// Subscriptions
// ─────────────────────────────────────────────────────────────────────────────

// SubscriptionStats counts subscription actions and currently subscribed records.
func (e *StatisticsEngine) SubscriptionStats() SubscriptionStats {
	subs := e.subscriptions()
	stats := SubscriptionStats{Total: len(subs)}
	for _, s := range subs {
		if s.IsSubscribed() {
			stats.Active++
		}
		if s.Action() == interaction.ActionSubscribe {
			stats.Subscribes++
		} else {
			stats.Unsubscribes++
		}
	}
	stats.Inactive = stats.Total - stats.Active
	stats.ActiveRatio = round2(percent(stats.Active, stats.Total))
	stats.Retention = round2(interaction.Retention(stats.Subscribes, stats.Unsubscribes))
	stats.Churn = round2(interaction.Churn(stats.Subscribes, stats.Unsubscribes))
	return stats
}

// ActiveSubscriptions returns the number of currently subscribed records.
func (e *StatisticsEngine) ActiveSubscriptions() int { return e.SubscriptionStats().Active }

// SubscriptionRatio returns active subscriptions as a percentage of all subscription records.
func (e *StatisticsEngine) SubscriptionRatio() float64 { return e.SubscriptionStats().ActiveRatio }

// ─────────────────────────────────────────────────────────────────────────────
// Time windows
// ─────────────────────────────────────────────────────────────────────────────

// InteractionsSince counts records created within the trailing window d
// ending at the engine clock's now.
func (e *StatisticsEngine) InteractionsSince(d time.Duration) int {
	return e.countIn(shared.TrailingWindow(e.now(), d))
}

// InteractionsInRange counts records created within tr.
func (e *StatisticsEngine) InteractionsInRange(tr shared.TimeRange) int {
	return e.countIn(tr)
}

func (e *StatisticsEngine) countIn(tr shared.TimeRange) int {
	n := 0
	for _, r := range e.scoped {
		if tr.Contains(r.CreatedAt()) {
			n++
		}
	}
	return n
}

// GenerateSummary composes every aggregate into one result.
func (e *StatisticsEngine) GenerateSummary() Summary {
	now := e.now()
	return Summary{
		GeneratedAt:       now,
		TotalInteractions: e.TotalCount(),
		ByType:            e.CountByType(),
		ByStatus:          e.CountByStatus(),
		Comments:          e.CommentStats(),
		Likes:             e.LikeStats(),
		Subscriptions:     e.SubscriptionStats(),
		Last24Hours:       e.countIn(shared.Last24Hours(now)),
	}
}
