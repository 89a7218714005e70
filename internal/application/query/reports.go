package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT ENGINE
// Rankings, text analysis, classification and grouped views built on the
// same snapshot contract as the statistics engine.
// ══════════════════════════════════════════════════════════════════════════════

// Score classes used by ClassifyCommentsByScore.
const (
	ScoreLow    = "low"
	ScoreMedium = "medium"
	ScoreHigh   = "high"

	mediumScoreFrom = 5.0
	highScoreFrom   = 15.0
)

// GeneralOverview counts every record by status.
type GeneralOverview struct {
	GeneratedAt       time.Time `json:"generated_at"`
	TotalInteractions int       `json:"total_interactions"`
	Active            int       `json:"active"`
	Deleted           int       `json:"deleted"`
	Flagged           int       `json:"flagged"`
	Inactive          int       `json:"inactive"`
}

// FullReport bundles every overview.
type FullReport struct {
	GeneratedAt   time.Time         `json:"generated_at"`
	General       GeneralOverview   `json:"general"`
	Comments      CommentStats      `json:"comments"`
	Likes         LikeStats         `json:"likes"`
	Subscriptions SubscriptionStats `json:"subscriptions"`
}

// UserReport is the per-user breakdown with variant counts.
type UserReport struct {
	UserID  interaction.UserID       `json:"user_id"`
	Total   int                      `json:"total"`
	Active  int                      `json:"active"`
	Deleted int                      `json:"deleted"`
	ByType  map[interaction.Kind]int `json:"by_type"`
}

// HashtagCount is one entry of the hashtag ranking.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TargetReactions is the like/dislike split for one target.
type TargetReactions struct {
	TargetID  string  `json:"target_id"`
	Likes     int     `json:"likes"`
	Dislikes  int     `json:"dislikes"`
	Sentiment float64 `json:"sentiment"`
}

// ReportEngine derives report views from a fixed record snapshot.
type ReportEngine struct {
	snapshot
	stats *StatisticsEngine
}

// NewReportEngine creates an engine over records.
func NewReportEngine(records []interaction.Record, opts ...Option) *ReportEngine {
	snap := newSnapshot(records, opts)
	return &ReportEngine{
		snapshot: snap,
		stats:    &StatisticsEngine{snapshot: snap},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Overviews
// ─────────────────────────────────────────────────────────────────────────────

// GeneralOverview counts all records, soft-deleted included.
func (r *ReportEngine) GeneralOverview() GeneralOverview {
	byStatus := countByStatus(r.all)
	return GeneralOverview{
		GeneratedAt:       r.now(),
		TotalInteractions: len(r.all),
		Active:            byStatus[interaction.StatusActive],
		Deleted:           byStatus[interaction.StatusDeleted],
		Flagged:           byStatus[interaction.StatusFlagged],
		Inactive:          byStatus[interaction.StatusInactive],
	}
}

// CommentOverview returns comment aggregates.
func (r *ReportEngine) CommentOverview() CommentStats { return r.stats.CommentStats() }

// LikeOverview returns like aggregates.
func (r *ReportEngine) LikeOverview() LikeStats { return r.stats.LikeStats() }

// SubscriptionOverview returns subscription aggregates.
func (r *ReportEngine) SubscriptionOverview() SubscriptionStats { return r.stats.SubscriptionStats() }

// FullReport composes all overviews.
func (r *ReportEngine) FullReport() FullReport {
	general := r.GeneralOverview()
	return FullReport{
		GeneratedAt:   general.GeneratedAt,
		General:       general,
		Comments:      r.CommentOverview(),
		Likes:         r.LikeOverview(),
		Subscriptions: r.SubscriptionOverview(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Rankings
// ─────────────────────────────────────────────────────────────────────────────

// TopComments returns the n highest scoring comments. Ties keep insertion order.
func (r *ReportEngine) TopComments(n int) []interaction.View {
	return commentViews(limit(r.rankedComments(), n))
}

// RankedCommentIDs returns every comment in scope in TopComments order.
func (r *ReportEngine) RankedCommentIDs() []interaction.RecordID {
	comments := r.rankedComments()
	ids := make([]interaction.RecordID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID())
	}
	return ids
}

func (r *ReportEngine) rankedComments() []*interaction.Comment {
	comments := r.comments()
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CalculateScore() > comments[j].CalculateScore()
	})
	return comments
}

// LongestComments returns the n longest comments. Ties keep insertion order.
func (r *ReportEngine) LongestComments(n int) []interaction.View {
	comments := r.comments()
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CharCount() > comments[j].CharCount()
	})
	return commentViews(limit(comments, n))
}

// ShortestComments returns the n shortest comments. Ties keep insertion order.
func (r *ReportEngine) ShortestComments(n int) []interaction.View {
	comments := r.comments()
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CharCount() < comments[j].CharCount()
	})
	return commentViews(limit(comments, n))
}

// TopHashtags ranks hashtags by occurrences, ties in first-seen order.
func (r *ReportEngine) TopHashtags(n int) []HashtagCount {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, c := range r.comments() {
		for _, tag := range c.FindHashtags() {
			tag = strings.ToLower(tag)
			if tag == "" {
				continue
			}
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	ranking := make([]HashtagCount, 0, len(order))
	for _, tag := range order {
		ranking = append(ranking, HashtagCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})
	return limit(ranking, n)
}

// ─────────────────────────────────────────────────────────────────────────────
// Text analysis
// ─────────────────────────────────────────────────────────────────────────────

// KeywordFrequency counts comments containing keyword, case-insensitively.
// An empty keyword counts nothing.
func (r *ReportEngine) KeywordFrequency(keyword string) int {
	return len(r.matchingComments(keyword))
}

// SearchComments returns views of comments containing keyword.
func (r *ReportEngine) SearchComments(keyword string) []interaction.View {
	return commentViews(r.matchingComments(keyword))
}

func (r *ReportEngine) matchingComments(keyword string) []*interaction.Comment {
	out := make([]*interaction.Comment, 0)
	if strings.TrimSpace(keyword) == "" {
		return out
	}
	for _, c := range r.comments() {
		if interaction.ContainsKeyword(c.Text(), keyword) {
			out = append(out, c)
		}
	}
	return out
}

// CommentsWithLinks returns comments whose text mentions http.
func (r *ReportEngine) CommentsWithLinks() []interaction.View {
	return r.commentsWhere(func(c *interaction.Comment) bool {
		return interaction.ContainsLink(c.Text())
	})
}

// FlaggedComments returns comments with moderation tags or flagged status.
func (r *ReportEngine) FlaggedComments() []interaction.View {
	return r.commentsWhere((*interaction.Comment).IsFlagged)
}

// PopularComments returns comments over the popularity threshold.
func (r *ReportEngine) PopularComments() []interaction.View {
	return r.commentsWhere((*interaction.Comment).IsPopular)
}

func (r *ReportEngine) commentsWhere(pred func(*interaction.Comment) bool) []interaction.View {
	out := make([]*interaction.Comment, 0)
	for _, c := range r.comments() {
		if pred(c) {
			out = append(out, c)
		}
	}
	return commentViews(out)
}

// ClassifyCommentsByScore buckets comments into low (<5), medium (<15) and
// high. Every bucket is present.
func (r *ReportEngine) ClassifyCommentsByScore() map[string][]interaction.View {
	buckets := map[string][]interaction.View{
		ScoreLow:    {},
		ScoreMedium: {},
		ScoreHigh:   {},
	}
	for _, c := range r.comments() {
		class := ClassifyScore(c.CalculateScore())
		buckets[class] = append(buckets[class], c.ToView())
	}
	return buckets
}

// ClassifyScore returns the score class for score.
func ClassifyScore(score float64) string {
	switch {
	case score < mediumScoreFrom:
		return ScoreLow
	case score < highScoreFrom:
		return ScoreMedium
	default:
		return ScoreHigh
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Time windows
// ─────────────────────────────────────────────────────────────────────────────

// DailyActivityMap returns interaction counts for the last days calendar
// days including today. Every day is present, with 0 when idle.
func (r *ReportEngine) DailyActivityMap(days int) map[string]int {
	keys := timeutil.LastNDayKeys(r.now(), days, r.cfg.location)
	activity := make(map[string]int, len(keys))
	for _, k := range keys {
		activity[k] = 0
	}
	for _, rec := range r.scoped {
		key := timeutil.DayKey(rec.CreatedAt(), r.cfg.location)
		if _, ok := activity[key]; ok {
			activity[key]++
		}
	}
	return activity
}

// ─────────────────────────────────────────────────────────────────────────────
// Grouping
// ─────────────────────────────────────────────────────────────────────────────

// LikesByTarget counts likes per target id for one target type, both polarities.
func (r *ReportEngine) LikesByTarget(targetType interaction.TargetType) map[string]int {
	result := make(map[string]int)
	for _, l := range r.likes() {
		if l.TargetType() == targetType {
			result[l.TargetID()]++
		}
	}
	return result
}

// CommentsByVideo counts comments per target content id.
func (r *ReportEngine) CommentsByVideo() map[string]int {
	result := make(map[string]int)
	for _, c := range r.comments() {
		result[c.TargetContentID()]++
	}
	return result
}

// SubscribersByChannel counts currently subscribed records per channel.
func (r *ReportEngine) SubscribersByChannel() map[string]int {
	result := make(map[string]int)
	for _, s := range r.subscriptions() {
		if s.IsSubscribed() {
			result[s.ChannelID()]++
		}
	}
	return result
}

// VideoLikes returns reactions on one video.
func (r *ReportEngine) VideoLikes(videoID string) []interaction.View {
	return r.likesOn(interaction.TargetVideo, videoID)
}

// CommentLikes returns reactions on one comment.
func (r *ReportEngine) CommentLikes(commentID string) []interaction.View {
	return r.likesOn(interaction.TargetComment, commentID)
}

func (r *ReportEngine) likesOn(targetType interaction.TargetType, targetID string) []interaction.View {
	views := make([]interaction.View, 0)
	for _, l := range r.likes() {
		if l.TargetType() == targetType && l.TargetID() == targetID {
			views = append(views, l.ToView())
		}
	}
	return views
}

// ChannelSubscribers returns the active subscribe records for a channel.
func (r *ReportEngine) ChannelSubscribers(channelID string) []interaction.View {
	views := make([]interaction.View, 0)
	for _, s := range r.subscriptions() {
		if s.ChannelID() == channelID && s.IsSubscribed() {
			views = append(views, s.ToView())
		}
	}
	return views
}

// ControversialTargets returns targets of targetType whose reactions are
// controversial, in first-seen order.
func (r *ReportEngine) ControversialTargets(targetType interaction.TargetType) []TargetReactions {
	byTarget := make(map[string]*TargetReactions)
	order := make([]string, 0)
	for _, l := range r.likes() {
		if l.TargetType() != targetType {
			continue
		}
		tr, ok := byTarget[l.TargetID()]
		if !ok {
			tr = &TargetReactions{TargetID: l.TargetID()}
			byTarget[l.TargetID()] = tr
			order = append(order, l.TargetID())
		}
		if l.IsLike() {
			tr.Likes++
		} else {
			tr.Dislikes++
		}
	}

	result := make([]TargetReactions, 0)
	for _, id := range order {
		tr := byTarget[id]
		if interaction.IsControversial(tr.Likes, tr.Dislikes) {
			tr.Sentiment = round2(interaction.SentimentScore(tr.Likes, tr.Dislikes))
			result = append(result, *tr)
		}
	}
	return result
}

// InteractionsByUser reports one user's records, soft-deleted included.
func (r *ReportEngine) InteractionsByUser(user interaction.UserID) UserReport {
	mine := make([]interaction.Record, 0)
	report := UserReport{UserID: user}
	for _, rec := range r.all {
		if rec.UserID() != user {
			continue
		}
		mine = append(mine, rec)
		report.Total++
		if rec.IsActive() {
			report.Active++
		}
		if rec.IsDeleted() {
			report.Deleted++
		}
	}
	report.ByType = countByType(mine)
	return report
}

// ─────────────────────────────────────────────────────────────────────────────
// Export
// ─────────────────────────────────────────────────────────────────────────────

// ExportActive returns views of active records.
func (r *ReportEngine) ExportActive() []interaction.View {
	views := make([]interaction.View, 0)
	for _, rec := range r.all {
		if rec.IsActive() {
			views = append(views, rec.ToView())
		}
	}
	return views
}

// ExportRaw returns views of every record.
func (r *ReportEngine) ExportRaw() []interaction.View {
	views := make([]interaction.View, 0, len(r.all))
	for _, rec := range r.all {
		views = append(views, rec.ToView())
	}
	return views
}

// String implements fmt.Stringer.
func (r *ReportEngine) String() string {
	return fmt.Sprintf("ReportEngine(total=%d)", len(r.all))
}

func commentViews(comments []*interaction.Comment) []interaction.View {
	views := make([]interaction.View, 0, len(comments))
	for _, c := range comments {
		views = append(views, c.ToView())
	}
	return views
}

func limit[T any](items []T, n int) []T {
	if n <= 0 {
		return items[:0]
	}
	if n < len(items) {
		return items[:n]
	}
	return items
}
