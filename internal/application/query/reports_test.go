package query

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
)

func withLikes(c *interaction.Comment, n int) *interaction.Comment {
	for i := 0; i < n; i++ {
		c.AddLike()
	}
	return c
}

func ids(views []interaction.View) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v[interaction.ViewID].(string))
	}
	return out
}

func TestReportEngine_TopCommentsStable(t *testing.T) {
	records := []interaction.Record{
		withLikes(comment(t, "a", "u1", "v1", "first", now), 10),
		withLikes(comment(t, "b", "u1", "v1", "second", now), 10),
		withLikes(comment(t, "c", "u1", "v1", "third", now), 5),
	}
	r := NewReportEngine(records)

	assert.Equal(t, []string{"a", "b"}, ids(r.TopComments(2)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(r.TopComments(10)))
	assert.Empty(t, r.TopComments(0))

	// Sorting a ranking must not reorder the engine's own snapshot.
	assert.Equal(t, []string{"a", "b", "c"}, ids(r.ExportRaw()))
}

func TestReportEngine_RankedCommentIDs(t *testing.T) {
	tied := withLikes(comment(t, "a", "u1", "v1", "first", now), 10)
	second := withLikes(comment(t, "b", "u1", "v1", "second", now), 10)
	low := withLikes(comment(t, "c", "u1", "v1", "third", now), 5)
	deleted := withLikes(comment(t, "d", "u1", "v1", "fourth", now), 30)
	deleted.MarkAsDeleted()

	records := []interaction.Record{low, tied, deleted, second}
	r := NewReportEngine(records)
	assert.Equal(t, []interaction.RecordID{"a", "b", "c"}, r.RankedCommentIDs())
	assert.Equal(t, []string{"a", "b", "c"}, ids(r.TopComments(10)))

	withDeleted := NewReportEngine(records, IncludeDeleted()).RankedCommentIDs()
	assert.Equal(t, []interaction.RecordID{"d", "a", "b", "c"}, withDeleted)
}

func TestReportEngine_LengthRankings(t *testing.T) {
	records := []interaction.Record{
		comment(t, "a", "u1", "v1", "mid text", now),
		comment(t, "b", "u1", "v1", "a much longer text", now),
		comment(t, "c", "u1", "v1", "tiny", now),
		comment(t, "d", "u1", "v1", "also", now),
	}
	r := NewReportEngine(records)

	assert.Equal(t, []string{"b", "a"}, ids(r.LongestComments(2)))
	assert.Equal(t, []string{"c", "d", "a"}, ids(r.ShortestComments(3)))
}

func TestReportEngine_TextAnalysis(t *testing.T) {
	records := []interaction.Record{
		comment(t, "a", "u1", "v1", "Loved the GoLang part #go #tips", now),
		comment(t, "b", "u1", "v1", "see http://example.com #go", now),
		comment(t, "c", "u1", "v1", "golang forever #Go", now),
	}
	r := NewReportEngine(records)

	assert.Equal(t, 2, r.KeywordFrequency("golang"))
	assert.Equal(t, 0, r.KeywordFrequency(""))
	assert.Equal(t, []string{"a", "c"}, ids(r.SearchComments("GOLANG")))
	assert.Equal(t, []string{"b"}, ids(r.CommentsWithLinks()))

	assert.Equal(t, []HashtagCount{{Tag: "go", Count: 3}, {Tag: "tips", Count: 1}}, r.TopHashtags(5))
	assert.Equal(t, []HashtagCount{{Tag: "go", Count: 3}}, r.TopHashtags(1))
}

func TestReportEngine_ClassifyByScore(t *testing.T) {
	records := []interaction.Record{
		withLikes(comment(t, "a", "u1", "v1", "one", now), 4),
		withLikes(comment(t, "b", "u1", "v1", "two", now), 5),
		withLikes(comment(t, "c", "u1", "v1", "three", now), 14),
		withLikes(comment(t, "d", "u1", "v1", "four", now), 15),
	}
	buckets := NewReportEngine(records).ClassifyCommentsByScore()

	assert.Equal(t, []string{"a"}, ids(buckets[ScoreLow]))
	assert.Equal(t, []string{"b", "c"}, ids(buckets[ScoreMedium]))
	assert.Equal(t, []string{"d"}, ids(buckets[ScoreHigh]))

	empty := NewReportEngine(nil).ClassifyCommentsByScore()
	assert.Len(t, empty, 3)
	assert.Empty(t, empty[ScoreHigh])
}

func TestReportEngine_DailyActivityMap(t *testing.T) {
	clock := clockwork.NewFakeClockAt(now)
	records := []interaction.Record{
		comment(t, "a", "u1", "v1", "today", now.Add(-time.Hour)),
		comment(t, "b", "u1", "v1", "yesterday", now.Add(-24*time.Hour)),
		comment(t, "c", "u1", "v1", "last week", now.Add(-7*24*time.Hour)),
	}

	activity := NewReportEngine(records, WithClock(clock)).DailyActivityMap(3)
	assert.Equal(t, map[string]int{
		"2025-03-12": 0,
		"2025-03-13": 1,
		"2025-03-14": 1,
	}, activity)

	idle := NewReportEngine(nil, WithClock(clock)).DailyActivityMap(3)
	assert.Len(t, idle, 3)
	for _, n := range idle {
		assert.Equal(t, 0, n)
	}

	assert.Empty(t, NewReportEngine(records, WithClock(clock)).DailyActivityMap(0))
}

func TestReportEngine_DailyActivityMapLocation(t *testing.T) {
	almaty := time.FixedZone("Asia/Almaty", 5*60*60)
	late := time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC) // already the 15th in Almaty
	records := []interaction.Record{comment(t, "a", "u1", "v1", "late", late)}

	activity := NewReportEngine(records,
		WithClock(clockwork.NewFakeClockAt(late)),
		WithLocation(almaty),
	).DailyActivityMap(2)

	assert.Equal(t, map[string]int{"2025-03-14": 0, "2025-03-15": 1}, activity)
}

func TestReportEngine_Grouping(t *testing.T) {
	deleted := comment(t, "c3", "u2", "v2", "removed", now)
	deleted.MarkAsDeleted()
	unsub := subscription(t, "s3", "u3", "ch-1", interaction.ActionUnsubscribe, now)
	require.True(t, unsub.Process(nil))

	records := []interaction.Record{
		comment(t, "c1", "u1", "v1", "one", now),
		comment(t, "c2", "u2", "v1", "two", now),
		deleted,
		like(t, "l1", "u1", "v1", interaction.TargetVideo, interaction.PolarityLike, now),
		like(t, "l2", "u2", "v1", interaction.TargetVideo, interaction.PolarityDislike, now),
		like(t, "l3", "u3", "c1", interaction.TargetComment, interaction.PolarityLike, now),
		subscription(t, "s1", "u1", "ch-1", interaction.ActionSubscribe, now),
		subscription(t, "s2", "u2", "ch-2", interaction.ActionSubscribe, now),
		unsub,
	}
	r := NewReportEngine(records)

	assert.Equal(t, map[string]int{"v1": 2}, r.LikesByTarget(interaction.TargetVideo))
	assert.Equal(t, map[string]int{"c1": 1}, r.LikesByTarget(interaction.TargetComment))
	assert.Equal(t, map[string]int{"v1": 2}, r.CommentsByVideo())
	assert.Equal(t, map[string]int{"ch-1": 1, "ch-2": 1}, r.SubscribersByChannel())

	assert.Equal(t, []string{"l1", "l2"}, ids(r.VideoLikes("v1")))
	assert.Equal(t, []string{"l3"}, ids(r.CommentLikes("c1")))
	assert.Equal(t, []string{"s1"}, ids(r.ChannelSubscribers("ch-1")))

	user := r.InteractionsByUser("u2")
	assert.Equal(t, 4, user.Total)
	assert.Equal(t, 3, user.Active)
	assert.Equal(t, 1, user.Deleted)
	assert.Equal(t, map[interaction.Kind]int{
		interaction.KindComment:      2,
		interaction.KindLike:         1,
		interaction.KindSubscription: 1,
	}, user.ByType)

	general := r.GeneralOverview()
	assert.Equal(t, 9, general.TotalInteractions)
	assert.Equal(t, 7, general.Active)
	assert.Equal(t, 1, general.Deleted)
	assert.Equal(t, 1, general.Inactive)

	assert.Len(t, r.ExportActive(), 7)
	assert.Len(t, r.ExportRaw(), 9)
}

func TestReportEngine_ControversialTargets(t *testing.T) {
	records := make([]interaction.Record, 0)
	add := func(target string, likes, dislikes int) {
		for i := 0; i < likes; i++ {
			records = append(records, like(t, target+"-l"+string(rune('a'+i)), "u", target, interaction.TargetVideo, interaction.PolarityLike, now))
		}
		for i := 0; i < dislikes; i++ {
			records = append(records, like(t, target+"-d"+string(rune('a'+i)), "u", target, interaction.TargetVideo, interaction.PolarityDislike, now))
		}
	}
	add("split", 5, 5)
	add("loved", 9, 1)
	add("small", 2, 2)

	got := NewReportEngine(records).ControversialTargets(interaction.TargetVideo)
	require.Len(t, got, 1)
	assert.Equal(t, TargetReactions{TargetID: "split", Likes: 5, Dislikes: 5, Sentiment: 0}, got[0])
	assert.Empty(t, NewReportEngine(records).ControversialTargets(interaction.TargetComment))
}

func TestReportEngine_FullReport(t *testing.T) {
	clock := clockwork.NewFakeClockAt(now)
	popular := withLikes(comment(t, "c1", "u1", "v1", "popular", now), 12)
	flagged := comment(t, "c2", "u2", "v1", "hmm", now)
	require.NoError(t, flagged.AddFlag("review"))

	r := NewReportEngine([]interaction.Record{popular, flagged}, WithClock(clock))
	report := r.FullReport()

	assert.Equal(t, now, report.GeneratedAt)
	assert.Equal(t, 2, report.General.TotalInteractions)
	assert.Equal(t, 1, report.Comments.Popular)
	assert.Equal(t, 1, report.Comments.Flagged)
	assert.Equal(t, []string{"c2"}, ids(r.FlaggedComments()))
	assert.Equal(t, []string{"c1"}, ids(r.PopularComments()))
	assert.Equal(t, "ReportEngine(total=2)", r.String())
}
