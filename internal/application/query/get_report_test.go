package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/internal/domain/shared"
	"github.com/alem-hub/interaction-hub/internal/infrastructure/persistence/memory"
)

type fakeRanking struct {
	ids []interaction.RecordID
	err error
}

func (f *fakeRanking) PublishCommentRanking(context.Context, []interaction.RecordID) error {
	return nil
}

func (f *fakeRanking) TopCommentIDs(_ context.Context, n int) ([]interaction.RecordID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return limit(f.ids, n), nil
}

func (f *fakeRanking) PublishDailyActivity(context.Context, map[string]int) error { return nil }

func (f *fakeRanking) DailyActivity(context.Context) (map[string]int, error) { return nil, nil }

func (f *fakeRanking) PublishSummary(context.Context, string, any, time.Duration) error { return nil }

func seededStore(t *testing.T) *memory.InteractionStore {
	t.Helper()
	store := memory.NewInteractionStore()
	records := []interaction.Record{
		withLikes(comment(t, "c1", "alice", "v1", "Loved it #go", now), 2),
		withLikes(comment(t, "c2", "bob", "v1", "Meh #go #tips", now.Add(-48*time.Hour)), 8),
		like(t, "l1", "alice", "v1", interaction.TargetVideo, interaction.PolarityLike, now),
		subscription(t, "s1", "carol", "ch1", interaction.ActionSubscribe, now),
	}
	for _, r := range records {
		require.NoError(t, store.Add(r))
	}
	return store
}

func TestGetReportQuery_Validate(t *testing.T) {
	tests := []struct {
		name  string
		query GetReportQuery
		ok    bool
	}{
		{"overview", GetReportQuery{Section: SectionOverview}, true},
		{"unknown section", GetReportQuery{Section: "nope"}, false},
		{"user without id", GetReportQuery{Section: SectionUser}, false},
		{"search without keyword", GetReportQuery{Section: SectionSearch}, false},
		{"negative days", GetReportQuery{Section: SectionActivity, Days: -1}, false},
		{"bad target type", GetReportQuery{Section: SectionControversial, TargetType: "channel"}, false},
		{"comment targets", GetReportQuery{Section: SectionControversial, TargetType: "comment"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGetReportHandler_Sections(t *testing.T) {
	store := seededStore(t)
	h := NewGetReportHandler(store, clockwork.NewFakeClockAt(now), time.UTC)
	ctx := context.Background()

	res, err := h.Handle(ctx, GetReportQuery{Section: SectionOverview})
	require.NoError(t, err)
	assert.Equal(t, now, res.GeneratedAt)
	assert.Equal(t, 4, res.Data.(GeneralOverview).TotalInteractions)

	res, err = h.Handle(ctx, GetReportQuery{Section: SectionUser, UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Data.(UserReport).Total)

	res, err = h.Handle(ctx, GetReportQuery{Section: SectionActivity, Days: 3})
	require.NoError(t, err)
	activity := res.Data.(map[string]int)
	assert.Len(t, activity, 3)
	assert.Equal(t, 3, activity["2025-03-14"])
	assert.Equal(t, 1, activity["2025-03-12"])

	res, err = h.Handle(ctx, GetReportQuery{Section: SectionSearch, Keyword: "meh", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, ids(res.Data.([]interaction.View)))

	for _, section := range Sections() {
		q := GetReportQuery{Section: section, UserID: "alice", Keyword: "go"}
		_, err := h.Handle(ctx, q)
		assert.NoError(t, err, section)
	}
}

func TestGetReportHandler_InvalidQuery(t *testing.T) {
	h := NewGetReportHandler(memory.NewInteractionStore(), nil, nil)

	_, err := h.Handle(context.Background(), GetReportQuery{Section: "nope"})
	assert.True(t, shared.IsValidation(err))
}

func TestGetTopCommentsHandler_CacheFirst(t *testing.T) {
	store := seededStore(t)

	// The cached order wins over a fresh ranking of the store.
	cache := &fakeRanking{ids: []interaction.RecordID{"c1", "c2"}}
	res, err := NewGetTopCommentsHandler(store, cache, nil).Handle(context.Background(), GetTopCommentsQuery{Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.Equal(t, []string{"c1", "c2"}, ids(res.Comments))
}

func TestGetTopCommentsHandler_CacheKeepsFlaggedComments(t *testing.T) {
	store := seededStore(t)
	require.NoError(t, store.Update("c1", func(r interaction.Record) error {
		return r.SetStatus(interaction.StatusFlagged)
	}))
	ctx := context.Background()

	fromStore, err := NewGetTopCommentsHandler(store, nil, nil).Handle(ctx, GetTopCommentsQuery{Limit: 2})
	require.NoError(t, err)

	cache := &fakeRanking{ids: []interaction.RecordID{"c2", "c1"}}
	fromCache, err := NewGetTopCommentsHandler(store, cache, nil).Handle(ctx, GetTopCommentsQuery{Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, SourceCache, fromCache.Source)
	assert.Equal(t, []string{"c2", "c1"}, ids(fromStore.Comments))
	assert.Equal(t, ids(fromStore.Comments), ids(fromCache.Comments))
}

func TestGetTopCommentsHandler_StaleCache(t *testing.T) {
	ctx := context.Background()

	for name, cached := range map[string][]interaction.RecordID{
		"deleted comment": {"c2", "c1"},
		"unknown id":      {"c2", "missing"},
		"not a comment":   {"c2", "l1"},
	} {
		t.Run(name, func(t *testing.T) {
			store := seededStore(t)
			require.True(t, store.SoftDelete("c1"))

			res, err := NewGetTopCommentsHandler(store, &fakeRanking{ids: cached}, nil).Handle(ctx, GetTopCommentsQuery{Limit: 2})
			require.NoError(t, err)
			assert.Equal(t, SourceStore, res.Source)
			assert.Equal(t, []string{"c2"}, ids(res.Comments))
		})
	}
}

func TestGetTopCommentsHandler_FallsBackToStore(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	for name, cache := range map[string]interaction.RankingCache{
		"no cache":    nil,
		"cache error": &fakeRanking{err: errors.New("connection refused")},
		"empty cache": &fakeRanking{},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := NewGetTopCommentsHandler(store, cache, nil).Handle(ctx, GetTopCommentsQuery{Limit: 2})
			require.NoError(t, err)
			assert.Equal(t, SourceStore, res.Source)
			assert.Equal(t, []string{"c2", "c1"}, ids(res.Comments))
		})
	}

	_, err := NewGetTopCommentsHandler(store, nil, nil).Handle(ctx, GetTopCommentsQuery{Limit: 0})
	assert.True(t, shared.IsValidation(err))
}
