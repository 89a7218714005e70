package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := NewFeatureFlags(clockwork.NewFakeClock())

	assert.True(t, ff.IsEnabled(FeatureSpamReview, nil))
	assert.True(t, ff.IsEnabled(FeatureRedisProjection, nil))
	assert.True(t, ff.IsEnabled(FeatureArchiveSink, nil))
	assert.True(t, ff.IsEnabled(FeatureExportPseudonymize, nil))
	assert.False(t, ff.IsEnabled(FeatureEventJournal, nil))
	assert.False(t, ff.IsEnabled("unknown.feature", nil))
	assert.True(t, ff.ProjectionsEnabled())
}

func TestFeatureFlags_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FEATURE_PROJECTION_REDIS", "false")
	t.Setenv("FEATURE_MODERATION_EVENT_JOURNAL", "true")
	t.Setenv("FEATURE_MODERATION_SPAM_REVIEW", "30")

	ff := NewFeatureFlags(clockwork.NewFakeClock())

	assert.False(t, ff.IsEnabled(FeatureRedisProjection, nil))
	assert.True(t, ff.IsEnabled(FeatureEventJournal, nil))
	assert.Equal(t, 30, ff.GetAllFeatures()[FeatureSpamReview].RolloutPercent)
}

func TestFeatureFlags_EnvKey(t *testing.T) {
	assert.Equal(t, "FEATURE_PROJECTION_TOP_CACHE", featureNameToEnvKey(FeatureTopFromCache))
}

func TestFeatureFlags_Rollout(t *testing.T) {
	ff := NewFeatureFlags(clockwork.NewFakeClock())
	require.NoError(t, ff.SetRolloutPercent(FeatureSpamReview, 50))

	in := 0
	for i := 0; i < 1000; i++ {
		user := fmt.Sprintf("user-%d", i)
		enabled := ff.IsEnabled(FeatureSpamReview, &FeatureContext{UserID: user})
		assert.Equal(t, enabled, ff.IsEnabled(FeatureSpamReview, &FeatureContext{UserID: user}), "bucket must be stable")
		if enabled {
			in++
		}
	}
	assert.InDelta(t, 500, in, 100)

	// Without a user the flag is on as long as the rollout is above zero.
	assert.True(t, ff.IsEnabled(FeatureSpamReview, nil))
}

func TestFeatureFlags_OverridesAndAdmin(t *testing.T) {
	ff := NewFeatureFlags(clockwork.NewFakeClock())
	require.NoError(t, ff.DisableFeature(FeatureArchiveSink))

	assert.False(t, ff.IsEnabled(FeatureArchiveSink, &FeatureContext{UserID: "u1"}))
	assert.True(t, ff.IsEnabled(FeatureArchiveSink, &FeatureContext{UserID: "u1", IsAdmin: true}))

	ff.SetUserOverride("u1", FeatureArchiveSink, true)
	assert.True(t, ff.IsEnabled(FeatureArchiveSink, &FeatureContext{UserID: "u1"}))
	assert.False(t, ff.IsEnabled(FeatureArchiveSink, &FeatureContext{UserID: "u2"}))

	ff.ClearUserOverrides("u1")
	assert.False(t, ff.IsEnabled(FeatureArchiveSink, &FeatureContext{UserID: "u1"}))
}

func TestFeatureFlags_KindRestriction(t *testing.T) {
	ff := NewFeatureFlags(clockwork.NewFakeClock())

	assert.True(t, ff.IsEnabled(FeatureModerationQueue, &FeatureContext{Kind: "comment"}))
	assert.False(t, ff.IsEnabled(FeatureModerationQueue, &FeatureContext{Kind: "like"}))
	assert.True(t, ff.IsEnabled(FeatureModerationQueue, &FeatureContext{}))
}

func TestFeatureFlags_TimeWindow(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	ff := NewFeatureFlags(clock)

	from := start.Add(time.Hour)
	until := start.Add(2 * time.Hour)
	require.NoError(t, ff.SetWindow(FeatureTopFromCache, &from, &until))

	assert.False(t, ff.IsEnabled(FeatureTopFromCache, nil))
	clock.Advance(90 * time.Minute)
	assert.True(t, ff.IsEnabled(FeatureTopFromCache, nil))
	clock.Advance(time.Hour)
	assert.False(t, ff.IsEnabled(FeatureTopFromCache, nil))
}

func TestFeatureFlags_Variants(t *testing.T) {
	ff := NewFeatureFlags(clockwork.NewFakeClock())
	assert.Empty(t, ff.GetVariant(FeatureTopFromCache, &FeatureContext{UserID: "u1"}))

	require.NoError(t, ff.SetVariants(FeatureTopFromCache, "score", "recency"))
	v := ff.GetVariant(FeatureTopFromCache, &FeatureContext{UserID: "u1"})
	assert.Contains(t, []string{"score", "recency"}, v)
	assert.Equal(t, v, ff.GetVariant(FeatureTopFromCache, &FeatureContext{UserID: "u1"}))
	assert.Empty(t, ff.GetVariant(FeatureTopFromCache, nil))
}

func TestFeatureFlags_Errors(t *testing.T) {
	ff := NewFeatureFlags(clockwork.NewFakeClock())

	assert.Equal(t, ErrFeatureNotFound, ff.SetRolloutPercent("missing", 10))
	assert.Equal(t, ErrInvalidRolloutPercent, ff.SetRolloutPercent(FeatureSpamReview, 101))
	assert.Equal(t, ErrFeatureNotFound, ff.SetWindow("missing", nil, nil))
	assert.Equal(t, ErrFeatureNotFound, ff.SetVariants("missing", "a"))
}

func TestFeatureFlags_GetAllFeaturesReturnsCopies(t *testing.T) {
	ff := NewFeatureFlags(clockwork.NewFakeClock())

	all := ff.GetAllFeatures()
	all[FeatureRedisProjection].Enabled = false
	all[FeatureSpamReview].Kinds[0] = "like"

	assert.True(t, ff.IsEnabled(FeatureRedisProjection, nil))
	assert.True(t, ff.IsEnabled(FeatureSpamReview, &FeatureContext{Kind: "comment"}))
}
