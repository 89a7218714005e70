package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

func TestNewSubscription_Defaults(t *testing.T) {
	s, err := NewSubscription("s1", "u1", "chan-1", testNow)
	require.NoError(t, err)

	assert.Equal(t, ActionSubscribe, s.Action())
	assert.Equal(t, NotifyAll, s.NotificationLevel())
	assert.Equal(t, TierFree, s.Tier())
	assert.True(t, s.IsSubscribed())

	_, err = NewSubscription("s2", "u1", "chan-1", testNow, WithAction("follow"))
	assert.ErrorIs(t, err, shared.ErrInvalidAction)

	_, err = NewSubscription("s2", "u1", "chan-1", testNow, WithTier("gold"))
	assert.ErrorIs(t, err, shared.ErrInvalidTier)

	_, err = NewSubscription("s2", "u1", "", testNow)
	assert.ErrorIs(t, err, shared.ErrEmptyChannelID)
}

func TestSubscription_ProcessPairIsIndependent(t *testing.T) {
	counters := NewCounters()

	sub, err := NewSubscription("s1", "u1", "chan-1", testNow)
	require.NoError(t, err)
	unsub, err := NewSubscription("s2", "u1", "chan-1", testNow, WithAction(ActionUnsubscribe))
	require.NoError(t, err)

	assert.True(t, sub.Process(counters))
	assert.True(t, unsub.Process(counters))

	assert.True(t, sub.IsSubscribed())
	assert.Equal(t, StatusActive, sub.Status())
	assert.False(t, unsub.IsSubscribed())
	assert.Equal(t, StatusInactive, unsub.Status())

	// Processing again must not double count.
	assert.True(t, sub.Process(counters))
	snap := counters.Snapshot()
	assert.Equal(t, 1, snap.TotalSubscriptions)
	assert.Equal(t, 1, snap.TotalUnsubscriptions)
	assert.Equal(t, 0, snap.NetSubscriptions())
	assert.Equal(t, 0.0, snap.Retention())
	assert.Equal(t, 100.0, snap.Churn())
}

func TestSubscription_DeletedIsNotSubscribed(t *testing.T) {
	s, err := NewSubscription("s1", "u1", "chan-1", testNow)
	require.NoError(t, err)
	s.MarkAsDeleted()
	assert.False(t, s.IsSubscribed())
	s.Restore()
	assert.True(t, s.IsSubscribed())
}

func TestSubscription_TierAndNotifications(t *testing.T) {
	s, err := NewSubscription("s1", "u1", "chan-1", testNow, WithNotificationLevel(NotifyNone))
	require.NoError(t, err)

	assert.ErrorIs(t, s.UpgradeTier("platinum"), shared.ErrValidation)
	assert.Equal(t, TierFree, s.Tier())

	require.NoError(t, s.UpgradeTier(TierPremium))
	assert.Equal(t, TierPremium, s.Tier())
	assert.Equal(t, 2, s.Tier().Rank())
	s.DowngradeTier()
	assert.Equal(t, TierFree, s.Tier())

	assert.ErrorIs(t, s.SetNotificationLevel("sometimes"), shared.ErrInvalidNotificationLevel)
	require.NoError(t, s.SetNotificationLevel(NotifyPersonalized))
	assert.Equal(t, NotifyPersonalized, s.NotificationLevel())

	v := s.ToView()
	assert.Equal(t, "chan-1", v[ViewChannelID])
	assert.Equal(t, "subscribe", v[ViewAction])
	assert.Equal(t, "personalized", v[ViewNotificationLevel])
	assert.Equal(t, "free", v[ViewTier])
}

func TestRetentionAndChurn(t *testing.T) {
	assert.Equal(t, 0.0, Retention(0, 5))
	assert.Equal(t, 0.0, Churn(0, 5))
	assert.InDelta(t, 75.0, Retention(4, 1), 1e-9)
	assert.InDelta(t, 25.0, Churn(4, 1), 1e-9)
}
