package interaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

func TestRecord_StatusTransitions(t *testing.T) {
	var r Record = newTestComment(t, "c1", "hello")

	require.NoError(t, r.SetStatus(StatusFlagged))
	require.NoError(t, r.SetStatus(StatusActive))
	r.MarkAsDeleted()
	assert.True(t, r.IsDeleted())
	assert.False(t, r.IsActive())
	r.Restore()
	assert.True(t, r.IsActive())

	err := r.SetStatus(Status("archived"))
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.True(t, shared.IsInvalidState(err))
	assert.Equal(t, StatusActive, r.Status())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("inactive")
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, s)

	_, err = ParseStatus("gone")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestRecord_AgeIsDerived(t *testing.T) {
	r := newTestComment(t, "c1", "hello")
	now := testNow.Add(90 * time.Minute)

	assert.Equal(t, 90*time.Minute, r.Age(now))
	assert.Equal(t, 5400.0, r.AgeIn(now, AgeSeconds))
	assert.Equal(t, 90.0, r.AgeIn(now, AgeMinutes))
	assert.Equal(t, 1.5, r.AgeIn(now, AgeHours))
	assert.Equal(t, "2025-03-14", r.CreatedDate())
}

func TestRecord_Ownership(t *testing.T) {
	r := newTestComment(t, "c1", "hello")

	assert.True(t, r.IsOwner("user-1"))
	assert.False(t, r.IsOwner("user-2"))
	assert.True(t, r.HasPermission("user-1"))
	r.MarkAsDeleted()
	assert.False(t, r.HasPermission("user-1"))
}

func TestVariantSelection(t *testing.T) {
	c := newTestComment(t, "c1", "hello")
	l := newTestLike(t, "l1", PolarityLike)
	s, err := NewSubscription("s1", "u1", "chan", testNow)
	require.NoError(t, err)

	records := []Record{c, l, s}

	assert.Len(t, Comments(records), 1)
	assert.Len(t, Likes(records), 1)
	assert.Len(t, Subscriptions(records), 1)

	_, ok := l.AsComment()
	assert.False(t, ok)
	_, ok = c.AsSubscription()
	assert.False(t, ok)

	l.MarkAsDeleted()
	assert.Equal(t, []Record{c, s}, NotDeleted(records))
}

func TestPredicates(t *testing.T) {
	c := newTestComment(t, "c1", "hello")
	l := newTestLike(t, "l1", PolarityLike)
	l.MarkAsDeleted()

	assert.True(t, All()(c))
	assert.True(t, ByKind(KindLike)(l))
	assert.False(t, ByKind(KindLike)(c))
	assert.True(t, And(ByUser("user-1"), ByStatus(StatusDeleted))(l))
	assert.False(t, Not(ByStatus(StatusDeleted))(l))
	assert.True(t, CreatedBetween(testNow, testNow)(c))
	assert.False(t, CreatedBetween(testNow.Add(time.Second), testNow.Add(time.Hour))(c))
}
