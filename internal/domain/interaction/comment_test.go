package interaction

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestComment(t *testing.T, id, text string, opts ...CommentOption) *Comment {
	t.Helper()
	c, err := NewComment(RecordID(id), "user-1", "video-1", text, testNow, opts...)
	require.NoError(t, err)
	return c
}

func TestNewComment_Validation(t *testing.T) {
	_, err := NewComment("c1", "u1", "v1", "   ", testNow)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.True(t, shared.IsValidation(err))

	_, err = NewComment("", "u1", "v1", "text", testNow)
	assert.ErrorIs(t, err, shared.ErrEmptyRecordID)

	_, err = NewComment("c1", "", "v1", "text", testNow)
	assert.ErrorIs(t, err, shared.ErrEmptyUserID)

	_, err = NewComment("c1", "u1", "", "text", testNow)
	assert.ErrorIs(t, err, shared.ErrEmptyContentID)

	c, err := NewComment("c1", "u1", "v1", "text", testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, c.Status())
	assert.Equal(t, KindComment, c.Kind())
	assert.False(t, c.IsReply())
}

func TestComment_ValidateLength(t *testing.T) {
	c := newTestComment(t, "c1", strings.Repeat("a ", 250))
	assert.True(t, c.Validate())

	long := newTestComment(t, "c2", strings.Repeat("ab ", 200))
	assert.False(t, long.Validate())
	assert.Equal(t, StatusActive, long.Status(), "validate must not change status")
}

func TestComment_ProcessFlagsInvalidAndSpam(t *testing.T) {
	long := newTestComment(t, "c1", strings.Repeat("ab ", 200))
	assert.False(t, long.Process(nil))
	assert.Equal(t, StatusFlagged, long.Status())
	assert.True(t, long.IsFlagged())

	spam := newTestComment(t, "c2", "buy http://a http://b http://c")
	assert.False(t, spam.Process(nil))
	assert.Equal(t, StatusFlagged, spam.Status())
	assert.Equal(t, []string{FlagSpam}, spam.Flags())

	ok := newTestComment(t, "c3", "hello world")
	assert.True(t, ok.Process(nil))
	assert.Equal(t, StatusActive, ok.Status())
	assert.False(t, ok.IsFlagged())
}

func TestComment_Score(t *testing.T) {
	c := newTestComment(t, "c1", "nice")
	assert.Equal(t, 0.0, c.CalculateScore())

	for i := 0; i < 15; i++ {
		c.AddLike()
	}
	assert.Equal(t, 15.0, c.CalculateScore())
	assert.True(t, c.IsPopular())

	prev := c.CalculateScore()
	c.AddReply()
	assert.Greater(t, c.CalculateScore(), prev)

	prev = c.CalculateScore()
	c.AddDislike()
	assert.Less(t, c.CalculateScore(), prev)

	clamped := newTestComment(t, "c2", "meh")
	for i := 0; i < 4; i++ {
		clamped.AddDislike()
	}
	assert.Equal(t, 0.0, clamped.CalculateScore())
}

func TestComment_ScoreMonotonic(t *testing.T) {
	for likes := 0; likes < 5; likes++ {
		for replies := 0; replies < 5; replies++ {
			for dislikes := 0; dislikes < 20; dislikes++ {
				c := &Comment{likeCount: likes, replyCount: replies, dislikeCount: dislikes}
				score := c.CalculateScore()
				assert.GreaterOrEqual(t, score, 0.0)

				more := &Comment{likeCount: likes + 1, replyCount: replies, dislikeCount: dislikes}
				assert.GreaterOrEqual(t, more.CalculateScore(), score)

				moreReplies := &Comment{likeCount: likes, replyCount: replies + 1, dislikeCount: dislikes}
				assert.GreaterOrEqual(t, moreReplies.CalculateScore(), score)

				moreDislikes := &Comment{likeCount: likes, replyCount: replies, dislikeCount: dislikes + 1}
				assert.LessOrEqual(t, moreDislikes.CalculateScore(), score)
			}
		}
	}
}

func TestComment_Popularity(t *testing.T) {
	c := newTestComment(t, "c1", "text")
	for i := 0; i < 4; i++ {
		c.AddReply()
	}
	assert.False(t, c.IsPopular())
	c.AddReply()
	assert.True(t, c.IsPopular())
}

func TestComment_Reactions(t *testing.T) {
	c := newTestComment(t, "c1", "text")
	c.RemoveLike()
	c.RemoveDislike()
	assert.Equal(t, 0, c.LikeCount())
	assert.Equal(t, 0, c.DislikeCount())
	assert.False(t, c.HasReactions())
	assert.Equal(t, 0.0, c.LikeRatio())

	// No likes yet: toggle adds one.
	c.ToggleLike()
	assert.Equal(t, 1, c.LikeCount())

	// With likes: toggle converts one into a dislike.
	c.ToggleLike()
	assert.Equal(t, 0, c.LikeCount())
	assert.Equal(t, 1, c.DislikeCount())

	c.AddLike()
	c.AddLike()
	c.AddLike()
	assert.Equal(t, 4, c.ReactionCount())
	assert.InDelta(t, 75.0, c.LikeRatio(), 1e-9)
}

func TestComment_EditPinFlags(t *testing.T) {
	c := newTestComment(t, "c1", "first")

	assert.ErrorIs(t, c.Edit("  "), shared.ErrEmptyCommentText)
	assert.False(t, c.IsEdited())

	require.NoError(t, c.Edit("second"))
	assert.True(t, c.IsEdited())
	assert.Equal(t, "second", c.Text())

	c.Pin()
	assert.True(t, c.IsPinned())
	c.Unpin()
	assert.False(t, c.IsPinned())

	assert.ErrorIs(t, c.AddFlag(""), shared.ErrEmptyFlagReason)
	require.NoError(t, c.AddFlag("offensive"))
	require.NoError(t, c.AddFlag("offensive"))
	require.NoError(t, c.AddFlag("off-topic"))
	assert.Equal(t, []string{"offensive", "off-topic"}, c.Flags())
	assert.True(t, c.IsFlagged())
	assert.Equal(t, StatusActive, c.Status())

	c.ClearFlags()
	assert.False(t, c.IsFlagged())

	require.NoError(t, c.SetStatus(StatusFlagged))
	assert.True(t, c.IsFlagged())
}

func TestComment_TextHelpers(t *testing.T) {
	c := newTestComment(t, "c1", "loving this @ann #golang #tips")
	assert.Equal(t, []string{"ann"}, c.FindMentions())
	assert.Equal(t, []string{"golang", "tips"}, c.FindHashtags())
	assert.Equal(t, 5, c.WordCount())
	assert.False(t, c.IsLongComment())
	assert.Equal(t, "lovin...", c.Preview(5))
	assert.Equal(t, c.Text(), c.Preview(100))

	long := newTestComment(t, "c2", strings.Repeat("w ", LongCommentWords+1))
	assert.True(t, long.IsLongComment())
}

func TestComment_ViewAndClone(t *testing.T) {
	c := newTestComment(t, "c1", "reply", WithParent("c0"))
	require.NoError(t, c.AddFlag("review"))
	c.AddLike()

	v := c.ToView()
	assert.Equal(t, "c1", v[ViewID])
	assert.Equal(t, "user-1", v[ViewUserID])
	assert.Equal(t, "c0", v[ViewParentCommentID])
	assert.Equal(t, 1, v[ViewLikeCount])
	assert.Equal(t, "2025-03-14T12:00:00Z", v[ViewCreatedAt])
	assert.Equal(t, []string{"review"}, v[ViewFlags])
	assert.True(t, c.IsReply())

	top := newTestComment(t, "c2", "top")
	assert.Nil(t, top.ToView()[ViewParentCommentID])

	clone := c.Clone().(*Comment)
	c.AddLike()
	require.NoError(t, c.AddFlag("second"))
	assert.Equal(t, 1, clone.LikeCount())
	assert.Equal(t, []string{"review"}, clone.Flags())
}
