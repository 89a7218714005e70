package interaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

// Comment view keys.
const (
	ViewTargetContentID = "target_content_id"
	ViewParentCommentID = "parent_comment_id"
	ViewText            = "text"
	ViewLikeCount       = "like_count"
	ViewDislikeCount    = "dislike_count"
	ViewReplyCount      = "reply_count"
	ViewIsEdited        = "is_edited"
	ViewIsPinned        = "is_pinned"
	ViewFlags           = "flags"
)

// FlagSpam is the moderation tag attached by the spam heuristic.
const FlagSpam = "spam"

// Popularity thresholds.
const (
	PopularLikes   = 10
	PopularReplies = 5
)

// Score weights.
const (
	scoreLikeWeight    = 1.0
	scoreReplyWeight   = 2.0
	scoreDislikeWeight = 0.5
)

// Comment is a text interaction against a piece of content, optionally a
// reply to another comment.
type Comment struct {
	base

	targetContentID string
	parentCommentID RecordID
	text            string

	likeCount    int
	dislikeCount int
	replyCount   int

	edited bool
	pinned bool

	// flags are unique moderation reason tags in insertion order.
	flags []string
}

// CommentOption configures optional comment fields.
type CommentOption func(*Comment)

// WithParent marks the comment as a reply to parent.
func WithParent(parent RecordID) CommentOption {
	return func(c *Comment) {
		c.parentCommentID = parent
	}
}

// NewComment creates an active comment. Empty ids and blank text are
// rejected with a validation error. Length limits are checked by Validate.
func NewComment(
	id RecordID,
	userID UserID,
	targetContentID string,
	text string,
	createdAt time.Time,
	opts ...CommentOption,
) (*Comment, error) {
	b, err := newBase(id, userID, createdAt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(targetContentID) == "" {
		return nil, shared.ErrEmptyContentID
	}
	if strings.TrimSpace(text) == "" {
		return nil, shared.ErrEmptyCommentText
	}

	c := &Comment{
		base:            b,
		targetContentID: targetContentID,
		text:            text,
		flags:           make([]string, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Kind implements Record.
func (c *Comment) Kind() Kind { return KindComment }

// AsComment implements Record.
func (c *Comment) AsComment() (*Comment, bool) { return c, true }

// TargetContentID returns the content the comment was written on.
func (c *Comment) TargetContentID() string { return c.targetContentID }

// ParentCommentID returns the parent comment id, empty for top-level comments.
func (c *Comment) ParentCommentID() RecordID { return c.parentCommentID }

// Text returns the comment body.
func (c *Comment) Text() string { return c.text }

// LikeCount returns the number of likes on the comment.
func (c *Comment) LikeCount() int { return c.likeCount }

// DislikeCount returns the number of dislikes on the comment.
func (c *Comment) DislikeCount() int { return c.dislikeCount }

// ReplyCount returns the number of replies.
func (c *Comment) ReplyCount() int { return c.replyCount }

// IsEdited reports whether the text was changed after creation.
func (c *Comment) IsEdited() bool { return c.edited }

// IsPinned reports whether the comment is pinned.
func (c *Comment) IsPinned() bool { return c.pinned }

// Flags returns a copy of the moderation tags.
func (c *Comment) Flags() []string {
	out := make([]string, len(c.flags))
	copy(out, c.flags)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION & PROCESSING
// ══════════════════════════════════════════════════════════════════════════════

// Validate implements Record.
func (c *Comment) Validate() bool {
	if !c.id.IsValid() || !c.userID.IsValid() {
		return false
	}
	if c.targetContentID == "" {
		return false
	}
	return ValidCommentText(c.text)
}

// Process implements Record. Invalid comments are flagged; comments that
// trip the spam heuristic get the spam tag and are flagged.
// Comments do not touch counters.
func (c *Comment) Process(_ *Counters) bool {
	if !c.Validate() {
		c.flag()
		return false
	}
	if c.DetectBasicSpam() {
		c.addFlag(FlagSpam)
		c.flag()
		return false
	}
	return true
}

// DetectBasicSpam applies the spam heuristic to the comment text.
func (c *Comment) DetectBasicSpam() bool {
	return LooksLikeSpam(c.text)
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Edit replaces the text and marks the comment as edited.
func (c *Comment) Edit(text string) error {
	if strings.TrimSpace(text) == "" {
		return shared.ErrEmptyCommentText
	}
	c.text = text
	c.edited = true
	return nil
}

// Pin pins the comment.
func (c *Comment) Pin() { c.pinned = true }

// Unpin unpins the comment.
func (c *Comment) Unpin() { c.pinned = false }

// AddLike increments the like counter.
func (c *Comment) AddLike() { c.likeCount++ }

// RemoveLike decrements the like counter, never below zero.
func (c *Comment) RemoveLike() {
	if c.likeCount > 0 {
		c.likeCount--
	}
}

// AddDislike increments the dislike counter.
func (c *Comment) AddDislike() { c.dislikeCount++ }

// RemoveDislike decrements the dislike counter, never below zero.
func (c *Comment) RemoveDislike() {
	if c.dislikeCount > 0 {
		c.dislikeCount--
	}
}

// ToggleLike converts one like into a dislike when the comment has likes,
// otherwise it adds a like.
func (c *Comment) ToggleLike() {
	if c.likeCount > 0 {
		c.likeCount--
		c.dislikeCount++
		return
	}
	c.likeCount++
}

// AddReply increments the reply counter.
func (c *Comment) AddReply() { c.replyCount++ }

// AddFlag attaches a moderation reason tag. Tags are unique.
func (c *Comment) AddFlag(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.ErrEmptyFlagReason
	}
	c.addFlag(reason)
	return nil
}

func (c *Comment) addFlag(reason string) {
	for _, f := range c.flags {
		if f == reason {
			return
		}
	}
	c.flags = append(c.flags, reason)
}

// ClearFlags removes every moderation tag. The status is left unchanged.
func (c *Comment) ClearFlags() {
	c.flags = c.flags[:0]
}

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED VALUES
// ══════════════════════════════════════════════════════════════════════════════

// IsFlagged reports whether the comment carries tags or is in the flagged state.
func (c *Comment) IsFlagged() bool {
	return len(c.flags) > 0 || c.status == StatusFlagged
}

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool {
	return c.parentCommentID != ""
}

// CalculateScore returns likes + 2*replies - 0.5*dislikes, clamped at zero.
func (c *Comment) CalculateScore() float64 {
	score := float64(c.likeCount)*scoreLikeWeight +
		float64(c.replyCount)*scoreReplyWeight -
		float64(c.dislikeCount)*scoreDislikeWeight
	if score < 0 {
		return 0.0
	}
	return score
}

// IsPopular reports whether the comment reached the like or reply threshold.
func (c *Comment) IsPopular() bool {
	return c.likeCount >= PopularLikes || c.replyCount >= PopularReplies
}

// WordCount returns the number of words in the text.
func (c *Comment) WordCount() int { return WordCount(c.text) }

// CharCount returns the number of code points in the text.
func (c *Comment) CharCount() int { return CharCount(c.text) }

// IsLongComment reports whether the comment has more than LongCommentWords words.
func (c *Comment) IsLongComment() bool {
	return c.WordCount() > LongCommentWords
}

// Preview returns at most length code points followed by "..." when truncated.
func (c *Comment) Preview(length int) string {
	runes := []rune(c.text)
	if length < 0 {
		length = 0
	}
	if len(runes) <= length {
		return c.text
	}
	return string(runes[:length]) + "..."
}

// ReactionCount returns likes plus dislikes.
func (c *Comment) ReactionCount() int {
	return c.likeCount + c.dislikeCount
}

// HasReactions reports whether anyone reacted to the comment.
func (c *Comment) HasReactions() bool {
	return c.ReactionCount() > 0
}

// LikeRatio returns likes as a percentage of reactions (0 when none).
func (c *Comment) LikeRatio() float64 {
	total := c.ReactionCount()
	if total == 0 {
		return 0.0
	}
	return float64(c.likeCount) / float64(total) * 100
}

// FindMentions returns the @mentions in the text without the marker.
func (c *Comment) FindMentions() []string {
	return TokensWithMarker(c.text, "@")
}

// FindHashtags returns the #hashtags in the text without the marker.
func (c *Comment) FindHashtags() []string {
	return TokensWithMarker(c.text, "#")
}

// ToView implements Record.
func (c *Comment) ToView() View {
	v := c.baseView()
	v[ViewTargetContentID] = c.targetContentID
	if c.parentCommentID != "" {
		v[ViewParentCommentID] = string(c.parentCommentID)
	} else {
		v[ViewParentCommentID] = nil
	}
	v[ViewText] = c.text
	v[ViewLikeCount] = c.likeCount
	v[ViewDislikeCount] = c.dislikeCount
	v[ViewReplyCount] = c.replyCount
	v[ViewIsEdited] = c.edited
	v[ViewIsPinned] = c.pinned
	v[ViewFlags] = c.Flags()
	return v
}

// Clone implements Record.
func (c *Comment) Clone() Record {
	cp := *c
	cp.flags = c.Flags()
	return &cp
}

// String implements fmt.Stringer.
func (c *Comment) String() string {
	return fmt.Sprintf("Comment(%s, score=%.1f)", c.id, c.CalculateScore())
}
