package interaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

// Like view keys.
const (
	ViewTargetID   = "target_id"
	ViewTargetType = "target_type"
	ViewPolarity   = "polarity"
)

// Controversy thresholds.
const (
	ControversialMinReactions = 10
	ControversialMinShare     = 0.4
)

// TargetType is the kind of object a like points at.
type TargetType string

const (
	TargetVideo   TargetType = "video"
	TargetComment TargetType = "comment"
)

// IsValid reports whether t is a known target type.
func (t TargetType) IsValid() bool {
	return t == TargetVideo || t == TargetComment
}

// String returns the string representation of TargetType.
func (t TargetType) String() string { return string(t) }

// ParseTargetType converts a raw value into a TargetType.
func ParseTargetType(value string) (TargetType, error) {
	t := TargetType(strings.ToLower(strings.TrimSpace(value)))
	if !t.IsValid() {
		return "", shared.ErrInvalidTargetType
	}
	return t, nil
}

// Polarity is the direction of a reaction.
type Polarity string

const (
	PolarityLike    Polarity = "like"
	PolarityDislike Polarity = "dislike"
)

// IsValid reports whether p is a known polarity.
func (p Polarity) IsValid() bool {
	return p == PolarityLike || p == PolarityDislike
}

// Opposite returns the other polarity.
func (p Polarity) Opposite() Polarity {
	if p == PolarityLike {
		return PolarityDislike
	}
	return PolarityLike
}

// String returns the string representation of Polarity.
func (p Polarity) String() string { return string(p) }

// Like is a like or dislike on a video or a comment.
type Like struct {
	base

	targetID   string
	targetType TargetType
	polarity   Polarity

	// processed guards the one counter unit this record contributes.
	processed bool
	counters  *Counters
}

// NewLike creates an active like. Enum values outside their range are
// rejected with a validation error.
func NewLike(
	id RecordID,
	userID UserID,
	targetID string,
	targetType TargetType,
	polarity Polarity,
	createdAt time.Time,
) (*Like, error) {
	b, err := newBase(id, userID, createdAt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(targetID) == "" {
		return nil, shared.ErrEmptyTargetID
	}
	if !targetType.IsValid() {
		return nil, shared.ErrInvalidTargetType
	}
	if !polarity.IsValid() {
		return nil, shared.ErrInvalidPolarity
	}

	return &Like{
		base:       b,
		targetID:   targetID,
		targetType: targetType,
		polarity:   polarity,
	}, nil
}

// Kind implements Record.
func (l *Like) Kind() Kind { return KindLike }

// AsLike implements Record.
func (l *Like) AsLike() (*Like, bool) { return l, true }

// TargetID returns the liked object id.
func (l *Like) TargetID() string { return l.targetID }

// TargetType returns the liked object type.
func (l *Like) TargetType() TargetType { return l.targetType }

// Polarity returns the current reaction direction.
func (l *Like) Polarity() Polarity { return l.polarity }

// IsProcessed reports whether the like already contributed to counters.
func (l *Like) IsProcessed() bool { return l.processed }

// IsLike reports a positive reaction.
func (l *Like) IsLike() bool { return l.polarity == PolarityLike }

// IsDislike reports a negative reaction.
func (l *Like) IsDislike() bool { return l.polarity == PolarityDislike }

// IsVideoLike reports whether the target is a video.
func (l *Like) IsVideoLike() bool { return l.targetType == TargetVideo }

// IsCommentLike reports whether the target is a comment.
func (l *Like) IsCommentLike() bool { return l.targetType == TargetComment }

// Sentiment returns "positive" or "negative".
func (l *Like) Sentiment() string {
	if l.IsLike() {
		return "positive"
	}
	return "negative"
}

// Validate implements Record.
func (l *Like) Validate() bool {
	return l.id.IsValid() &&
		l.userID.IsValid() &&
		l.targetID != "" &&
		l.targetType.IsValid() &&
		l.polarity.IsValid()
}

// Process implements Record. A valid like adds one unit for its polarity to
// counters the first time it is processed; later calls only re-validate.
func (l *Like) Process(counters *Counters) bool {
	if !l.Validate() {
		l.flag()
		return false
	}
	if l.processed {
		return true
	}
	if counters != nil {
		counters.addPolarity(l.polarity)
		l.counters = counters
	}
	l.processed = true
	return true
}

// Toggle flips the polarity. When the like was processed, exactly one unit
// moves between the like and dislike totals it was counted in.
func (l *Like) Toggle() Polarity {
	from := l.polarity
	l.polarity = from.Opposite()
	if l.processed && l.counters != nil {
		l.counters.movePolarity(from, l.polarity)
	}
	return l.polarity
}

// IsControversial reports whether a reaction split is both large and balanced.
func IsControversial(likes, dislikes int) bool {
	total := likes + dislikes
	if total < ControversialMinReactions {
		return false
	}
	minority := likes
	if dislikes < minority {
		minority = dislikes
	}
	return float64(minority)/float64(total) >= ControversialMinShare
}

// SentimentScore returns (likes-dislikes)/(likes+dislikes) as a percentage,
// ranging from -100 to 100 and 0 when there are no reactions.
func SentimentScore(likes, dislikes int) float64 {
	total := likes + dislikes
	if total == 0 {
		return 0.0
	}
	return float64(likes-dislikes) / float64(total) * 100
}

// ToView implements Record.
func (l *Like) ToView() View {
	v := l.baseView()
	v[ViewTargetID] = l.targetID
	v[ViewTargetType] = string(l.targetType)
	v[ViewPolarity] = string(l.polarity)
	return v
}

// Clone implements Record. The copy is detached from counters.
func (l *Like) Clone() Record {
	cp := *l
	cp.counters = nil
	return &cp
}

// String implements fmt.Stringer.
func (l *Like) String() string {
	return fmt.Sprintf("Like(%s, %s on %s %s)", l.id, l.polarity, l.targetType, l.targetID)
}
