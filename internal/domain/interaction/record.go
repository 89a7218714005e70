// Package interaction contains the domain model for user interactions with the
// content catalog: comments, likes/dislikes and channel subscriptions.
// This is a pure domain layer; the only dependency is the shared error taxonomy.
package interaction

import (
	"fmt"
	"time"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

// RecordID uniquely identifies an interaction record. It is supplied by the caller.
type RecordID string

// IsValid checks if the record ID is valid.
func (r RecordID) IsValid() bool {
	return r != ""
}

// String returns the string representation of RecordID.
func (r RecordID) String() string {
	return string(r)
}

// UserID identifies the user who produced an interaction.
type UserID string

// IsValid checks if the user ID is valid.
func (u UserID) IsValid() bool {
	return u != ""
}

// String returns the string representation of UserID.
func (u UserID) String() string {
	return string(u)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is the moderation/lifecycle state of a record.
type Status string

const (
	StatusActive   Status = "active"
	StatusDeleted  Status = "deleted"  // soft delete, record stays in the store
	StatusFlagged  Status = "flagged"  // moderation hold
	StatusInactive Status = "inactive" // unsubscribe action after processing
)

// AllStatuses returns the canonical statuses in display order.
func AllStatuses() []Status {
	return []Status{StatusActive, StatusDeleted, StatusFlagged, StatusInactive}
}

// IsValid reports whether s is one of the canonical statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusDeleted, StatusFlagged, StatusInactive:
		return true
	}
	return false
}

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a raw value into a Status.
func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.IsValid() {
		return "", shared.WrapError("record", "ParseStatus", shared.ErrInvalidState,
			fmt.Sprintf("unknown status %q", value), shared.ErrInvalidStatus)
	}
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// KIND
// ══════════════════════════════════════════════════════════════════════════════

// Kind is the explicit variant tag of a record.
type Kind string

const (
	KindComment      Kind = "comment"
	KindLike         Kind = "like"
	KindSubscription Kind = "subscription"
)

// AllKinds returns the closed set of record variants.
func AllKinds() []Kind {
	return []Kind{KindComment, KindLike, KindSubscription}
}

// IsValid reports whether k is a known variant.
func (k Kind) IsValid() bool {
	switch k {
	case KindComment, KindLike, KindSubscription:
		return true
	}
	return false
}

// String returns the string representation of Kind.
func (k Kind) String() string {
	return string(k)
}

// AgeUnit selects the unit returned by Record.AgeIn.
type AgeUnit int

const (
	AgeSeconds AgeUnit = iota
	AgeMinutes
	AgeHours
)

// View is a serializable snapshot of all fields of a record.
// Keys are listed in the View* constants.
type View map[string]any

// View keys shared by every variant.
const (
	ViewID        = "id"
	ViewUserID    = "user_id"
	ViewStatus    = "status"
	ViewCreatedAt = "created_at"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record is the capability shared by every interaction variant.
//
// Variant-specific behaviour is reached through AsComment, AsLike and
// AsSubscription, which are selected by the Kind tag.
type Record interface {
	ID() RecordID
	UserID() UserID
	CreatedAt() time.Time
	Status() Status
	Kind() Kind

	// SetStatus applies any canonical status; unknown values fail with ErrInvalidState.
	SetStatus(s Status) error
	IsActive() bool
	IsDeleted() bool
	MarkAsDeleted()
	Restore()

	// Validate is a side-effect free structural check.
	Validate() bool

	// Process validates the record and applies its domain effects. On failure
	// the record moves to StatusFlagged and false is returned. Counter effects
	// are applied at most once per record.
	Process(counters *Counters) bool

	ToView() View
	Age(now time.Time) time.Duration
	AgeIn(now time.Time, unit AgeUnit) float64
	CreatedDate() string
	IsOwner(user UserID) bool
	HasPermission(user UserID) bool

	AsComment() (*Comment, bool)
	AsLike() (*Like, bool)
	AsSubscription() (*Subscription, bool)

	// Clone returns a detached deep copy that shares no mutable state.
	Clone() Record
	String() string
}

// base holds the identity and lifecycle fields common to all variants.
type base struct {
	id        RecordID
	userID    UserID
	createdAt time.Time
	status    Status
}

func newBase(id RecordID, userID UserID, createdAt time.Time) (base, error) {
	if !id.IsValid() {
		return base{}, shared.ErrEmptyRecordID
	}
	if !userID.IsValid() {
		return base{}, shared.ErrEmptyUserID
	}
	if createdAt.IsZero() {
		return base{}, shared.Validationf("record", "Create", "created_at must be set")
	}
	return base{
		id:        id,
		userID:    userID,
		createdAt: createdAt,
		status:    StatusActive,
	}, nil
}

// ID returns the record identifier.
func (b *base) ID() RecordID { return b.id }

// UserID returns the author of the interaction.
func (b *base) UserID() UserID { return b.userID }

// CreatedAt returns the construction time.
func (b *base) CreatedAt() time.Time { return b.createdAt }

// Status returns the current status.
func (b *base) Status() Status { return b.status }

// SetStatus moves the record to s.
func (b *base) SetStatus(s Status) error {
	if !s.IsValid() {
		return shared.WrapError("record", "SetStatus", shared.ErrInvalidState,
			fmt.Sprintf("cannot set status %q on %s", s, b.id), shared.ErrInvalidStatus)
	}
	b.status = s
	return nil
}

// IsActive returns true if the record is active.
func (b *base) IsActive() bool { return b.status == StatusActive }

// IsDeleted returns true if the record was soft deleted.
func (b *base) IsDeleted() bool { return b.status == StatusDeleted }

// MarkAsDeleted soft deletes the record.
func (b *base) MarkAsDeleted() { b.status = StatusDeleted }

// Restore returns the record to the active state.
func (b *base) Restore() { b.status = StatusActive }

// Age returns the time elapsed since creation, measured at now.
func (b *base) Age(now time.Time) time.Duration {
	return now.Sub(b.createdAt)
}

// AgeIn returns the age expressed in the given unit.
func (b *base) AgeIn(now time.Time, unit AgeUnit) float64 {
	age := b.Age(now)
	switch unit {
	case AgeMinutes:
		return age.Minutes()
	case AgeHours:
		return age.Hours()
	default:
		return age.Seconds()
	}
}

// CreatedDate returns the creation date as YYYY-MM-DD.
func (b *base) CreatedDate() string {
	return b.createdAt.Format("2006-01-02")
}

// IsOwner reports whether user authored the record.
func (b *base) IsOwner(user UserID) bool {
	return b.userID == user
}

// HasPermission reports whether user may act on the record: owner and active.
func (b *base) HasPermission(user UserID) bool {
	return b.IsOwner(user) && b.IsActive()
}

// flag moves the record to the moderation hold after a failed process step.
func (b *base) flag() {
	b.status = StatusFlagged
}

func (b *base) baseView() View {
	return View{
		ViewID:        string(b.id),
		ViewUserID:    string(b.userID),
		ViewStatus:    string(b.status),
		ViewCreatedAt: b.createdAt.Format(time.RFC3339Nano),
	}
}

// AsComment is overridden by Comment.
func (b *base) AsComment() (*Comment, bool) { return nil, false }

// AsLike is overridden by Like.
func (b *base) AsLike() (*Like, bool) { return nil, false }

// AsSubscription is overridden by Subscription.
func (b *base) AsSubscription() (*Subscription, bool) { return nil, false }

// ══════════════════════════════════════════════════════════════════════════════
// SELECTION HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// Comments selects the comment variants from records, preserving order.
func Comments(records []Record) []*Comment {
	out := make([]*Comment, 0)
	for _, r := range records {
		if c, ok := r.AsComment(); ok {
			out = append(out, c)
		}
	}
	return out
}

// Likes selects the like variants from records, preserving order.
func Likes(records []Record) []*Like {
	out := make([]*Like, 0)
	for _, r := range records {
		if l, ok := r.AsLike(); ok {
			out = append(out, l)
		}
	}
	return out
}

// Subscriptions selects the subscription variants from records, preserving order.
func Subscriptions(records []Record) []*Subscription {
	out := make([]*Subscription, 0)
	for _, r := range records {
		if s, ok := r.AsSubscription(); ok {
			out = append(out, s)
		}
	}
	return out
}

// NotDeleted filters out soft-deleted records, preserving order.
func NotDeleted(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.IsDeleted() {
			out = append(out, r)
		}
	}
	return out
}
