package interaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

// Subscription view keys.
const (
	ViewChannelID         = "channel_id"
	ViewAction            = "action"
	ViewNotificationLevel = "notification_level"
	ViewTier              = "tier"
)

// Action is the subscription action a record represents.
type Action string

const (
	ActionSubscribe   Action = "subscribe"
	ActionUnsubscribe Action = "unsubscribe"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	return a == ActionSubscribe || a == ActionUnsubscribe
}

// String returns the string representation of Action.
func (a Action) String() string { return string(a) }

// NotificationLevel controls how a subscriber is notified.
type NotificationLevel string

const (
	NotifyAll          NotificationLevel = "all"
	NotifyPersonalized NotificationLevel = "personalized"
	NotifyNone         NotificationLevel = "none"
)

// IsValid reports whether n is a known level.
func (n NotificationLevel) IsValid() bool {
	switch n {
	case NotifyAll, NotifyPersonalized, NotifyNone:
		return true
	}
	return false
}

// String returns the string representation of NotificationLevel.
func (n NotificationLevel) String() string { return string(n) }

// Tier is the subscription plan.
type Tier string

const (
	TierFree    Tier = "free"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// AllTiers returns tiers from lowest to highest.
func AllTiers() []Tier {
	return []Tier{TierFree, TierBasic, TierPremium}
}

// IsValid reports whether t is a known tier.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierBasic, TierPremium:
		return true
	}
	return false
}

// Rank returns the position of the tier in AllTiers, or -1.
func (t Tier) Rank() int {
	for i, tier := range AllTiers() {
		if tier == t {
			return i
		}
	}
	return -1
}

// String returns the string representation of Tier.
func (t Tier) String() string { return string(t) }

// ParseTier converts a raw value into a Tier.
func ParseTier(value string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(value)))
	if !t.IsValid() {
		return "", shared.ErrInvalidTier
	}
	return t, nil
}

// Subscription records one subscribe or unsubscribe action on a channel.
// It does not track the relationship over time.
type Subscription struct {
	base

	channelID         string
	action            Action
	notificationLevel NotificationLevel
	tier              Tier

	processed bool
}

// SubscriptionOption configures optional subscription fields.
type SubscriptionOption func(*Subscription)

// WithAction sets the action. Default is subscribe.
func WithAction(a Action) SubscriptionOption {
	return func(s *Subscription) { s.action = a }
}

// WithNotificationLevel sets the notification level. Default is all.
func WithNotificationLevel(n NotificationLevel) SubscriptionOption {
	return func(s *Subscription) { s.notificationLevel = n }
}

// WithTier sets the tier. Default is free.
func WithTier(t Tier) SubscriptionOption {
	return func(s *Subscription) { s.tier = t }
}

// NewSubscription creates an active subscription action.
func NewSubscription(
	id RecordID,
	userID UserID,
	channelID string,
	createdAt time.Time,
	opts ...SubscriptionOption,
) (*Subscription, error) {
	b, err := newBase(id, userID, createdAt)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(channelID) == "" {
		return nil, shared.ErrEmptyChannelID
	}

	s := &Subscription{
		base:              b,
		channelID:         channelID,
		action:            ActionSubscribe,
		notificationLevel: NotifyAll,
		tier:              TierFree,
	}
	for _, opt := range opts {
		opt(s)
	}

	if !s.action.IsValid() {
		return nil, shared.ErrInvalidAction
	}
	if !s.notificationLevel.IsValid() {
		return nil, shared.ErrInvalidNotificationLevel
	}
	if !s.tier.IsValid() {
		return nil, shared.ErrInvalidTier
	}
	return s, nil
}

// Kind implements Record.
func (s *Subscription) Kind() Kind { return KindSubscription }

// AsSubscription implements Record.
func (s *Subscription) AsSubscription() (*Subscription, bool) { return s, true }

// ChannelID returns the channel.
func (s *Subscription) ChannelID() string { return s.channelID }

// Action returns the recorded action.
func (s *Subscription) Action() Action { return s.action }

// NotificationLevel returns the notification preference.
func (s *Subscription) NotificationLevel() NotificationLevel { return s.notificationLevel }

// Tier returns the plan.
func (s *Subscription) Tier() Tier { return s.tier }

// IsProcessed reports whether the action already contributed to counters.
func (s *Subscription) IsProcessed() bool { return s.processed }

// IsSubscribed reports whether this record is an active subscribe action.
func (s *Subscription) IsSubscribed() bool {
	return s.action == ActionSubscribe && s.status == StatusActive
}

// Validate implements Record.
func (s *Subscription) Validate() bool {
	return s.id.IsValid() &&
		s.userID.IsValid() &&
		s.channelID != "" &&
		s.action.IsValid() &&
		s.notificationLevel.IsValid() &&
		s.tier.IsValid()
}

// Process implements Record. Subscribe actions stay active, unsubscribe
// actions become inactive. The counter unit is applied once.
func (s *Subscription) Process(counters *Counters) bool {
	if !s.Validate() {
		s.flag()
		return false
	}
	if s.processed {
		return true
	}
	if s.action == ActionSubscribe {
		s.status = StatusActive
	} else {
		s.status = StatusInactive
	}
	if counters != nil {
		counters.addAction(s.action)
	}
	s.processed = true
	return true
}

// SetNotificationLevel changes the notification preference.
func (s *Subscription) SetNotificationLevel(level NotificationLevel) error {
	if !level.IsValid() {
		return shared.ErrInvalidNotificationLevel
	}
	s.notificationLevel = level
	return nil
}

// UpgradeTier moves the subscription to tier.
func (s *Subscription) UpgradeTier(tier Tier) error {
	if !tier.IsValid() {
		return shared.ErrInvalidTier
	}
	s.tier = tier
	return nil
}

// DowngradeTier resets the subscription to the free tier.
func (s *Subscription) DowngradeTier() {
	s.tier = TierFree
}

// Retention returns (subs-unsubs)/subs as a percentage, 0 when subs is 0.
func Retention(subs, unsubs int) float64 {
	if subs == 0 {
		return 0.0
	}
	return float64(subs-unsubs) / float64(subs) * 100
}

// Churn returns unsubs/subs as a percentage, 0 when subs is 0.
func Churn(subs, unsubs int) float64 {
	if subs == 0 {
		return 0.0
	}
	return float64(unsubs) / float64(subs) * 100
}

// ToView implements Record.
func (s *Subscription) ToView() View {
	v := s.baseView()
	v[ViewChannelID] = s.channelID
	v[ViewAction] = string(s.action)
	v[ViewNotificationLevel] = string(s.notificationLevel)
	v[ViewTier] = string(s.tier)
	return v
}

// Clone implements Record.
func (s *Subscription) Clone() Record {
	cp := *s
	return &cp
}

// String implements fmt.Stringer.
func (s *Subscription) String() string {
	return fmt.Sprintf("Subscription(%s, %s %s)", s.id, s.action, s.channelID)
}
