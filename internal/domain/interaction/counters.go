package interaction

import "sync"

// Counters accumulates reaction and subscription totals for one store.
// Every processed like contributes exactly one unit matching its current
// polarity; every processed subscription contributes one unit for its action.
// Counters are instance scoped so independent stores never share totals.
type Counters struct {
	mu                   sync.Mutex
	totalLikes           int
	totalDislikes        int
	totalSubscriptions   int
	totalUnsubscriptions int
}

// CounterSnapshot is a point-in-time copy of Counters.
type CounterSnapshot struct {
	TotalLikes           int `json:"total_likes"`
	TotalDislikes        int `json:"total_dislikes"`
	TotalSubscriptions   int `json:"total_subscriptions"`
	TotalUnsubscriptions int `json:"total_unsubscriptions"`
}

// NewCounters creates zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

// Snapshot returns the current totals.
func (c *Counters) Snapshot() CounterSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CounterSnapshot{
		TotalLikes:           c.totalLikes,
		TotalDislikes:        c.totalDislikes,
		TotalSubscriptions:   c.totalSubscriptions,
		TotalUnsubscriptions: c.totalUnsubscriptions,
	}
}

// TotalLikes returns the number of processed likes with like polarity.
func (c *Counters) TotalLikes() int { return c.Snapshot().TotalLikes }

// TotalDislikes returns the number of processed likes with dislike polarity.
func (c *Counters) TotalDislikes() int { return c.Snapshot().TotalDislikes }

// TotalSubscriptions returns the number of processed subscribe actions.
func (c *Counters) TotalSubscriptions() int { return c.Snapshot().TotalSubscriptions }

// TotalUnsubscriptions returns the number of processed unsubscribe actions.
func (c *Counters) TotalUnsubscriptions() int { return c.Snapshot().TotalUnsubscriptions }

func (c *Counters) addPolarity(p Polarity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == PolarityLike {
		c.totalLikes++
	} else {
		c.totalDislikes++
	}
}

// movePolarity transfers one unit from the old polarity to the new one.
func (c *Counters) movePolarity(from, to Polarity) {
	if from == to {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if from == PolarityLike {
		c.totalLikes--
		c.totalDislikes++
	} else {
		c.totalDislikes--
		c.totalLikes++
	}
}

func (c *Counters) addAction(a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a == ActionSubscribe {
		c.totalSubscriptions++
	} else {
		c.totalUnsubscriptions++
	}
}

// LikeRatio returns likes as a percentage of all reactions (0 when empty).
func (s CounterSnapshot) LikeRatio() float64 {
	total := s.TotalLikes + s.TotalDislikes
	if total == 0 {
		return 0.0
	}
	return float64(s.TotalLikes) / float64(total) * 100.0
}

// NetSubscriptions returns subscribe actions minus unsubscribe actions.
func (s CounterSnapshot) NetSubscriptions() int {
	return s.TotalSubscriptions - s.TotalUnsubscriptions
}

// Retention returns the retention percentage for the snapshot totals.
func (s CounterSnapshot) Retention() float64 {
	return Retention(s.TotalSubscriptions, s.TotalUnsubscriptions)
}

// Churn returns the churn percentage for the snapshot totals.
func (s CounterSnapshot) Churn() float64 {
	return Churn(s.TotalSubscriptions, s.TotalUnsubscriptions)
}
