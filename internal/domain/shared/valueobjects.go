package shared

import (
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange is a closed window [From, To] over record creation times.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether tm falls inside the window, both ends included.
func (t TimeRange) Contains(tm time.Time) bool {
	return !tm.Before(t.From) && !tm.After(t.To)
}

// TrailingWindow returns the range [now-d, now]. A non-positive d yields an
// empty-width range ending at now.
func TrailingWindow(now time.Time, d time.Duration) TimeRange {
	if d < 0 {
		d = 0
	}
	return TimeRange{From: now.Add(-d), To: now}
}

// Last24Hours is the window the statistics summary counts recent activity in.
func Last24Hours(now time.Time) TimeRange {
	return TrailingWindow(now, 24*time.Hour)
}
