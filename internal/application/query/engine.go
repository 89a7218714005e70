// Package query contains read operations (CQRS - Queries).
// Engines work on a detached snapshot of the store and never mutate it.
package query

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
)

// Option configures the Statistics and Report engines.
type Option func(*engineConfig)

type engineConfig struct {
	clock          clockwork.Clock
	location       *time.Location
	includeDeleted bool
}

// WithClock sets the source of "now" for windowed computations.
func WithClock(clock clockwork.Clock) Option {
	return func(c *engineConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLocation sets the timezone used for calendar day keys.
func WithLocation(loc *time.Location) Option {
	return func(c *engineConfig) {
		if loc != nil {
			c.location = loc
		}
	}
}

// IncludeDeleted makes derived aggregates consider soft-deleted records.
func IncludeDeleted() Option {
	return func(c *engineConfig) {
		c.includeDeleted = true
	}
}

func newEngineConfig(opts []Option) engineConfig {
	cfg := engineConfig{
		clock:    clockwork.NewRealClock(),
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// snapshot is the record set shared by both engines.
type snapshot struct {
	cfg engineConfig

	// all holds every record in insertion order; scoped excludes soft-deleted
	// records unless IncludeDeleted was given.
	all    []interaction.Record
	scoped []interaction.Record
}

func newSnapshot(records []interaction.Record, opts []Option) snapshot {
	cfg := newEngineConfig(opts)
	all := make([]interaction.Record, len(records))
	copy(all, records)

	scoped := all
	if !cfg.includeDeleted {
		scoped = interaction.NotDeleted(all)
	}
	return snapshot{cfg: cfg, all: all, scoped: scoped}
}

func (s snapshot) now() time.Time {
	return s.cfg.clock.Now()
}

func (s snapshot) comments() []*interaction.Comment {
	return interaction.Comments(s.scoped)
}

func (s snapshot) likes() []*interaction.Like {
	return interaction.Likes(s.scoped)
}

func (s snapshot) subscriptions() []*interaction.Subscription {
	return interaction.Subscriptions(s.scoped)
}

func countByType(records []interaction.Record) map[interaction.Kind]int {
	counts := make(map[interaction.Kind]int, len(interaction.AllKinds()))
	for _, k := range interaction.AllKinds() {
		counts[k] = 0
	}
	for _, r := range records {
		counts[r.Kind()]++
	}
	return counts
}

func countByStatus(records []interaction.Record) map[interaction.Status]int {
	counts := make(map[interaction.Status]int, len(interaction.AllStatuses()))
	for _, st := range interaction.AllStatuses() {
		counts[st] = 0
	}
	for _, r := range records {
		counts[r.Status()]++
	}
	return counts
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
