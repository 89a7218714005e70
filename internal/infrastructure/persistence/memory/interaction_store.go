// Package memory provides the in-process interaction store.
package memory

import (
	"sync"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/internal/domain/shared"
)

// InteractionStore keeps records in insertion order with an id index.
// Records are never removed; deletion is a status change.
// It implements interaction.Repository.
type InteractionStore struct {
	mu       sync.RWMutex
	records  []interaction.Record
	byID     map[interaction.RecordID]interaction.Record
	counters *interaction.Counters
}

// NewInteractionStore creates an empty store with its own counters.
func NewInteractionStore() *InteractionStore {
	return &InteractionStore{
		records:  make([]interaction.Record, 0),
		byID:     make(map[interaction.RecordID]interaction.Record),
		counters: interaction.NewCounters(),
	}
}

var _ interaction.Repository = (*InteractionStore)(nil)

// Add appends a record. Ids must be unique within the store.
func (s *InteractionStore) Add(record interaction.Record) error {
	if record == nil {
		return shared.ErrNilRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[record.ID()]; exists {
		return shared.ErrRecordAlreadyExists
	}

	s.records = append(s.records, record)
	s.byID[record.ID()] = record
	return nil
}

// FindByID returns the record, including soft-deleted ones.
func (s *InteractionStore) FindByID(id interaction.RecordID) (interaction.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	return r, ok
}

// FindByUser returns every record authored by user.
func (s *InteractionStore) FindByUser(user interaction.UserID) []interaction.Record {
	return s.filter(interaction.ByUser(user))
}

// FindByType returns every record of the given variant.
func (s *InteractionStore) FindByType(kind interaction.Kind) []interaction.Record {
	return s.filter(interaction.ByKind(kind))
}

// FindActive returns records whose status is active.
func (s *InteractionStore) FindActive() []interaction.Record {
	return s.filter(interaction.ByStatus(interaction.StatusActive))
}

func (s *InteractionStore) filter(pred interaction.Predicate) []interaction.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]interaction.Record, 0)
	for _, r := range s.records {
		if pred(r) {
			result = append(result, r)
		}
	}
	return result
}

// SoftDelete marks the record deleted. It returns false when id is unknown.
func (s *InteractionStore) SoftDelete(id interaction.RecordID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return false
	}
	r.MarkAsDeleted()
	return true
}

// Restore reactivates the record. It returns false when id is unknown.
func (s *InteractionStore) Restore(id interaction.RecordID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return false
	}
	r.Restore()
	return true
}

// Update runs fn against the live record while holding the write lock.
func (s *InteractionStore) Update(id interaction.RecordID, fn func(interaction.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return shared.ErrRecordNotFound
	}
	return fn(r)
}

// Process validates the record and applies its effects to the store counters.
func (s *InteractionStore) Process(id interaction.RecordID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return false, shared.ErrRecordNotFound
	}
	return r.Process(s.counters), nil
}

// CountByType returns the record count per variant, every variant present.
func (s *InteractionStore) CountByType() map[interaction.Kind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[interaction.Kind]int, len(interaction.AllKinds()))
	for _, k := range interaction.AllKinds() {
		counts[k] = 0
	}
	for _, r := range s.records {
		counts[r.Kind()]++
	}
	return counts
}

// CountByStatus returns the record count per status, every status present.
func (s *InteractionStore) CountByStatus() map[interaction.Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[interaction.Status]int, len(interaction.AllStatuses()))
	for _, st := range interaction.AllStatuses() {
		counts[st] = 0
	}
	for _, r := range s.records {
		counts[r.Status()]++
	}
	return counts
}

// UserSummary returns total, active and deleted counts for user.
func (s *InteractionStore) UserSummary(user interaction.UserID) interaction.UserSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := interaction.UserSummary{UserID: user}
	for _, r := range s.records {
		if r.UserID() != user {
			continue
		}
		summary.Total++
		switch r.Status() {
		case interaction.StatusActive:
			summary.Active++
		case interaction.StatusDeleted:
			summary.Deleted++
		}
	}
	return summary
}

// Export returns views of matching records, soft-deleted ones included.
// A nil predicate exports everything.
func (s *InteractionStore) Export(pred interaction.Predicate) []interaction.View {
	if pred == nil {
		pred = interaction.All()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]interaction.View, 0)
	for _, r := range s.records {
		if pred(r) {
			views = append(views, r.ToView())
		}
	}
	return views
}

// Snapshot returns detached copies of all records in insertion order.
func (s *InteractionStore) Snapshot() []interaction.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]interaction.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Counters returns the current store-wide totals.
func (s *InteractionStore) Counters() interaction.CounterSnapshot {
	return s.counters.Snapshot()
}

// Len returns the number of stored records.
func (s *InteractionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
