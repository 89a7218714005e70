package interaction

import (
	"context"
	"time"
)

// Predicate selects records for export and filtered queries.
type Predicate func(Record) bool

// All matches every record.
func All() Predicate {
	return func(Record) bool { return true }
}

// ByKind matches records of one variant.
func ByKind(k Kind) Predicate {
	return func(r Record) bool { return r.Kind() == k }
}

// ByStatus matches records in status s.
func ByStatus(s Status) Predicate {
	return func(r Record) bool { return r.Status() == s }
}

// ByUser matches records authored by user.
func ByUser(user UserID) Predicate {
	return func(r Record) bool { return r.UserID() == user }
}

// CreatedBetween matches records created within [from, to].
func CreatedBetween(from, to time.Time) Predicate {
	return func(r Record) bool {
		at := r.CreatedAt()
		return !at.Before(from) && !at.After(to)
	}
}

// And combines predicates; an empty list matches everything.
func And(preds ...Predicate) Predicate {
	return func(r Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(r Record) bool { return !p(r) }
}

// UserSummary is the per-user status breakdown.
type UserSummary struct {
	UserID  UserID `json:"user_id"`
	Total   int    `json:"total"`
	Active  int    `json:"active"`
	Deleted int    `json:"deleted"`
}

// Repository defines the in-process record store.
// Lookups return live records; Snapshot returns detached copies suitable
// for read-only engines.
type Repository interface {
	// Add appends a record. Duplicate ids are rejected with ErrRecordAlreadyExists.
	Add(record Record) error

	// FindByID returns the record or false when absent. Deleted records are returned.
	FindByID(id RecordID) (Record, bool)

	FindByUser(user UserID) []Record
	FindByType(kind Kind) []Record

	// FindActive returns records with status active only.
	FindActive() []Record

	// SoftDelete marks the record deleted and reports whether it existed.
	SoftDelete(id RecordID) bool

	// Restore returns a record to active and reports whether it existed.
	Restore(id RecordID) bool

	// Update runs fn against the live record under the store's write lock.
	Update(id RecordID, fn func(Record) error) error

	// Process runs Record.Process against the store's counters.
	Process(id RecordID) (bool, error)

	CountByType() map[Kind]int
	CountByStatus() map[Status]int
	UserSummary(user UserID) UserSummary

	// Export returns views of all records matching pred in insertion order.
	Export(pred Predicate) []View

	Snapshot() []Record
	Counters() CounterSnapshot
	Len() int
}

// Archive persists exported views to durable storage.
// This interface is implemented by the infrastructure layer.
type Archive interface {
	// SaveViews upserts views by record id and returns the number written.
	SaveViews(ctx context.Context, views []View) (int, error)

	// CountByKind returns the archived row count per variant.
	CountByKind(ctx context.Context) (map[Kind]int, error)
}

// RankingCache publishes derived rankings for fast lookup.
// This is typically implemented using Redis sorted sets.
type RankingCache interface {
	// PublishCommentRanking replaces the cached comment ranking with ranked,
	// best first. Readers get the ids back in exactly this order.
	PublishCommentRanking(ctx context.Context, ranked []RecordID) error

	// TopCommentIDs returns the n best ranked comment ids, highest first.
	TopCommentIDs(ctx context.Context, n int) ([]RecordID, error)

	// PublishDailyActivity stores the per-day interaction counts.
	PublishDailyActivity(ctx context.Context, activity map[string]int) error

	// DailyActivity returns the cached per-day counts.
	DailyActivity(ctx context.Context) (map[string]int, error)

	// PublishSummary stores a serialized summary under name.
	PublishSummary(ctx context.Context, name string, summary any, ttl time.Duration) error
}
