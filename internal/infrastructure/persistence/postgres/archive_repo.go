package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/pkg/retry"
)

// DefaultBatchSize is the number of upserts sent per round trip.
const DefaultBatchSize = 500

// ErrMalformedView is returned for views missing the base fields.
var ErrMalformedView = errors.New("postgres: malformed view")

// Pseudonymizer replaces user ids before they are archived.
type Pseudonymizer interface {
	ID(id string) string
}

const upsertArchiveSQL = `
	INSERT INTO interaction_archive (record_id, kind, user_id, status, created_at, payload)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT(record_id) DO UPDATE SET
		kind = EXCLUDED.kind,
		user_id = EXCLUDED.user_id,
		status = EXCLUDED.status,
		created_at = EXCLUDED.created_at,
		payload = EXCLUDED.payload,
		archived_at = NOW()
`

// ArchiveRepository implements interaction.Archive using PostgreSQL.
type ArchiveRepository struct {
	conn       *Connection
	retrier    *retry.Retrier
	clock      clockwork.Clock
	pseudonyms Pseudonymizer
	batchSize  int
}

// ArchiveOption configures an ArchiveRepository.
type ArchiveOption func(*ArchiveRepository)

// WithPseudonymizer hashes user ids in both the column and the payload.
func WithPseudonymizer(p Pseudonymizer) ArchiveOption {
	return func(r *ArchiveRepository) { r.pseudonyms = p }
}

// WithRetrier overrides the retrier used for each batch.
func WithRetrier(rt *retry.Retrier) ArchiveOption {
	return func(r *ArchiveRepository) {
		if rt != nil {
			r.retrier = rt
		}
	}
}

// WithClock sets the clock the default retrier waits on between attempts.
// It has no effect together with WithRetrier.
func WithClock(clock clockwork.Clock) ArchiveOption {
	return func(r *ArchiveRepository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithBatchSize sets how many upserts share one round trip.
func WithBatchSize(n int) ArchiveOption {
	return func(r *ArchiveRepository) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// NewArchiveRepository creates a new ArchiveRepository.
// Transient PostgreSQL errors are retried with the database preset.
func NewArchiveRepository(conn *Connection, opts ...ArchiveOption) *ArchiveRepository {
	r := &ArchiveRepository{
		conn:      conn,
		clock:     clockwork.NewRealClock(),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.retrier == nil {
		r.retrier = retry.DatabaseRetrier(retry.WithClock(r.clock), retry.WithRetryIf(IsTransient))
	}
	return r
}

var _ interaction.Archive = (*ArchiveRepository)(nil)

// SaveViews upserts views by record id. Rows are converted up front so a
// malformed view fails the call before anything is written.
func (r *ArchiveRepository) SaveViews(ctx context.Context, views []interaction.View) (int, error) {
	rows := make([]archiveRow, 0, len(views))
	for _, v := range views {
		row, err := toArchiveRow(v, r.pseudonyms)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	written := 0
	for _, chunk := range chunkRows(rows, r.batchSize) {
		err := r.retrier.Do(ctx, func(ctx context.Context) error {
			return r.sendChunk(ctx, chunk)
		})
		if err != nil {
			return written, errors.Wrapf(err, "archive: save %d views", len(chunk))
		}
		written += len(chunk)
	}

	return written, nil
}

func (r *ArchiveRepository) sendChunk(ctx context.Context, chunk []archiveRow) error {
	batch := &pgx.Batch{}
	for _, row := range chunk {
		batch.Queue(upsertArchiveSQL, row.RecordID, row.Kind, row.UserID, row.Status, row.CreatedAt, row.Payload)
	}

	results, err := r.conn.SendBatch(ctx, batch)
	if err != nil {
		return err
	}

	for _, row := range chunk {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return errors.Wrapf(err, "upsert %s", row.RecordID)
		}
	}
	return results.Close()
}

// CountByKind returns the archived row count per variant.
func (r *ArchiveRepository) CountByKind(ctx context.Context) (map[interaction.Kind]int, error) {
	rows, err := r.conn.Query(ctx, `SELECT kind, COUNT(*) FROM interaction_archive GROUP BY kind`)
	if err != nil {
		return nil, errors.Wrap(err, "archive: count by kind")
	}
	defer rows.Close()

	counts := make(map[interaction.Kind]int, len(interaction.AllKinds()))
	for _, k := range interaction.AllKinds() {
		counts[k] = 0
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, errors.Wrap(err, "archive: scan kind count")
		}
		counts[interaction.Kind(kind)] = n
	}

	return counts, rows.Err()
}

// ──────────────────────────────────────────────────────────────────────────────
// Row mapping
// ──────────────────────────────────────────────────────────────────────────────

type archiveRow struct {
	RecordID  string
	Kind      interaction.Kind
	UserID    string
	Status    string
	CreatedAt time.Time
	Payload   []byte
}

func toArchiveRow(v interaction.View, p Pseudonymizer) (archiveRow, error) {
	id, _ := v[interaction.ViewID].(string)
	user, _ := v[interaction.ViewUserID].(string)
	status, _ := v[interaction.ViewStatus].(string)
	created, _ := v[interaction.ViewCreatedAt].(string)
	if id == "" || user == "" || status == "" || created == "" {
		return archiveRow{}, errors.Wrapf(ErrMalformedView, "view %q is missing base fields", id)
	}

	kind, ok := viewKind(v)
	if !ok {
		return archiveRow{}, errors.Wrapf(ErrMalformedView, "view %s has no variant fields", id)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return archiveRow{}, errors.Wrapf(ErrMalformedView, "view %s created_at: %v", id, err)
	}

	payload := v
	if p != nil {
		user = p.ID(user)
		payload = make(interaction.View, len(v))
		for k, val := range v {
			payload[k] = val
		}
		payload[interaction.ViewUserID] = user
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return archiveRow{}, errors.Wrapf(err, "view %s payload", id)
	}

	return archiveRow{
		RecordID:  id,
		Kind:      kind,
		UserID:    user,
		Status:    status,
		CreatedAt: createdAt.UTC(),
		Payload:   data,
	}, nil
}

// viewKind recovers the variant from the fields only that variant exports.
func viewKind(v interaction.View) (interaction.Kind, bool) {
	if _, ok := v[interaction.ViewText]; ok {
		return interaction.KindComment, true
	}
	if _, ok := v[interaction.ViewPolarity]; ok {
		return interaction.KindLike, true
	}
	if _, ok := v[interaction.ViewChannelID]; ok {
		return interaction.KindSubscription, true
	}
	return "", false
}

func chunkRows(rows []archiveRow, size int) [][]archiveRow {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var chunks [][]archiveRow
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}
