package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"interview-quiz-service/internal/domain"
	_ "modernc.org/sqlite" // driver: sqlite
)

const schema = `
CREATE TABLE IF NOT EXISTS session_snapshots (
  attempt_id TEXT PRIMARY KEY,
  blob       BLOB NOT NULL,
  saved_at   INTEGER NOT NULL
);`

// SnapshotStore keeps resume snapshots in a local SQLite file, for
// single-node deployments without Redis.
type SnapshotStore struct {
	db    *sqlx.DB
	ttl   time.Duration
	clock func() time.Time
}

type snapshotRow struct {
	AttemptID string `db:"attempt_id"`
	Blob      []byte `db:"blob"`
	SavedAt   int64  `db:"saved_at"`
}

// Open connects to the SQLite database at dsn and ensures the schema exists.
// A zero ttl keeps snapshots until cleared.
func Open(ctx context.Context, dsn string, ttl time.Duration) (*SnapshotStore, error) {
	if dsn == "" {
		dsn = "file:snapshots.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot schema: %w", err)
	}
	return &SnapshotStore{db: db, ttl: ttl, clock: time.Now}, nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

func (s *SnapshotStore) Load(ctx context.Context, attemptID string) ([]byte, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row,
		`SELECT attempt_id, blob, saved_at FROM session_snapshots WHERE attempt_id = ?`, attemptID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if s.expired(row.SavedAt) {
		return nil, domain.ErrSnapshotNotFound
	}
	return row.Blob, nil
}

func (s *SnapshotStore) Save(ctx context.Context, attemptID string, blob []byte) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO session_snapshots (attempt_id, blob, saved_at)
		VALUES (:attempt_id, :blob, :saved_at)
		ON CONFLICT (attempt_id) DO UPDATE SET blob = excluded.blob, saved_at = excluded.saved_at`,
		snapshotRow{AttemptID: attemptID, Blob: blob, SavedAt: s.clock().UnixMilli()})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Clear(ctx context.Context, attemptID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshots WHERE attempt_id = ?`, attemptID); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// Prune deletes expired snapshots and returns how many were removed.
func (s *SnapshotStore) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.clock().Add(-s.ttl).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshots WHERE saved_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

func (s *SnapshotStore) expired(savedAt int64) bool {
	return s.ttl > 0 && s.clock().Sub(time.UnixMilli(savedAt)) > s.ttl
}
