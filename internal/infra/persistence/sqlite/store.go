// Package sqlite persists the curriculum state to a single SQLite table of
// JSON buckets while reusing the in-memory store for transactions.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"curriculumcore/internal/infra/persistence/memory"
	"curriculumcore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const defaultPath = "curriculum.db"

// Store persists the in-memory state to SQLite. Each transaction writes the
// candidate state before it becomes visible, so a failed write leaves both
// the database and memory at the previous state.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{db: db, path: path}
	opts = append(opts, memory.WithCommitHook(s.persist))
	s.Store = memory.NewStore(engine, opts...)
	if err := s.load(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var (
		snapshot memory.Snapshot
		found    bool
	)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if err := snapshot.DecodeBucket(bucket, payload); err != nil {
			return err
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if !found {
		return nil
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets, err := snapshot.EncodeBuckets()
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range memory.Buckets {
		if _, err = tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, buckets[bucket]); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
