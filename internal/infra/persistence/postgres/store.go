// Package postgres provides a Postgres-backed persistent store that mirrors the
// in-memory semantics, persisting each collection as a JSONB bucket.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"curriculumcore/internal/infra/persistence/memory"
	"curriculumcore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenPersistentStore defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/curriculum?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory implementation for transactions.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to defaultDSN).
// It ensures the state table exists and hydrates the in-memory store from any
// existing buckets.
func NewStore(ctx context.Context, dsn string, engine *domain.RulesEngine, opts ...memory.Option) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	snapshot, found, err := loadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db}
	opts = append(opts, memory.WithCommitHook(s.persist))
	s.Store = memory.NewStore(engine, opts...)
	if found {
		s.ImportState(snapshot)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return memory.Snapshot{}, false, fmt.Errorf("select state: %w", err)
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
			return memory.Snapshot{}, false, fmt.Errorf("scan state: %w", err)
		}
		if err := snapshot.DecodeBucket(bucket, payload); err != nil {
			return memory.Snapshot{}, false, err
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return memory.Snapshot{}, false, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, found, nil
}

func (s *Store) persist(ctx context.Context, snapshot memory.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buckets, err := snapshot.EncodeBuckets()
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range memory.Buckets {
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, buckets[bucket]); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
