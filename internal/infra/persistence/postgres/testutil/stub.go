// Package testutil provides a database/sql driver that understands the three
// statements the postgres bucket store issues: the state table DDL, the
// bucket upsert and the bucket select. Upserts are staged per transaction and
// become visible on commit.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

var registered atomic.Int64

// StateConn keeps committed bucket payloads and records executed statements.
type StateConn struct {
	mu      sync.Mutex
	Execs   []string
	Buckets map[string][]byte
	pending map[string][]byte

	FailPing   bool
	FailBegin  bool
	FailUpsert bool
	FailSelect bool
	FailCommit bool
}

// NewStateDB registers a fresh driver instance and opens a sql.DB on it.
func NewStateDB() (*sql.DB, *StateConn) {
	conn := &StateConn{Buckets: make(map[string][]byte)}
	name := fmt.Sprintf("pgstate-%d", registered.Add(1))
	sql.Register(name, stateDriver{conn: conn})
	db, err := sql.Open(name, "")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Bucket returns the committed payload for name.
func (c *StateConn) Bucket(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.Buckets[name]
	return string(payload), ok
}

type stateDriver struct{ conn *StateConn }

func (d stateDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare is unsupported; the store only uses ExecContext and QueryContext.
func (c *StateConn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported: %s", query)
}

// Close implements driver.Conn.
func (c *StateConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StateConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StateConn) Ping(context.Context) error {
	if c.FailPing {
		return errors.New("connection refused")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StateConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, errors.New("begin refused")
	}
	c.mu.Lock()
	c.pending = make(map[string][]byte)
	c.mu.Unlock()
	return stateTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *StateConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	stmt := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(stmt, "CREATE TABLE"):
		return driver.RowsAffected(0), nil
	case strings.HasPrefix(stmt, "INSERT INTO STATE"):
		if c.FailUpsert {
			return nil, errors.New("upsert refused")
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("upsert wants 2 args, got %d", len(args))
		}
		bucket, ok := args[0].Value.(string)
		payload, ok2 := args[1].Value.([]byte)
		if !ok || !ok2 {
			return nil, fmt.Errorf("upsert args have types %T, %T", args[0].Value, args[1].Value)
		}
		target := c.pending
		if target == nil {
			target = c.Buckets
		}
		target[bucket] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	}
	return nil, fmt.Errorf("unexpected statement: %s", query)
}

// QueryContext implements driver.QueryerContext for the bucket select.
func (c *StateConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT BUCKET, PAYLOAD FROM STATE") {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	if c.FailSelect {
		return nil, errors.New("select refused")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.Buckets))
	for name := range c.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := &bucketRows{}
	for _, name := range names {
		rows.rows = append(rows.rows, [2]driver.Value{name, append([]byte(nil), c.Buckets[name]...)})
	}
	return rows, nil
}

type stateTx struct{ conn *StateConn }

func (t stateTx) Commit() error {
	c := t.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.pending = nil }()
	if c.FailCommit {
		return errors.New("commit refused")
	}
	for name, payload := range c.pending {
		c.Buckets[name] = payload
	}
	return nil
}

func (t stateTx) Rollback() error {
	t.conn.mu.Lock()
	t.conn.pending = nil
	t.conn.mu.Unlock()
	return nil
}

type bucketRows struct {
	rows [][2]driver.Value
	next int
}

func (r *bucketRows) Columns() []string { return []string{"bucket", "payload"} }
func (r *bucketRows) Close() error      { return nil }

func (r *bucketRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	dest[0], dest[1] = r.rows[r.next][0], r.rows[r.next][1]
	r.next++
	return nil
}
