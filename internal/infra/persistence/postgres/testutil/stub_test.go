package testutil

import (
	"context"
	"testing"
)

const upsert = "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload"

func TestStateDBCommitsStagedUpserts(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStateDB()
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, payload := range []string{`{"1":{}}`, `{"2":{}}`} {
		if _, err := tx.ExecContext(ctx, upsert, "standards", []byte(payload)); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if _, ok := conn.Bucket("standards"); ok {
		t.Fatalf("upsert must stay invisible before commit")
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT bucket, payload FROM state")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	defer func() { _ = rows.Close() }()
	var got []string
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, bucket+"="+string(payload))
	}
	if len(got) != 1 || got[0] != `standards={"2":{}}` {
		t.Fatalf("expected the last upsert to win, got %v", got)
	}
}

func TestStateDBRollbackAndFailures(t *testing.T) {
	ctx := context.Background()
	db, conn := NewStateDB()
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, "standards", []byte(`{}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if _, ok := conn.Bucket("standards"); ok {
		t.Fatalf("rolled back upsert must be discarded")
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM state"); err == nil {
		t.Fatalf("expected unknown statement to fail")
	}
	conn.FailSelect = true
	if _, err := db.QueryContext(ctx, "SELECT bucket, payload FROM state"); err == nil {
		t.Fatalf("expected select failure")
	}
	conn.FailBegin = true
	if _, err := db.BeginTx(ctx, nil); err == nil {
		t.Fatalf("expected begin failure")
	}
	conn.FailPing = true
	if err := db.PingContext(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
}
