package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"curriculumcore/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "archive"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStorePutGetListDelete(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	info, err := store.Put(ctx, "snapshots/export/a.json", bytes.NewReader([]byte(`{"ok":true}`)), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"kind": "export"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 11 || info.ETag == "" || info.Metadata["kind"] != "export" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "snapshots/export/a.json", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := store.Put(ctx, "snapshots/backup/b.json", bytes.NewReader([]byte("{}")), core.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}

	got, rc, err := store.Get(ctx, "snapshots/export/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"ok":true}` || got.ETag != info.ETag || got.ContentType != "application/json" {
		t.Fatalf("unexpected get %+v %s", got, body)
	}

	all, err := store.List(ctx, "snapshots/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Key != "snapshots/backup/b.json" {
		t.Fatalf("expected sorted keys, got %+v", all)
	}
	exports, _ := store.List(ctx, "snapshots/export/")
	if len(exports) != 1 {
		t.Fatalf("expected prefix filter, got %+v", exports)
	}

	ok, err := store.Delete(ctx, "snapshots/export/a.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "snapshots/export/a.json")
	if err != nil || ok {
		t.Fatalf("expected second delete to report missing: %v %v", ok, err)
	}
	if _, _, err := store.Get(ctx, "snapshots/export/a.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRejectsUnsafeKeys(t *testing.T) {
	store := newTempStore(t)
	for _, key := range []string{"", "  ", "/etc/passwd", "../escape", "a/../../b", "x.meta"} {
		if _, err := store.Put(context.Background(), key, bytes.NewReader(nil), core.PutOptions{}); err == nil {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}

func TestStoreGetCorruptMeta(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, err := store.Put(ctx, "a.json", bytes.NewReader([]byte("{}")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.Root(), "a.json.meta"), []byte("nope"), 0o600); err != nil {
		t.Fatalf("corrupt meta: %v", err)
	}
	if _, _, err := store.Get(ctx, "a.json"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := store.List(ctx, ""); err == nil {
		t.Fatalf("expected list decode error")
	}
}
