package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	store, err := OpenPersistentStore(context.Background(), StorageConfig{Driver: StorageMemory}, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	svc := NewService(store)
	defer func() { _ = svc.Close() }()
	if _, _, err := svc.CreateTab(context.Background(), NewNavigationTab{Name: "Grade 1"}); err != nil {
		t.Fatalf("create tab: %v", err)
	}
}

func TestOpenPersistentStoreSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := StorageConfig{
		Driver:     StorageSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "curriculum.db"),
		Now:        func() time.Time { return testNow },
	}
	store, err := OpenPersistentStore(ctx, cfg, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	svc := NewService(store)
	h := seedHierarchy(t, svc, "Grade 1", "Math", "unit-a")
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = OpenPersistentStore(ctx, cfg, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	svc = NewService(store)
	defer func() { _ = svc.Close() }()
	cfgs, err := svc.ListTableConfigs(ctx, h.dropdown.ID)
	if err != nil || len(cfgs) != 1 || cfgs[0].TableName != "unit-a" {
		t.Fatalf("expected persisted config, got %+v %v", cfgs, err)
	}
	if rows := mustRows(t, svc, CurriculumRowFilter{TableName: "unit-a"}); len(rows) != 1 {
		t.Fatalf("expected persisted seed row, got %+v", rows)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	if _, err := OpenPersistentStore(context.Background(), StorageConfig{Driver: "mongo"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
