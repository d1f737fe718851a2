package core

import (
	"context"
	"strings"
	"testing"
	"time"

	memblob "curriculumcore/internal/infra/blob/memory"
	"curriculumcore/pkg/domain"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func TestArchiveSaveListLoadPrune(t *testing.T) {
	ctx := context.Background()
	archive := NewArchive(memblob.New(), &stepClock{now: testNow})
	svc := newTestService(t, WithArchive(archive, false))
	populate(t, svc)

	var keys []string
	for _, kind := range []ArchiveKind{ArchiveExport, ArchiveBackup, ArchiveExport} {
		info, err := svc.ArchiveSnapshot(ctx, kind)
		if err != nil {
			t.Fatalf("archive %s: %v", kind, err)
		}
		if !strings.HasPrefix(info.Key, "snapshots/"+string(kind)+"/") || !strings.HasSuffix(info.Key, ".json") {
			t.Fatalf("unexpected key %s", info.Key)
		}
		if info.Metadata["curriculum-rows"] != "3" {
			t.Fatalf("expected row count metadata, got %v", info.Metadata)
		}
		keys = append(keys, info.Key)
	}

	all, err := archive.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Key != keys[2] || all[2].Key != keys[0] {
		t.Fatalf("expected newest first across kinds, got %+v", all)
	}
	exports, _ := archive.List(ctx, ArchiveExport)
	if len(exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(exports))
	}

	snap, sum, err := archive.Load(ctx, keys[0])
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sum.CurriculumRows != 3 || len(snap.Standards) != 2 || snap.SchoolYear == nil {
		t.Fatalf("unexpected loaded snapshot %+v", sum)
	}

	removed, err := archive.Prune(ctx, ArchiveExport, 1)
	if err != nil || removed != 1 {
		t.Fatalf("prune: %d %v", removed, err)
	}
	exports, _ = archive.List(ctx, ArchiveExport)
	if len(exports) != 1 || exports[0].Key != keys[2] {
		t.Fatalf("expected newest export kept, got %+v", exports)
	}
	if backups, _ := archive.List(ctx, ArchiveBackup); len(backups) != 1 {
		t.Fatalf("prune must not touch other kinds")
	}
}

func TestArchiveLoadErrors(t *testing.T) {
	ctx := context.Background()
	archive := NewArchive(memblob.New(), nil)

	_, _, err := archive.Load(ctx, "../etc/passwd")
	expectKind(t, err, domain.KindValidation)
	_, _, err = archive.Load(ctx, "snapshots/export/missing.json")
	expectKind(t, err, domain.KindNotFound)
	_, err = archive.Prune(ctx, ArchiveExport, -1)
	expectKind(t, err, domain.KindValidation)
	_, err = archive.Save(ctx, "", Snapshot{})
	expectKind(t, err, domain.KindValidation)
	if archive.Driver() != "memory" {
		t.Fatalf("unexpected driver %s", archive.Driver())
	}
}
