package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"curriculumcore/internal/blob"
	"curriculumcore/internal/snapshot"
	"curriculumcore/pkg/domain"
)

// ArchiveKind groups archived snapshots under a key prefix.
type ArchiveKind string

const (
	ArchiveExport ArchiveKind = "export"
	ArchiveBackup ArchiveKind = "backup"
)

const (
	archiveRoot      = "snapshots/"
	archiveKeyLayout = "20060102T150405.000Z"

	entityArchivedSnapshot EntityType = "archived_snapshot"
)

// Archive stores snapshot documents in a blob store under
// snapshots/<kind>/<timestamp>-<uuid>.json.
type Archive struct {
	store blob.Store
	clock Clock
}

// NewArchive wraps store. A nil clock uses UTC now.
func NewArchive(store blob.Store, clock Clock) *Archive {
	if clock == nil {
		clock = ClockFunc(nil)
	}
	return &Archive{store: store, clock: clock}
}

// Driver reports the backing blob driver.
func (a *Archive) Driver() blob.Driver {
	return a.store.Driver()
}

// Save writes snap as a new archive entry.
func (a *Archive) Save(ctx context.Context, kind ArchiveKind, snap domain.Snapshot) (blob.Info, error) {
	if kind == "" {
		return blob.Info{}, domain.NewValidationError("kind", "required")
	}
	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, snap); err != nil {
		return blob.Info{}, err
	}
	key := fmt.Sprintf("%s%s/%s-%s.json", archiveRoot, kind, a.clock.Now().UTC().Format(archiveKeyLayout), uuid.NewString())
	info, err := a.store.Put(ctx, key, &buf, blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"kind":            string(kind),
			"curriculum-rows": strconv.Itoa(len(snap.CurriculumRows)),
			"standards":       strconv.Itoa(len(snap.Standards)),
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("archive %s snapshot: %w", kind, err)
	}
	return info, nil
}

// List returns archived snapshots newest first. An empty kind lists all.
func (a *Archive) List(ctx context.Context, kind ArchiveKind) ([]blob.Info, error) {
	prefix := archiveRoot
	if kind != "" {
		prefix += string(kind) + "/"
	}
	infos, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return archiveStamp(infos[i].Key) > archiveStamp(infos[j].Key)
	})
	return infos, nil
}

// archiveStamp extracts the timestamp-uuid file name so entries of
// different kinds sort together.
func archiveStamp(key string) string {
	return key[strings.LastIndex(key, "/")+1:]
}

// Load reads and validates an archived snapshot.
func (a *Archive) Load(ctx context.Context, key string) (domain.Snapshot, snapshot.Summary, error) {
	if !strings.HasPrefix(key, archiveRoot) {
		return domain.Snapshot{}, snapshot.Summary{}, domain.NewValidationError("key", "must start with %q", archiveRoot)
	}
	_, rc, err := a.store.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return domain.Snapshot{}, snapshot.Summary{}, domain.NotFoundError{Entity: entityArchivedSnapshot, Key: key}
	}
	if err != nil {
		return domain.Snapshot{}, snapshot.Summary{}, fmt.Errorf("open archived snapshot: %w", err)
	}
	defer func() { _ = rc.Close() }()
	return snapshot.Decode(rc)
}

// Prune deletes all but the newest keep entries of kind and returns how many
// were removed.
func (a *Archive) Prune(ctx context.Context, kind ArchiveKind, keep int) (int, error) {
	if keep < 0 {
		return 0, domain.NewValidationError("keep", "must be >= 0")
	}
	infos, err := a.List(ctx, kind)
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := keep; i < len(infos); i++ {
		ok, err := a.store.Delete(ctx, infos[i].Key)
		if err != nil {
			return removed, fmt.Errorf("prune %s: %w", infos[i].Key, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}
