package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	memblob "curriculumcore/internal/infra/blob/memory"
	"curriculumcore/internal/snapshot"
	"curriculumcore/pkg/domain"
)

func populate(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.EnsureAdminTab(ctx); err != nil {
		t.Fatalf("admin: %v", err)
	}
	h := seedHierarchy(t, svc, "Grade 1", "Math", "unit-a")
	_ = seedHierarchy(t, svc, "Grade 2", "Reading", "unit-r")
	if _, _, err := svc.UpdateTab(ctx, h.tab.ID, domain.NavigationTabPatch{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	for _, code := range []string{"MA.1.1", "MA.1.2"} {
		if _, _, err := svc.CreateStandard(ctx, NewStandard{Code: code, Description: "Count to 100", Category: "Math"}); err != nil {
			t.Fatalf("standard: %v", err)
		}
	}
	if _, _, err := svc.CreateCurriculumRow(ctx, NewCurriculumRow{
		Grade: "Grade 1", Subject: "Math", TableName: "unit-a",
		Objectives: "Counting", Standards: []string{"MA.1.1", "MA.1.1", "MA.9.9"},
	}); err != nil {
		t.Fatalf("row: %v", err)
	}
	if _, _, err := svc.SetSchoolYear(ctx, "2026-2027"); err != nil {
		t.Fatalf("school year: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestService(t)
	populate(t, src)
	exported := mustExport(t, src)

	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, exported); err != nil {
		t.Fatalf("encode: %v", err)
	}
	sum, err := src.ValidateSnapshot(ctx, buf.Bytes())
	if err != nil {
		t.Fatalf("export must validate: %v", err)
	}
	if sum.GradeCount != 2 || sum.SubjectCount != 2 || sum.CurriculumRows != 3 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	dst := newTestService(t)
	if _, _, err := dst.CreateTab(ctx, NewNavigationTab{Name: "Stale"}); err != nil {
		t.Fatalf("stale tab: %v", err)
	}
	res, err := dst.ImportSnapshot(ctx, &buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Applied.CurriculumRows != 3 || !res.Applied.Navigation || !res.Applied.SchoolYear || res.Backup != nil {
		t.Fatalf("unexpected import result %+v", res)
	}

	want, _ := json.Marshal(exported)
	got, _ := json.Marshal(mustExport(t, dst))
	if !bytes.Equal(want, got) {
		t.Fatalf("round trip differs\nexported %s\nrestored %s", want, got)
	}
}

func TestApplySnapshotWithoutNavigationKeepsHierarchy(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	populate(t, svc)
	before := mustExport(t, svc)

	applied, _, err := svc.ApplySnapshot(ctx, Snapshot{
		CurriculumRows: []CurriculumRow{{ID: 40, Grade: "KG", Subject: "Art", Standards: []string{}}},
		Standards:      []Standard{},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if applied.Navigation || applied.SchoolYear || applied.CurriculumRows != 1 {
		t.Fatalf("unexpected apply result %+v", applied)
	}
	after := mustExport(t, svc)
	if !reflect.DeepEqual(before.NavigationTabs, after.NavigationTabs) || !reflect.DeepEqual(before.TableConfigs, after.TableConfigs) {
		t.Fatalf("navigation must be untouched when the snapshot carries none")
	}
	if len(after.Standards) != 0 || len(after.CurriculumRows) != 1 || after.CurriculumRows[0].ID != 40 {
		t.Fatalf("rows and standards must be replaced, got %+v", after)
	}
	if !reflect.DeepEqual(before.SchoolYear, after.SchoolYear) {
		t.Fatalf("school year must be untouched")
	}
}

func TestApplySnapshotFailureLeavesStoreIntact(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	populate(t, svc)
	before := mustExport(t, svc)

	bad := Snapshot{
		CurriculumRows: []CurriculumRow{{ID: 1, Grade: "KG", Subject: "Art"}},
		Standards:      []Standard{{ID: 1, Code: "A", Category: "Art"}, {ID: 2, Code: "A", Category: "Art"}},
		NavigationTabs: []NavigationTab{},
	}
	_, _, err := svc.ApplySnapshot(ctx, bad)
	expectKind(t, err, domain.KindValidation)

	orphanConfig := Snapshot{
		CurriculumRows: []CurriculumRow{},
		Standards:      []Standard{},
		NavigationTabs: []NavigationTab{{ID: 1, Name: "Grade 1"}},
		TableConfigs:   []TableConfig{{ID: 1, TabID: 1, DropdownID: 5, TableName: "x"}},
	}
	_, _, err = svc.ApplySnapshot(ctx, orphanConfig)
	expectKind(t, err, domain.KindNotFound)

	after := mustExport(t, svc)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("failed apply changed the store")
	}
}

func TestImportSnapshotRejectsBeforeMutation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	populate(t, svc)
	before := mustExport(t, svc)

	payload := `{"curriculumRows":[{"id":1,"grade":"KG","subject":"Math","objectives":"","unitPacing":"","assessments":"","materialsAndDifferentiation":"","biblical":""}],"standards":[],"metadata":{"totalCurriculumEntries":1,"totalStandards":0}}`
	_, err := svc.ImportSnapshot(ctx, strings.NewReader(payload))
	expectKind(t, err, domain.KindValidation)
	if !strings.Contains(err.Error(), "standards") {
		t.Fatalf("expected reason to name the missing field, got %v", err)
	}
	if after := mustExport(t, svc); !reflect.DeepEqual(before, after) {
		t.Fatalf("rejected import mutated the store")
	}
}

func TestImportSnapshotRejectsReservedTabOrder(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	populate(t, svc)
	before := mustExport(t, svc)

	payload := `{"curriculumRows":[],"standards":[],"navigationTabs":[{"id":1,"name":"Grade 1","order":150}],"metadata":{"totalCurriculumEntries":0,"totalStandards":0}}`
	_, err := svc.ImportSnapshot(ctx, strings.NewReader(payload))
	var verr domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "navigationTabs[0].order" {
		t.Fatalf("expected validation error on the tab order, got %v", err)
	}
	if after := mustExport(t, svc); !reflect.DeepEqual(before, after) {
		t.Fatalf("rejected import mutated the store")
	}
}

func TestImportSnapshotWritesBackup(t *testing.T) {
	ctx := context.Background()
	archive := NewArchive(memblob.New(), ClockFunc(nil))
	svc := newTestService(t, WithArchive(archive, true))
	populate(t, svc)
	previous := mustExport(t, svc)

	var buf bytes.Buffer
	empty := Snapshot{CurriculumRows: []CurriculumRow{}, Standards: []Standard{}}
	empty.Metadata = domain.NewSnapshotMetadata(empty, testNow)
	if err := snapshot.Encode(&buf, empty); err != nil {
		t.Fatalf("encode: %v", err)
	}
	res, err := svc.ImportSnapshot(ctx, &buf)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Backup == nil || !strings.HasPrefix(res.Backup.Key, "snapshots/backup/") {
		t.Fatalf("expected backup key, got %+v", res.Backup)
	}
	if rows := mustRows(t, svc, CurriculumRowFilter{}); len(rows) != 0 {
		t.Fatalf("expected rows replaced, got %d", len(rows))
	}

	restored, err := svc.RestoreArchived(ctx, res.Backup.Key)
	if err != nil {
		t.Fatalf("restore backup: %v", err)
	}
	if restored.Applied.CurriculumRows != len(previous.CurriculumRows) {
		t.Fatalf("expected %d rows restored, got %+v", len(previous.CurriculumRows), restored.Applied)
	}
	current := mustExport(t, svc)
	if !reflect.DeepEqual(previous.CurriculumRows, current.CurriculumRows) {
		t.Fatalf("restore differs from backup")
	}
}

func TestArchiveSnapshotRequiresArchive(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.ArchiveSnapshot(context.Background(), ArchiveExport); err == nil {
		t.Fatalf("expected error without archive")
	}
	if _, err := svc.RestoreArchived(context.Background(), "snapshots/backup/x.json"); err == nil {
		t.Fatalf("expected error without archive")
	}
}
