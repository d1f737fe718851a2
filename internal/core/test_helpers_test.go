package core

import (
	"context"
	"testing"
	"time"

	"curriculumcore/pkg/domain"
)

var testNow = time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithClock(ClockFunc(func() time.Time { return testNow }))}, opts...)
	return NewInMemoryService(NewDefaultRulesEngine(), opts...)
}

type hierarchy struct {
	tab      NavigationTab
	dropdown DropdownItem
	config   TableConfig
}

// seedHierarchy creates tab -> dropdown -> table, which also seeds one row.
func seedHierarchy(t *testing.T, svc *Service, tabName, subject, table string) hierarchy {
	t.Helper()
	ctx := context.Background()
	var h hierarchy
	tab, found, err := svc.findTabByName(ctx, tabName)
	if err != nil {
		t.Fatalf("find tab: %v", err)
	}
	if !found {
		tab, _, err = svc.CreateTab(ctx, NewNavigationTab{Name: tabName})
		if err != nil {
			t.Fatalf("create tab %s: %v", tabName, err)
		}
	}
	h.tab = tab
	h.dropdown, _, err = svc.CreateDropdownItem(ctx, NewDropdownItem{TabID: tab.ID, Name: subject})
	if err != nil {
		t.Fatalf("create dropdown %s: %v", subject, err)
	}
	h.config, _, err = svc.CreateTableConfig(ctx, NewTableConfig{TabID: tab.ID, DropdownID: h.dropdown.ID, TableName: table})
	if err != nil {
		t.Fatalf("create table config %s: %v", table, err)
	}
	return h
}

func mustRows(t *testing.T, svc *Service, filter CurriculumRowFilter) []CurriculumRow {
	t.Helper()
	rows, err := svc.ListCurriculumRows(context.Background(), filter)
	if err != nil {
		t.Fatalf("list rows: %v", err)
	}
	return rows
}

func mustExport(t *testing.T, svc *Service) Snapshot {
	t.Helper()
	snap, err := svc.ExportSnapshot(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	return snap
}

func expectKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

// blockRule blocks any transaction containing a change matching entity and action.
type blockRule struct {
	entity domain.EntityType
	action domain.Action
}

func (blockRule) Name() string { return "test_block" }

func (r blockRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	for _, c := range changes {
		if c.Entity == r.entity && c.Action == r.action {
			return domain.Result{Violations: []domain.Violation{{
				Rule:     r.Name(),
				Severity: domain.SeverityBlock,
				Message:  "simulated failure",
				Entity:   c.Entity,
			}}}, nil
		}
	}
	return domain.Result{}, nil
}
