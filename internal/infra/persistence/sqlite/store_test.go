package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"curriculumcore/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tab, err := tx.CreateNavigationTab(domain.NavigationTab{Name: "Grade 1", IsActive: true})
		if err != nil {
			return err
		}
		item, err := tx.CreateDropdownItem(domain.DropdownItem{TabID: tab.ID, Name: "Math"})
		if err != nil {
			return err
		}
		if _, err := tx.CreateTableConfig(domain.TableConfig{TabID: tab.ID, DropdownID: item.ID, TableName: "unit-a"}); err != nil {
			return err
		}
		_, err = tx.CreateCurriculumRow(domain.CurriculumRow{Grade: "Grade 1", Subject: "Math", TableName: "unit-a", Standards: []string{"M.1"}})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file missing: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %s", reloaded.Path())
	}
	err = reloaded.View(ctx, func(view domain.TransactionView) error {
		rows := view.CurriculumRowsForTable("unit-a")
		if len(rows) != 1 || rows[0].Standards[0] != "M.1" {
			t.Fatalf("expected persisted row, got %+v", rows)
		}
		if _, ok := view.FindNavigationTabByName("Grade 1"); !ok {
			t.Fatalf("expected persisted tab")
		}
		if _, ok := view.SchoolYear(); !ok {
			t.Fatalf("expected persisted school year")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if _, err := reloaded.RunInTransaction(ctx, func(tx domain.Transaction) error {
		tab, err := tx.CreateNavigationTab(domain.NavigationTab{Name: "Grade 2"})
		if err != nil {
			return err
		}
		if tab.ID != 2 {
			t.Fatalf("expected sequence persisted, got %d", tab.ID)
		}
		return nil
	}); err != nil {
		t.Fatalf("create after reload: %v", err)
	}
}

func TestSQLiteStoreFailedPersistKeepsMemoryState(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.DB().Exec(`DROP TABLE state`); err != nil {
		t.Fatalf("drop state: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateStandard(domain.Standard{Code: "M.1", Category: "Math"})
		return err
	})
	if err == nil {
		t.Fatalf("expected persist failure")
	}
	_ = store.View(context.Background(), func(view domain.TransactionView) error {
		if len(view.ListStandards()) != 0 {
			t.Fatalf("expected failed commit to stay invisible")
		}
		return nil
	})
	_ = store.Close()
}
