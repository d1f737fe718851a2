package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"curriculumcore/internal/infra/persistence/postgres/testutil"
	"curriculumcore/pkg/domain"
)

func openStub(t *testing.T) (*testutil.StateConn, func()) {
	t.Helper()
	db, conn := testutil.NewStateDB()
	restore := OverrideSQLOpen(func(driverName, _ string) (*sql.DB, error) {
		if driverName != defaultDriver {
			t.Fatalf("unexpected driver %s", driverName)
		}
		return db, nil
	})
	return conn, restore
}

func TestNewStoreCreatesStateTableAndPersists(t *testing.T) {
	conn, restore := openStub(t)
	defer restore()
	ctx := context.Background()

	store, err := NewStore(ctx, "", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got %v", conn.Execs)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateStandard(domain.Standard{Code: "M.1", Category: "Math"})
		return err
	}); err != nil {
		t.Fatalf("create standard: %v", err)
	}
	if standards, _ := conn.Bucket("standards"); !strings.Contains(standards, `"M.1"`) {
		t.Fatalf("expected standards bucket persisted, got %q", standards)
	}
	if _, ok := conn.Bucket("school_year"); !ok {
		t.Fatalf("expected school year bucket persisted")
	}
}

func TestNewStoreHydratesFromBuckets(t *testing.T) {
	conn, restore := openStub(t)
	defer restore()
	conn.Buckets["navigation_tabs"] = []byte(`{"7":{"id":7,"name":"Grade 3","isActive":true}}`)
	conn.Buckets["sequences"] = []byte(`{"navigation_tab":7}`)
	conn.Buckets["unknown"] = []byte(`{}`)
	store, err := NewStore(context.Background(), "postgres://stub", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_ = store.View(context.Background(), func(view domain.TransactionView) error {
		tab, ok := view.FindNavigationTab(7)
		if !ok || tab.Name != "Grade 3" {
			t.Fatalf("expected hydrated tab, got %+v", tab)
		}
		if _, ok := view.SchoolYear(); !ok {
			t.Fatalf("expected default school year when bucket absent")
		}
		return nil
	})
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		tab, err := tx.CreateNavigationTab(domain.NavigationTab{Name: "Grade 4"})
		if err != nil {
			return err
		}
		if tab.ID != 8 {
			t.Fatalf("expected id after hydrated sequence, got %d", tab.ID)
		}
		return nil
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestNewStoreErrors(t *testing.T) {
	ctx := context.Background()
	t.Run("open", func(t *testing.T) {
		restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, fmt.Errorf("boom") })
		defer restore()
		if _, err := NewStore(ctx, "", nil); err == nil || !strings.Contains(err.Error(), "open postgres") {
			t.Fatalf("expected open error, got %v", err)
		}
	})
	t.Run("ping", func(t *testing.T) {
		conn, restore := openStub(t)
		defer restore()
		conn.FailPing = true
		if _, err := NewStore(ctx, "", nil); err == nil || !strings.Contains(err.Error(), "ping postgres") {
			t.Fatalf("expected ping error, got %v", err)
		}
	})
	t.Run("decode", func(t *testing.T) {
		conn, restore := openStub(t)
		defer restore()
		conn.Buckets["standards"] = []byte(`not-json`)
		if _, err := NewStore(ctx, "", nil); err == nil || !strings.Contains(err.Error(), "decode standards") {
			t.Fatalf("expected decode error, got %v", err)
		}
	})
	t.Run("query", func(t *testing.T) {
		conn, restore := openStub(t)
		defer restore()
		conn.FailSelect = true
		if _, err := NewStore(ctx, "", nil); err == nil || !strings.Contains(err.Error(), "select state") {
			t.Fatalf("expected select error, got %v", err)
		}
	})
}

func TestPersistFailureLeavesStateInvisible(t *testing.T) {
	cases := []struct {
		name   string
		toggle func(*testutil.StateConn)
	}{
		{"begin", func(c *testutil.StateConn) { c.FailBegin = true }},
		{"upsert", func(c *testutil.StateConn) { c.FailUpsert = true }},
		{"commit", func(c *testutil.StateConn) { c.FailCommit = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, restore := openStub(t)
			defer restore()
			store, err := NewStore(context.Background(), "", nil)
			if err != nil {
				t.Fatalf("NewStore: %v", err)
			}
			tc.toggle(conn)
			_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
				_, err := tx.CreateNavigationTab(domain.NavigationTab{Name: "Grade 1"})
				return err
			})
			if err == nil {
				t.Fatalf("expected persist failure")
			}
			_ = store.View(context.Background(), func(view domain.TransactionView) error {
				if len(view.ListNavigationTabs()) != 0 {
					t.Fatalf("expected tab to stay invisible after %s failure", tc.name)
				}
				return nil
			})
		})
	}
}
