package httpapi_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"curriculumcore/internal/adapters/httpapi"
	"curriculumcore/internal/core"
	memblob "curriculumcore/internal/infra/blob/memory"
	"curriculumcore/pkg/domain"
)

func setupHandler(t *testing.T, opts ...core.Option) (*core.Service, *httpapi.Handler) {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(), opts...)
	return svc, httpapi.NewHandler(svc, nil)
}

func do(t *testing.T, h http.Handler, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, url, reader)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("status = %d, want %d: %s", resp.Code, want, resp.Body.String())
	}
}

func TestHandlerNavigationFlow(t *testing.T) {
	_, handler := setupHandler(t)

	resp := do(t, handler, http.MethodPost, "/api/v1/tabs", map[string]any{"name": "Grade 1", "order": 1})
	expectStatus(t, resp, http.StatusCreated)
	tab := decode[struct{ Tab core.NavigationTab }](t, resp).Tab

	resp = do(t, handler, http.MethodPost, "/api/v1/dropdowns", map[string]any{"tabId": tab.ID, "name": "Math"})
	expectStatus(t, resp, http.StatusCreated)
	item := decode[struct {
		DropdownItem core.DropdownItem `json:"dropdownItem"`
	}](t, resp).DropdownItem

	resp = do(t, handler, http.MethodPost, "/api/v1/table-configs", map[string]any{
		"tabId": tab.ID, "dropdownId": item.ID, "tableName": "g1-math",
	})
	expectStatus(t, resp, http.StatusCreated)

	resp = do(t, handler, http.MethodGet, "/api/v1/curriculum?tableName=g1-math", nil)
	expectStatus(t, resp, http.StatusOK)
	rows := decode[struct {
		CurriculumRows []core.CurriculumRow `json:"curriculumRows"`
	}](t, resp).CurriculumRows
	if len(rows) != 1 || rows[0].Grade != "Grade 1" || rows[0].Subject != "Math" {
		t.Fatalf("expected seeded row, got %+v", rows)
	}

	resp = do(t, handler, http.MethodDelete, fmt.Sprintf("/api/v1/tabs/%d", tab.ID), nil)
	expectStatus(t, resp, http.StatusOK)
	cascade := decode[struct {
		Deleted core.CascadeResult `json:"deleted"`
	}](t, resp).Deleted
	if cascade.RowsDeleted != 1 || cascade.TableConfigsDeleted != 1 || cascade.DropdownItemsDeleted != 1 {
		t.Fatalf("unexpected cascade %+v", cascade)
	}
	resp = do(t, handler, http.MethodGet, fmt.Sprintf("/api/v1/tabs/%d", tab.ID), nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestHandlerErrorStatuses(t *testing.T) {
	svc, handler := setupHandler(t)
	admin, err := svc.EnsureAdminTab(t.Context())
	if err != nil {
		t.Fatalf("admin: %v", err)
	}

	cases := []struct {
		name   string
		method string
		url    string
		body   any
		status int
		kind   domain.ErrorKind
	}{
		{"missing tab", http.MethodGet, "/api/v1/tabs/999", nil, http.StatusNotFound, domain.KindNotFound},
		{"reserved order", http.MethodPost, "/api/v1/tabs", map[string]any{"name": "X", "order": 100}, http.StatusBadRequest, domain.KindValidation},
		{"admin delete", http.MethodDelete, fmt.Sprintf("/api/v1/tabs/%d", admin.ID), nil, http.StatusForbidden, domain.KindProtected},
		{"admin rename", http.MethodPatch, fmt.Sprintf("/api/v1/tabs/%d", admin.ID), map[string]any{"name": "Root"}, http.StatusForbidden, domain.KindProtected},
		{"bad id", http.MethodGet, "/api/v1/curriculum/abc", nil, http.StatusBadRequest, domain.KindValidation},
		{"unknown field", http.MethodPost, "/api/v1/standards", `{"code":"A","category":"B","extra":1}`, http.StatusBadRequest, domain.KindValidation},
		{"empty body", http.MethodPost, "/api/v1/standards", nil, http.StatusBadRequest, domain.KindValidation},
		{"missing tabId", http.MethodGet, "/api/v1/dropdowns", nil, http.StatusBadRequest, domain.KindValidation},
		{"bad school year", http.MethodPut, "/api/v1/school-year", map[string]any{"year": "2026-2030"}, http.StatusBadRequest, domain.KindValidation},
		{"missing table config", http.MethodDelete, "/api/v1/table-configs/12", nil, http.StatusNotFound, domain.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, handler, tc.method, tc.url, tc.body)
			expectStatus(t, resp, tc.status)
			body := decode[map[string]any](t, resp)
			if body["kind"] != string(tc.kind) {
				t.Fatalf("kind = %v, want %s", body["kind"], tc.kind)
			}
		})
	}
}

func TestHandlerRoutingMisses(t *testing.T) {
	_, handler := setupHandler(t)
	for _, tc := range []struct {
		method string
		url    string
		status int
	}{
		{http.MethodGet, "/api/v2/tabs", http.StatusNotFound},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
		{http.MethodPut, "/api/v1/tabs", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/v1/tabs/active", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/tabs/1/extra", http.StatusNotFound},
		{http.MethodGet, "/api/v1/admin/import", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/admin/backups", http.StatusNotFound},
	} {
		resp := do(t, handler, tc.method, tc.url, nil)
		if resp.Code != tc.status {
			t.Fatalf("%s %s: status %d, want %d", tc.method, tc.url, resp.Code, tc.status)
		}
	}
	resp := do(t, httpapi.NewHandler(nil, nil), http.MethodGet, "/api/v1/tabs", nil)
	expectStatus(t, resp, http.StatusInternalServerError)
}

func TestHandlerActiveTabsAndWarnings(t *testing.T) {
	_, handler := setupHandler(t)
	expectStatus(t, do(t, handler, http.MethodPost, "/api/v1/tabs/admin", nil), http.StatusOK)
	expectStatus(t, do(t, handler, http.MethodPost, "/api/v1/tabs", map[string]any{"name": "Grade 2", "order": 2}), http.StatusCreated)
	expectStatus(t, do(t, handler, http.MethodPost, "/api/v1/tabs", map[string]any{"name": "Grade 1", "order": 1}), http.StatusCreated)

	resp := do(t, handler, http.MethodGet, "/api/v1/tabs/active", nil)
	expectStatus(t, resp, http.StatusOK)
	tabs := decode[struct{ Tabs []core.NavigationTab }](t, resp).Tabs
	var names []string
	for _, tab := range tabs {
		names = append(names, tab.Name)
	}
	if strings.Join(names, ",") != "Grade 1,Grade 2,Admin" {
		t.Fatalf("unexpected active tab order %v", names)
	}

	resp = do(t, handler, http.MethodPost, "/api/v1/curriculum", map[string]any{"grade": "KG", "subject": "Art", "tableName": "ghost"})
	expectStatus(t, resp, http.StatusCreated)
	body := decode[map[string]any](t, resp)
	if warnings, _ := body["warnings"].([]any); len(warnings) != 1 {
		t.Fatalf("expected orphan warning, got %v", body)
	}

	resp = do(t, handler, http.MethodGet, "/api/v1/admin/cleanup-orphans", nil)
	expectStatus(t, resp, http.StatusOK)
	if orphans := decode[map[string][]any](t, resp)["orphanedRows"]; len(orphans) != 1 {
		t.Fatalf("expected one orphan, got %v", orphans)
	}
	resp = do(t, handler, http.MethodPost, "/api/v1/admin/cleanup-orphans", nil)
	expectStatus(t, resp, http.StatusOK)
	if removed := decode[map[string]any](t, resp)["removed"]; removed != float64(1) {
		t.Fatalf("expected one removed, got %v", removed)
	}
}

func TestHandlerCurriculumCSV(t *testing.T) {
	_, handler := setupHandler(t)
	expectStatus(t, do(t, handler, http.MethodPost, "/api/v1/curriculum", map[string]any{
		"grade": "KG", "subject": "Math", "objectives": "Count, compare", "standards": []string{"K.1", "K.2"},
	}), http.StatusCreated)

	resp := do(t, handler, http.MethodGet, "/api/v1/curriculum?format=csv", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %s", ct)
	}
	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 || records[1][4] != "Count, compare" || records[1][11] != "K.1;K.2" {
		t.Fatalf("unexpected csv %v", records)
	}

	resp = do(t, handler, http.MethodGet, "/api/v1/curriculum?format=xml", nil)
	expectStatus(t, resp, http.StatusNotAcceptable)
}

func TestHandlerExportImportRoundTrip(t *testing.T) {
	archive := core.NewArchive(memblob.New(), nil)
	src, handler := setupHandler(t)
	if _, _, err := src.CreateStandard(t.Context(), core.NewStandard{Code: "MA.1", Category: "Math"}); err != nil {
		t.Fatalf("standard: %v", err)
	}
	if _, _, err := src.CreateCurriculumRow(t.Context(), core.NewCurriculumRow{Grade: "KG", Subject: "Math"}); err != nil {
		t.Fatalf("row: %v", err)
	}

	resp := do(t, handler, http.MethodGet, "/api/v1/admin/export", nil)
	expectStatus(t, resp, http.StatusOK)
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "curriculum-export-") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	exported := resp.Body.String()

	resp = do(t, handler, http.MethodPost, "/api/v1/admin/import/validate", exported)
	expectStatus(t, resp, http.StatusOK)
	validated := decode[map[string]any](t, resp)
	if validated["valid"] != true {
		t.Fatalf("expected valid, got %v", validated)
	}

	_, dst := setupHandler(t, core.WithArchive(archive, true))
	resp = do(t, dst, http.MethodPost, "/api/v1/admin/import", exported)
	expectStatus(t, resp, http.StatusOK)
	imported := decode[struct {
		Import core.ImportResult `json:"import"`
	}](t, resp).Import
	if imported.Applied.CurriculumRows != 1 || imported.Applied.Standards != 1 || imported.Backup == nil {
		t.Fatalf("unexpected import %+v", imported)
	}

	resp = do(t, dst, http.MethodGet, "/api/v1/admin/backups?kind=backup", nil)
	expectStatus(t, resp, http.StatusOK)
	if backups := decode[map[string][]any](t, resp)["backups"]; len(backups) != 1 {
		t.Fatalf("expected one backup, got %v", backups)
	}
	resp = do(t, dst, http.MethodPost, "/api/v1/admin/backups/restore", map[string]any{"key": imported.Backup.Key})
	expectStatus(t, resp, http.StatusOK)

	resp = do(t, dst, http.MethodPost, "/api/v1/admin/import/validate", `{"curriculumRows":[],"standards":[],"metadata":{"totalCurriculumEntries":0,"totalStandards":3}}`)
	expectStatus(t, resp, http.StatusBadRequest)
	if body := decode[map[string]any](t, resp); body["field"] != "metadata.totalStandards" {
		t.Fatalf("expected metadata field, got %v", body)
	}
}
