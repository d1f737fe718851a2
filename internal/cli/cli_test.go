package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"curriculumcore/internal/config"
	"curriculumcore/internal/core"
	"curriculumcore/internal/snapshot"
	"curriculumcore/pkg/domain"
)

type testEnv struct {
	dir    string
	dbPath string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CURRICULUM_BLOB_FS_ROOT", filepath.Join(dir, "archive"))
	t.Setenv("CURRICULUM_LOG_LEVEL", "error")
	return testEnv{dir: dir, dbPath: filepath.Join(dir, "curriculum.db")}
}

func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--sqlite-path", e.dbPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e testEnv) runWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetIn(in)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--sqlite-path", e.dbPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

type blankReader struct{}

func (blankReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = ' '
	}
	return len(p), nil
}

func (e testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const seedYAML = `admin: true
tabs:
  - name: Grade 1
    order: 1
    subjects:
      - name: Math
        tables:
          - tableName: g1-math
      - name: Reading
        tables:
          - tableName: g1-reading
`

func TestSeedExportImportCycle(t *testing.T) {
	env := newTestEnv(t)
	seedFile := env.write(t, "nav.yaml", seedYAML)

	out, err := env.run(t, "seed", seedFile)
	if err != nil {
		t.Fatalf("seed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "created 1 tabs, 2 subjects, 2 tables") {
		t.Fatalf("unexpected seed output %q", out)
	}

	exportFile := filepath.Join(env.dir, "export.json")
	if out, err := env.run(t, "export", "-o", exportFile); err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	out, err = env.run(t, "validate", exportFile)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "rows: 2") || !strings.Contains(out, "tabs: 2") {
		t.Fatalf("unexpected summary %q", out)
	}

	out, err = env.run(t, "import", exportFile)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "backup written to snapshots/backup/") {
		t.Fatalf("expected backup line, got %q", out)
	}
	out, err = env.run(t, "backups", "list")
	if err != nil || !strings.Contains(out, "snapshots/backup/") {
		t.Fatalf("backups list: %v\n%s", err, out)
	}

	out, err = env.run(t, "cleanup-orphans", "--dry-run")
	if err != nil || !strings.Contains(out, "0 orphaned rows found") {
		t.Fatalf("cleanup dry run: %v\n%s", err, out)
	}
}

func TestValidateRejectsBadDocument(t *testing.T) {
	env := newTestEnv(t)
	bad := env.write(t, "bad.json", `{"curriculumRows":[],"metadata":{}}`)
	if _, err := env.run(t, "validate", bad); err == nil || !strings.Contains(err.Error(), "standards") {
		t.Fatalf("expected missing standards error, got %v", err)
	}
	if _, err := env.run(t, "validate", filepath.Join(env.dir, "absent.json")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestValidateRejectsOversizedInput(t *testing.T) {
	env := newTestEnv(t)
	oversized := io.LimitReader(blankReader{}, snapshot.MaxPayloadBytes+1)
	_, err := env.runWithInput(t, oversized, "validate", "-")
	if domain.KindOf(err) != domain.KindValidation || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestSeedRejectsUnknownFields(t *testing.T) {
	env := newTestEnv(t)
	seedFile := env.write(t, "nav.yaml", "tabz: []\n")
	if _, err := env.run(t, "seed", seedFile); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestBackupsRequireArchive(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv("CURRICULUM_ARCHIVE_ENABLED", "false")
	if _, err := env.run(t, "backups", "list"); err == nil {
		t.Fatalf("expected archive disabled error")
	}
}

func TestNewMuxServesMetricsAndAPI(t *testing.T) {
	cfg, err := config.Resolve(config.New())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	logger := newLogger(&bytes.Buffer{}, cfg)
	reg := prometheus.NewRegistry()
	prom, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(), core.WithMetricsRecorder(prom), core.WithLogger(logger))
	mux := newMux(svc, reg, logger)

	for _, path := range []string{"/api/v1/tabs", "/metrics", "/debug/vars", "/healthz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rec.Code)
		}
		if path == "/metrics" && !strings.Contains(rec.Body.String(), "curriculum_service_operations_total") {
			t.Fatalf("expected service metrics exposed, got %q", rec.Body.String())
		}
	}
}
