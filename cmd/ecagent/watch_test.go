package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"ecagent-hq/ecagent/pkg/config"
	"ecagent-hq/ecagent/pkg/evidence/storage"
	"ecagent-hq/ecagent/pkg/rules/ast"
	"ecagent-hq/ecagent/pkg/rules/store"
	"ecagent-hq/ecagent/pkg/telemetry/health"
	"ecagent-hq/ecagent/pkg/telemetry/metrics"
)

func defaultRules(t *testing.T, cfg *config.Config) *ast.RuleSet {
	t.Helper()
	rs, err := newLoader(cfg).Load("")
	if err != nil {
		t.Fatalf("load built-in rules: %v", err)
	}
	return rs
}

func TestWatchServer(t *testing.T) {
	cfg := config.Default()

	m := metrics.NewEngineMetrics(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	m.RecordReload(nil)
	registry := store.NewRegistry(defaultRules(t, cfg))
	evStore := storage.NewMemoryStorage()
	defer evStore.Close()

	ts := httptest.NewServer(newWatchServer(cfg, m, registry, evStore).Handler)
	defer ts.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	code, body := get("/metrics")
	if code != http.StatusOK || !strings.Contains(body, "ecagent_rule_reloads_total") {
		t.Errorf("/metrics = %d\n%s", code, body)
	}

	code, body = get("/ready")
	if code != http.StatusOK {
		t.Fatalf("/ready = %d: %s", code, body)
	}
	var status health.HealthStatus
	if err := json.Unmarshal([]byte(body), &status); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"rules", "evidence"} {
		if status.Checks[name].Status != health.StatusOK {
			t.Errorf("check %s = %+v", name, status.Checks[name])
		}
	}

	if code, _ := get("/health"); code != http.StatusOK {
		t.Errorf("/health = %d", code)
	}

	code, body = get("/version")
	if code != http.StatusOK || !strings.Contains(body, `"version"`) {
		t.Errorf("/version = %d: %s", code, body)
	}
}

func TestWatchServer_Disabled(t *testing.T) {
	cfg := config.Default()
	cfg.Telemetry.Metrics.Enabled = false
	cfg.Telemetry.Health.Enabled = false

	m := metrics.NewEngineMetrics(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	registry := store.NewRegistry(defaultRules(t, cfg))
	ts := httptest.NewServer(newWatchServer(cfg, m, registry, nil).Handler)
	defer ts.Close()

	for _, path := range []string{"/metrics", "/ready"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestWriteReport(t *testing.T) {
	dir := useConfig(t, "")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}

	prev := watchFlags
	t.Cleanup(func() { watchFlags = prev })
	watchFlags.outDir = filepath.Join(dir, "reports")
	watchFlags.format = formatMarkdown

	projectPath := writeFile(t, dir, "sr37.yaml", sampleProject)
	if err := ensureOutDir([]string{projectPath}); err != nil {
		t.Fatal(err)
	}

	p, err := newPipeline(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), pipelineOptions{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := writeReport(context.Background(), p, projectPath, defaultRules(t, cfg), nil); err != nil {
		t.Fatalf("writeReport() error = %v", err)
	}
	report, err := os.ReadFile(filepath.Join(watchFlags.outDir, "sr37.md"))
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(report), "SR 37 Widening") {
		t.Errorf("report = %s", report)
	}

	bad := writeFile(t, dir, "bad.yaml", invalidProject)
	if err := writeReport(context.Background(), p, bad, defaultRules(t, cfg), nil); err == nil {
		t.Error("expected error for an invalid project")
	}
	if _, err := os.Stat(filepath.Join(watchFlags.outDir, "bad.md")); !os.IsNotExist(err) {
		t.Errorf("report written for a failed project: %v", err)
	}
}

func TestWatchRules_RequiresRuleFile(t *testing.T) {
	useConfig(t, "")
	prev := watchFlags
	t.Cleanup(func() { watchFlags = prev })
	watchFlags.rules = ""
	watchFlags.format = formatMarkdown

	cmd, _ := newTestCommand()
	if err := watchRules(cmd, nil); err == nil {
		t.Error("expected error without a rule file")
	}
}
