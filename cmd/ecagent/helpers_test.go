package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

const sampleProject = `
project_name: SR 37 Widening
jurisdiction: Indiana
total_disturbed_acres: 5.2
predominant_soil: clay
predominant_slope: steep
average_slope_percent: 22
drainage_features:
  - id: DI-1
    type: inlet
    location: STA 10+50
    drainage_area_acres: 1.5
  - id: DI-2
    type: inlet
    location: STA 14+00
    drainage_area_acres: 2.0
metadata:
  season: spring
`

const invalidProject = `
project_name: ""
jurisdiction: Indiana
total_disturbed_acres: -1
predominant_soil: clay
predominant_slope: steep
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// useConfig writes a config file into a temp directory, points --config at
// it and returns the directory. Evidence goes to a SQLite file in the same
// directory so that later commands can read it back.
func useConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`
rules:
  watch: false
engine:
  use_price_history: false
citations:
  resources_dir: %[1]s/resources
pricing:
  db_path: %[1]s/bidtabs.db
evidence:
  backend: sqlite
  sqlite:
    path: %[1]s/evidence.db
  retention:
    archive_path: %[1]s/archives
telemetry:
  logging:
    level: error
  tracing:
    enabled: false
%[2]s`, dir, extra)
	path := writeFile(t, dir, "ecagent.yaml", content)

	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })
	return dir
}

// newTestCommand returns a command whose stdout is captured.
func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	return cmd, out
}
