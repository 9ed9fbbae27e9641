package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateProjects(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", sampleProject)
	bad := writeFile(t, dir, "bad.yaml", invalidProject)

	prev := validateFlags
	defer func() { validateFlags = prev }()

	t.Run("valid project", func(t *testing.T) {
		validateFlags.format = "text"
		cmd, out := newTestCommand()
		if err := validateProjects(cmd, []string{good}); err != nil {
			t.Fatalf("validateProjects() error = %v", err)
		}
		if !strings.Contains(out.String(), "✓ "+good+" (SR 37 Widening)") {
			t.Errorf("output = %q", out.String())
		}
		// season is answered in metadata; proximity to water is not.
		if strings.Contains(out.String(), "construction season") {
			t.Error("season question should be answered by metadata")
		}
		if !strings.Contains(out.String(), "question: Is work adjacent to waterways") {
			t.Error("expected the waters question")
		}
	})

	t.Run("invalid project as json", func(t *testing.T) {
		validateFlags.format = "json"
		cmd, out := newTestCommand()
		err := validateProjects(cmd, []string{good, bad})
		if err == nil {
			t.Fatal("expected error for invalid project")
		}

		var checks []projectCheck
		if err := json.Unmarshal(out.Bytes(), &checks); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(checks) != 2 {
			t.Fatalf("got %d checks, want 2", len(checks))
		}
		if !checks[0].Valid || checks[1].Valid {
			t.Errorf("validity = %v, %v", checks[0].Valid, checks[1].Valid)
		}
		bad := checks[1]
		if len(bad.Errors) != 2 {
			t.Fatalf("expected one error per invalid field, got %v", bad.Errors)
		}
		for i, field := range []string{"project_name", "total_disturbed_acres"} {
			if !strings.Contains(bad.Errors[i], field) || strings.Contains(bad.Errors[i], "\n") {
				t.Errorf("Errors[%d] = %q, want a single %s error", i, bad.Errors[i], field)
			}
		}
		if len(bad.Questions) == 0 || bad.Questions[0] != "What is the total disturbed area (acres)?" {
			t.Errorf("invalid project should still get clarifying questions, got %v", bad.Questions)
		}
	})

	t.Run("undecodable project", func(t *testing.T) {
		validateFlags.format = "json"
		broken := writeFile(t, dir, "broken.yaml", "project_name: [unclosed\n")
		cmd, out := newTestCommand()
		if err := validateProjects(cmd, []string{broken}); err == nil {
			t.Fatal("expected error for undecodable project")
		}
		var checks []projectCheck
		if err := json.Unmarshal(out.Bytes(), &checks); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(checks) != 1 || len(checks[0].Errors) != 1 || !strings.Contains(checks[0].Errors[0], "failed to parse") {
			t.Errorf("checks = %+v", checks)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		validateFlags.format = "xml"
		cmd, _ := newTestCommand()
		if err := validateProjects(cmd, []string{good}); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
