package main

import (
	"strings"
	"testing"

	"ecagent-hq/ecagent/pkg/config"
)

func TestShowConfig(t *testing.T) {
	dir := useConfig(t, "")
	t.Setenv("ECAGENT_CITATIONS_TOP_K", "7")
	prev := configFlags
	t.Cleanup(func() {
		configFlags = prev
		config.Set(nil)
	})
	configFlags.format = "yaml"

	cmd, out := newTestCommand()
	if err := showConfig(cmd, nil); err != nil {
		t.Fatalf("showConfig() error = %v", err)
	}
	for _, want := range []string{"required_prefix: INDOT", "top_k: 7", dir + "/evidence.db"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	configFlags.format = "text"
	if err := showConfig(cmd, nil); err == nil {
		t.Error("expected error for text format")
	}
}
