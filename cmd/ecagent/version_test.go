package main

import (
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}

	origVersion := Version
	Version = "0.1.0-test"
	defer func() { Version = origVersion }()

	cmd, out := newTestCommand()
	versionCmd.Run(cmd, nil)

	for _, want := range []string{"ecagent 0.1.0-test", "Git Commit:", "Go Version:", "OS/Arch:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := []string{"process", "validate", "rules", "citations", "pricing", "evidence", "watch", "version"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}
