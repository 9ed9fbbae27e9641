package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("output", "bad value")
	if got, want := err.Error(), "config error in output: bad value"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCommandError(t *testing.T) {
	base := errors.New("boom")
	err := NewCommandError("process", base)

	if got, want := err.Error(), "command process failed: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, base) {
		t.Error("CommandError should unwrap to the underlying error")
	}
	if NewCommandError("process", nil) != nil {
		t.Error("nil error should stay nil")
	}

	again := NewCommandError("outer", err)
	if again != err {
		t.Error("an existing CommandError should not be wrapped twice")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"config", NewConfigError("f", "m"), 2},
		{"wrapped config", fmt.Errorf("ctx: %w", NewConfigError("f", "m")), 2},
		{"other", errors.New("x"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
