package ast

import "fmt"

// Location identifies where a rule came from in its source document.
type Location struct {
	File  string // Path to the rule file, or "<defaults>" for built-in rules
	Line  int    // Line number (1-based)
	Index int    // Position of the rule within the document (0-based)
}

// String returns "file:line", or "file#index" when no line is known.
func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	if l.Line > 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return fmt.Sprintf("%s#%d", l.File, l.Index)
}

// IsValid reports whether the location names a file.
func (l Location) IsValid() bool {
	return l.File != ""
}
