package store

import (
	"fmt"
	"os"
	"unicode/utf8"

	"ecagent-hq/ecagent/pkg/rules/ast"
	"ecagent-hq/ecagent/pkg/rules/parser"
)

// DefaultMaxFileSize bounds the size of a rule file.
const DefaultMaxFileSize int64 = 4 * 1024 * 1024

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// MaxFileSize is the largest rule file accepted, in bytes
	MaxFileSize int64

	// MaxDepth is the deepest condition nesting accepted
	MaxDepth int
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxFileSize: DefaultMaxFileSize,
		MaxDepth:    16,
	}
}

// Loader reads rule files from the file system.
type Loader struct {
	config *LoaderConfig
	parser *parser.Parser
}

// NewLoader creates a loader. A nil config uses DefaultLoaderConfig.
func NewLoader(config *LoaderConfig) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	p := parser.NewParser().WithMaxFileSize(config.MaxFileSize)
	if config.MaxDepth > 0 {
		p = p.WithMaxDepth(config.MaxDepth)
	}
	return &Loader{config: config, parser: p}
}

// Load returns the rule set stored at path. An empty path yields the
// built-in default rules.
func (l *Loader) Load(path string) (*ast.RuleSet, error) {
	if path == "" {
		return parser.Default()
	}

	data, err := l.read(path)
	if err != nil {
		return nil, err
	}
	return l.parser.ParseBytes(data, path)
}

// read performs the file checks and returns the document bytes.
func (l *Loader) read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		case os.IsPermission(err):
			return nil, &LoadError{FilePath: path, Message: "permission denied", Cause: err}
		default:
			return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
		}
	}

	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}

	if info.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}

	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file is not valid UTF-8"}
	}

	return data, nil
}
