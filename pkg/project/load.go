package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names an input encoding.
type Format string

const (
	FormatAuto Format = "auto"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// Load reads a project file, decodes it by extension and validates it.
func Load(path string) (*ProjectInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	p, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	p.SourceFile = path

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Parse decodes a project document without validating it. FormatAuto treats
// input starting with '{' as JSON and everything else as YAML.
func Parse(data []byte, format Format) (*ProjectInput, error) {
	if format == FormatAuto {
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			format = FormatJSON
		} else {
			format = FormatYAML
		}
	}

	var p ProjectInput
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	return &p, nil
}

// ReadFacts loads a raw fact mapping (no project schema) from YAML or JSON.
// It is used for ad-hoc evaluation where the caller supplies facts directly.
func ReadFacts(path string) (Facts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facts file: %w", err)
	}

	var facts map[string]any
	if FormatFromPath(path) == FormatJSON {
		err = json.Unmarshal(data, &facts)
	} else {
		err = yaml.Unmarshal(data, &facts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse facts %s: %w", path, err)
	}
	if facts == nil {
		facts = map[string]any{}
	}
	return Facts(facts), nil
}
