package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestName is the manifest file expected in a resources directory.
const ManifestName = "manifest.yaml"

// ErrNoManifest is returned when a resources directory has no manifest.
var ErrNoManifest = errors.New("resources manifest not found")

// ManifestEntry describes one reference document.
type ManifestEntry struct {
	DocID    string `yaml:"doc_id"`
	Filename string `yaml:"filename"`
	Title    string `yaml:"title,omitempty"`
}

// LoadManifest reads the manifest in dir.
func LoadManifest(dir string) ([]ManifestEntry, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var entries []ManifestEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return entries, nil
}

// ValidateResources lists problems with a resources directory: a missing
// manifest, entries without a filename or doc id, and missing files. An empty
// result means the directory is usable.
func ValidateResources(dir string) []string {
	entries, err := LoadManifest(dir)
	if err != nil {
		if errors.Is(err, ErrNoManifest) {
			return []string{fmt.Sprintf("Missing manifest at %s", filepath.Join(dir, ManifestName))}
		}
		return []string{err.Error()}
	}

	var problems []string
	for i, entry := range entries {
		if entry.DocID == "" {
			problems = append(problems, fmt.Sprintf("Manifest entry %d missing doc_id", i))
		}
		if entry.Filename == "" {
			problems = append(problems, fmt.Sprintf("Doc %s missing filename", entry.DocID))
			continue
		}
		path := filepath.Join(dir, entry.Filename)
		if _, err := os.Stat(path); err != nil {
			problems = append(problems, fmt.Sprintf("Missing document file %s", path))
		}
	}
	return problems
}
