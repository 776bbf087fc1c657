package bank

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest names the collection files that make up each pool.
type Manifest struct {
	Sources map[QuestionType][]string `yaml:"sources"`
}

// DefaultManifest is the stock layout: one file per type and two
// reading-comprehension banks merged into a single pool.
func DefaultManifest() Manifest {
	return Manifest{Sources: map[QuestionType][]string{
		TypeAnalogy:    {"analogy.json"},
		TypeCompletion: {"completion.json"},
		TypeError:      {"error.json"},
		TypeRC:         {"reading_comprehension.json", "reading_comprehension_2.json"},
		TypeOdd:        {"odd_one_out.json"},
	}}
}

// LoadManifest reads a YAML manifest. An empty path yields DefaultManifest.
func LoadManifest(path string) (Manifest, error) {
	if path == "" {
		return DefaultManifest(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(b)
}

func ParseManifest(b []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	for t := range m.Sources {
		if !t.Valid() {
			return Manifest{}, fmt.Errorf("manifest: unknown question type %q", t)
		}
	}
	return m, nil
}

// TypeOf reports which pool a collection file feeds.
func (m Manifest) TypeOf(file string) (QuestionType, bool) {
	for t, files := range m.Sources {
		for _, f := range files {
			if f == file {
				return t, true
			}
		}
	}
	return "", false
}
