// Package search canonicalizes raw metadata values against the loaded
// vocabularies: it maps schema fields to vocabulary lists and resolves
// values to URIs through membership, synonym, label and regexp lookups.
package search

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var embeddedFields []byte

// TerritoryField is the schema field whose vocabularies feed territory
// reconciliation.
const TerritoryField = "territory"

// FieldIndex maps schema-field paths to the ordered vocabularies their
// values belong to. Read-mostly process-wide state; Load(update) swaps
// the mapping explicitly.
type FieldIndex struct {
	mu     sync.RWMutex
	byPath map[string][]string
	loaded bool
}

type fieldEntry struct {
	Path         []string `yaml:"path"`
	Vocabularies []string `yaml:"vocabularies"`
}

type fieldsDocument struct {
	Fields []fieldEntry `yaml:"fields"`
}

// pathKey flattens a field path.
func pathKey(path []string) string {
	return strings.Join(path, "/")
}

// Load builds the mapping from the embedded declaration. Once loaded the
// index is left untouched unless update is true.
func (ix *FieldIndex) Load(update bool) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.loaded && !update {
		return nil
	}
	var doc fieldsDocument
	if err := yaml.Unmarshal(embeddedFields, &doc); err != nil {
		return fmt.Errorf("parse field mapping: %w", err)
	}
	byPath := make(map[string][]string, len(doc.Fields))
	for i, entry := range doc.Fields {
		if len(entry.Path) == 0 {
			return fmt.Errorf("field mapping entry %d: path is required", i)
		}
		if len(entry.Vocabularies) == 0 {
			return fmt.Errorf("field mapping %s: vocabularies are required", pathKey(entry.Path))
		}
		byPath[pathKey(entry.Path)] = entry.Vocabularies
		// a path ending in "uri" answers for its parent too
		if last := entry.Path[len(entry.Path)-1]; last == "uri" && len(entry.Path) > 1 {
			parent := pathKey(entry.Path[:len(entry.Path)-1])
			if _, taken := byPath[parent]; !taken {
				byPath[parent] = entry.Vocabularies
			}
		}
	}
	ix.byPath = byPath
	ix.loaded = true
	return nil
}

// List returns the ordered vocabularies for the path, with and without a
// leading "resource" segment. Unknown paths yield nil.
func (ix *FieldIndex) List(path ...string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if v, ok := ix.byPath[pathKey(path)]; ok {
		return v
	}
	if len(path) > 0 && path[0] == "resource" {
		return ix.byPath[pathKey(path[1:])]
	}
	return nil
}

var defaultFieldIndex FieldIndex

// DefaultIndex returns the process-wide field index, loading it lazily.
func DefaultIndex() (*FieldIndex, error) {
	if err := defaultFieldIndex.Load(false); err != nil {
		return nil, err
	}
	return &defaultFieldIndex, nil
}
