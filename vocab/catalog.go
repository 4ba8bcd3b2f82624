// Package vocab exposes the declarative vocabulary catalog and the index
// built from it: name enumeration, parser resolution, parsing and JSON
// dumps. The catalog is read-mostly, process-wide state; reloading it is
// explicit and never happens from parsers.
package vocab

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ecolabdata/ecospheres-vocabularies/parser"
)

//go:embed vocabularies.yaml
var embeddedCatalog []byte

// Entry is one vocabulary record of the catalog. Any key other than the
// reserved ones is forwarded to the parser as a parameter.
type Entry struct {
	// Name uniquely identifies the vocabulary.
	Name string `yaml:"name"`
	// URL is the base URL the parser fetches.
	URL string `yaml:"url"`
	// Parser names the parser function; empty means the generic SKOS
	// parser.
	Parser string `yaml:"parser"`
	// Available marks the vocabulary as usable; unset means true.
	Available *bool `yaml:"available"`
	// Params carries the remaining keys (schemes, rdf_types, languages,
	// limit, ...).
	Params map[string]any `yaml:",inline"`
}

// IsAvailable reports whether the entry is marked available.
func (e Entry) IsAvailable() bool {
	return e.Available == nil || *e.Available
}

// ParserName returns the parser to use, defaulting to the SKOS parser.
func (e Entry) ParserName() string {
	if e.Parser == "" {
		return parser.DefaultParserName
	}
	return e.Parser
}

// catalog is the YAML document shape.
type catalog struct {
	Vocabularies []Entry `yaml:"vocabularies"`
}

// parseCatalog decodes and checks a catalog document.
func parseCatalog(data []byte) ([]Entry, error) {
	var doc catalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Vocabularies))
	for i, e := range doc.Vocabularies {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: name is required", i)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate vocabulary %q", e.Name)
		}
		seen[e.Name] = struct{}{}
		if e.URL == "" {
			return nil, fmt.Errorf("catalog entry %q: url is required", e.Name)
		}
	}
	return doc.Vocabularies, nil
}
