package parser

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Func is the contract of a vocabulary parser: fetch url, populate a
// cluster, record errors, never panic. A Func always returns a usable
// Result; critical failures are carried inside it.
type Func func(ctx context.Context, vocabulary, url string, params Params) *Result

// Registry maps parser names to parser functions. Thread-safe.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Func
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Func)}
}

// Register adds a parser under name, replacing any previous registration.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[name] = fn
}

// Get returns the parser registered under name.
func (r *Registry) Get(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.parsers[name]
	if !ok {
		return nil, fmt.Errorf("parser not registered: %s", name)
	}
	return fn, nil
}

// Names returns the registered parser names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultParserName is used by catalog entries without an explicit parser.
const DefaultParserName = "skos"

// DefaultRegistry is the global parser registry; parsers register
// themselves in it via init().
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register("skos", ParseSKOS)
	DefaultRegistry.Register("spdx_license", ParseSPDXLicenses)
	DefaultRegistry.Register("iogp_epsg", ParseIOGPEPSG)
	DefaultRegistry.Register("ogc_epsg", ParseOGCEPSG)
	DefaultRegistry.Register("ecospheres_themes", ParseEcospheresThemes)
	DefaultRegistry.Register("ecospheres_territories", ParseEcospheresTerritories)
}
