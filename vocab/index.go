package vocab

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ecolabdata/ecospheres-vocabularies/parser"
	"github.com/ecolabdata/ecospheres-vocabularies/table"
)

// Index resolves catalog entries to parsers and orchestrates loading and
// dumping. Safe for concurrent readers; Reload swaps the whole entry set.
type Index struct {
	mu          sync.RWMutex
	entries     map[string]Entry
	order       []string
	registry    *parser.Registry
	dumpDir     string
	catalogPath string
	baseParams  parser.Params
	logger      *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithRegistry sets the parser registry (default: parser.DefaultRegistry).
func WithRegistry(r *parser.Registry) Option {
	return func(ix *Index) { ix.registry = r }
}

// WithDumpDir sets the directory JSON dumps are written to.
func WithDumpDir(dir string) Option {
	return func(ix *Index) { ix.dumpDir = dir }
}

// WithCatalogFile makes the index read its catalog from path instead of
// the embedded one. Reload re-reads the same path.
func WithCatalogFile(path string) Option {
	return func(ix *Index) { ix.catalogPath = path }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) { ix.logger = logger }
}

// WithRequestParams sets parser parameters applied to every load, such
// as HTTP timeout, proxy and credentials. Catalog entries and callers
// both override them.
func WithRequestParams(params parser.Params) Option {
	return func(ix *Index) { ix.baseParams = params }
}

// New builds an index from the embedded catalog, or from the file given
// with WithCatalogFile.
func New(opts ...Option) (*Index, error) {
	ix := &Index{
		registry: parser.DefaultRegistry,
		dumpDir:  "vocabularies",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	if err := ix.Reload(); err != nil {
		return nil, err
	}
	return ix, nil
}

// Reload re-reads the catalog and swaps the entry set atomically.
func (ix *Index) Reload() error {
	data := embeddedCatalog
	if ix.catalogPath != "" {
		var err error
		data, err = os.ReadFile(ix.catalogPath)
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
	}
	entries, err := parseCatalog(data)
	if err != nil {
		return err
	}
	byName := make(map[string]Entry, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
		order = append(order, e.Name)
	}

	ix.mu.Lock()
	ix.entries = byName
	ix.order = order
	ix.mu.Unlock()
	return nil
}

// Names returns the vocabulary names in catalog order, restricted to
// available ones when availableOnly is true.
func (ix *Index) Names(availableOnly bool) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	names := make([]string, 0, len(ix.order))
	for _, name := range ix.order {
		if availableOnly && !ix.entries[name].IsAvailable() {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Entry returns the catalog entry for name.
func (ix *Index) Entry(name string) (Entry, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("unknown vocabulary: %s", name)
	}
	return e, nil
}

// Get returns an arbitrary property of the entry: one of the reserved
// keys ("name", "url", "parser", "available") or a parser parameter.
func (ix *Index) Get(name, property string) (any, error) {
	e, err := ix.Entry(name)
	if err != nil {
		return nil, err
	}
	switch property {
	case "name":
		return e.Name, nil
	case "url":
		return e.URL, nil
	case "parser":
		return e.ParserName(), nil
	case "available":
		return e.IsAvailable(), nil
	default:
		return e.Params[property], nil
	}
}

// Parser resolves the parser function for the vocabulary.
func (ix *Index) Parser(name string) (parser.Func, error) {
	e, err := ix.Entry(name)
	if err != nil {
		return nil, err
	}
	fn, err := ix.registry.Get(e.ParserName())
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", name, err)
	}
	return fn, nil
}

// Params returns a copy of the entry's default parser parameters.
func (ix *Index) Params(name string) (parser.Params, error) {
	e, err := ix.Entry(name)
	if err != nil {
		return nil, err
	}
	return parser.Params{}.Merge(e.Params), nil
}

// Load resolves the parser, merges catalog parameters with the caller's
// request options (the caller wins) and invokes the parser. Unknown
// vocabularies and parsers are configuration errors; everything else is
// carried inside the result.
func (ix *Index) Load(ctx context.Context, name string, requestParams parser.Params) (*parser.Result, error) {
	e, err := ix.Entry(name)
	if err != nil {
		return nil, err
	}
	fn, err := ix.registry.Get(e.ParserName())
	if err != nil {
		return nil, fmt.Errorf("vocabulary %s: %w", name, err)
	}
	params := ix.baseParams.Merge(e.Params).Merge(requestParams)
	ix.logger.Debug("Loading vocabulary", "name", name, "parser", e.ParserName(), "url", e.URL)
	result := fn(ctx, name, e.URL, params)
	ix.logger.Info("Loaded vocabulary",
		"name", name,
		"status", result.Status().String(),
		"errors", len(result.Errors()))
	return result, nil
}

// LoadAndDump loads the vocabulary and serializes its cluster to
// <dumpDir>/<name>.json. With permissive false the dump is written only
// on full success; with permissive true a partial success is dumped too.
func (ix *Index) LoadAndDump(ctx context.Context, name string, permissive bool) error {
	result, err := ix.Load(ctx, name, nil)
	if err != nil {
		return err
	}
	switch result.Status() {
	case parser.StatusCriticalFailure:
		return fmt.Errorf("vocabulary %s: %w", name, result.Critical())
	case parser.StatusCompletedWithErrors:
		if !permissive {
			return fmt.Errorf("vocabulary %s: %d items in error, not dumping", name, len(result.Errors()))
		}
	}
	cluster, err := result.Cluster()
	if err != nil {
		return err
	}
	return ix.dump(name, cluster)
}

func (ix *Index) dump(name string, cluster *table.Cluster) error {
	if err := os.MkdirAll(ix.dumpDir, 0o755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}
	path := filepath.Join(ix.dumpDir, name+".json")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump file: %w", err)
	}
	defer f.Close()
	if err := cluster.Dump(f); err != nil {
		return fmt.Errorf("dump %s: %w", name, err)
	}
	ix.logger.Info("Dumped vocabulary", "name", name, "path", path)
	return nil
}

// LoadAndDumpAll fans LoadAndDump out over every available vocabulary
// and returns the names that were dumped.
func (ix *Index) LoadAndDumpAll(ctx context.Context, permissive bool) []string {
	var dumped []string
	for _, name := range ix.Names(true) {
		if err := ix.LoadAndDump(ctx, name, permissive); err != nil {
			ix.logger.Warn("Dump failed", "name", name, "error", err)
			continue
		}
		dumped = append(dumped, name)
	}
	return dumped
}

// LoadAll parses the named vocabularies (every available one when names
// is empty) and hands each usable cluster to store. Clusters from partial
// successes are stored too; only critical failures and store errors
// exclude a vocabulary. It returns the successfully stored names.
func (ix *Index) LoadAll(ctx context.Context, names []string, store func(context.Context, *table.Cluster) error) []string {
	if len(names) == 0 {
		names = ix.Names(true)
	}
	var loaded []string
	for _, name := range names {
		result, err := ix.Load(ctx, name, nil)
		if err != nil {
			ix.logger.Warn("Load failed", "name", name, "error", err)
			continue
		}
		cluster, err := result.Cluster()
		if err != nil {
			ix.logger.Warn("Load failed", "name", name, "error", err)
			continue
		}
		if err := store(ctx, cluster); err != nil {
			ix.logger.Warn("Store failed", "name", name, "error", err)
			continue
		}
		loaded = append(loaded, name)
	}
	return loaded
}

var (
	defaultIndex     *Index
	defaultIndexOnce sync.Once
	defaultIndexErr  error
)

// Default returns the process-wide index built from the embedded
// catalog, initializing it lazily.
func Default() (*Index, error) {
	defaultIndexOnce.Do(func() {
		defaultIndex, defaultIndexErr = New()
	})
	return defaultIndex, defaultIndexErr
}
