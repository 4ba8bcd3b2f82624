package search

import (
	"context"
	"log/slog"

	"github.com/ecolabdata/ecospheres-vocabularies/reader"
)

// Lookup is the slice of the vocabulary reader the façade consumes.
type Lookup interface {
	IsKnownURI(ctx context.Context, vocabulary, uri string) (bool, error)
	GetLabel(ctx context.Context, vocabulary, uri, language string) (string, error)
	GetURIFromLabel(ctx context.Context, vocabulary, label string, opts ...reader.LabelOption) (string, error)
	GetURIFromSynonym(ctx context.Context, vocabulary, synonym string) (string, error)
	GetURIsFromRegexp(ctx context.Context, vocabulary string, terms []string) ([]string, error)
	GetEcospheresTerritory(ctx context.Context, sourceVocabulary, uri string) (string, error)
}

// Facade resolves field values against the vocabularies attached to each
// schema field. Misses are logged, never raised.
type Facade struct {
	index  *FieldIndex
	lookup Lookup
	logger *slog.Logger
}

// FacadeOption configures a Facade.
type FacadeOption func(*Facade)

// WithFacadeLogger sets the logger.
func WithFacadeLogger(logger *slog.Logger) FacadeOption {
	return func(f *Facade) { f.logger = logger }
}

// WithFieldIndex overrides the process-wide field index.
func WithFieldIndex(ix *FieldIndex) FacadeOption {
	return func(f *Facade) { f.index = ix }
}

// NewFacade builds a façade over the lookup, defaulting to the
// process-wide field index.
func NewFacade(lookup Lookup, opts ...FacadeOption) (*Facade, error) {
	f := &Facade{
		lookup: lookup,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.index == nil {
		ix, err := DefaultIndex()
		if err != nil {
			return nil, err
		}
		f.index = ix
	}
	return f, nil
}

// List returns the ordered vocabularies for the field path.
func (f *Facade) List(path ...string) []string {
	return f.index.List(path...)
}

// SearchLabel returns the first label found for uri across the path's
// vocabularies.
func (f *Facade) SearchLabel(ctx context.Context, path []string, uri, language string) (string, error) {
	for _, vocabulary := range f.index.List(path...) {
		label, err := f.lookup.GetLabel(ctx, vocabulary, uri, language)
		if err != nil {
			return "", err
		}
		if label != "" {
			return label, nil
		}
	}
	return "", nil
}

// SearchQuery tunes SearchURI. All checks run by default and misses are
// logged.
type SearchQuery struct {
	CheckSynonyms  bool
	CheckLabels    bool
	CheckRegexp    bool
	WarnIfNotFound bool
}

// SearchOption configures one SearchURI call.
type SearchOption func(*SearchQuery)

// WithoutSynonyms skips the synonym check.
func WithoutSynonyms() SearchOption {
	return func(q *SearchQuery) { q.CheckSynonyms = false }
}

// WithoutLabels skips the label check.
func WithoutLabels() SearchOption {
	return func(q *SearchQuery) { q.CheckLabels = false }
}

// WithoutRegexp skips the regular-expression check.
func WithoutRegexp() SearchOption {
	return func(q *SearchQuery) { q.CheckRegexp = false }
}

// Quiet suppresses the not-found warning.
func Quiet() SearchOption {
	return func(q *SearchQuery) { q.WarnIfNotFound = false }
}

// SearchURI canonicalizes a raw value to a URI. Checks run in a fixed
// order over the path's vocabularies: direct URI membership, synonym
// lookup, label lookup, then regular-expression match. First hit wins;
// a total miss returns "".
func (f *Facade) SearchURI(ctx context.Context, path []string, value string, opts ...SearchOption) (string, error) {
	q := SearchQuery{CheckSynonyms: true, CheckLabels: true, CheckRegexp: true, WarnIfNotFound: true}
	for _, opt := range opts {
		opt(&q)
	}
	vocabularies := f.index.List(path...)

	for _, vocabulary := range vocabularies {
		known, err := f.lookup.IsKnownURI(ctx, vocabulary, value)
		if err != nil {
			return "", err
		}
		if known {
			return value, nil
		}
	}
	if q.CheckSynonyms {
		for _, vocabulary := range vocabularies {
			uri, err := f.lookup.GetURIFromSynonym(ctx, vocabulary, value)
			if err != nil {
				return "", err
			}
			if uri != "" {
				return uri, nil
			}
		}
	}
	if q.CheckLabels {
		for _, vocabulary := range vocabularies {
			uri, err := f.lookup.GetURIFromLabel(ctx, vocabulary, value)
			if err != nil {
				return "", err
			}
			if uri != "" {
				return uri, nil
			}
		}
	}
	if q.CheckRegexp {
		for _, vocabulary := range vocabularies {
			uris, err := f.lookup.GetURIsFromRegexp(ctx, vocabulary, []string{value})
			if err != nil {
				return "", err
			}
			if len(uris) > 0 {
				return uris[0], nil
			}
		}
	}
	if q.WarnIfNotFound {
		f.logger.Warn("No vocabulary entry for value",
			"path", pathKey(path), "value", value, "vocabularies", vocabularies)
	}
	return "", nil
}

// SearchTerritory reconciles a territory URI through each vocabulary
// attached to the territory field, first match wins.
func (f *Facade) SearchTerritory(ctx context.Context, uri string) (string, error) {
	for _, vocabulary := range f.index.List(TerritoryField) {
		territory, err := f.lookup.GetEcospheresTerritory(ctx, vocabulary, uri)
		if err != nil {
			return "", err
		}
		if territory != "" {
			return territory, nil
		}
	}
	return "", nil
}
