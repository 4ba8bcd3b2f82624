// Package reader is the read-only query layer over the persisted
// vocabulary tables. Lookup misses and missing tables yield neutral
// values (empty string, nil slice, false); only unexpected storage
// failures surface as errors.
package reader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/ecolabdata/ecospheres-vocabularies/table"
)

// schemaName mirrors the loader's storage namespace.
const schemaName = "vocabulary"

// DefaultLanguage is the language labels fall back to when the requested
// one is absent.
const DefaultLanguage = "fr"

// Reader queries the vocabulary tables.
type Reader struct {
	db              *sql.DB
	logger          *slog.Logger
	defaultLanguage string
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) { r.logger = logger }
}

// WithDefaultLanguage overrides the fallback label language.
func WithDefaultLanguage(language string) Option {
	return func(r *Reader) { r.defaultLanguage = language }
}

// New creates a reader over db.
func New(db *sql.DB, opts ...Option) *Reader {
	r := &Reader{
		db:              db,
		logger:          slog.Default(),
		defaultLanguage: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// qualified returns the quoted, schema-qualified name of a vocabulary
// table.
func qualified(vocabulary, suffix string) string {
	return pq.QuoteIdentifier(schemaName) + "." + pq.QuoteIdentifier(vocabulary+"_"+suffix)
}

// isMissingTable reports whether err is Postgres undefined_table.
func isMissingTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P01"
}

// queryValue runs a single-value query, mapping no-rows and missing
// tables to the zero value.
func queryValue[T any](ctx context.Context, r *Reader, query string, args ...any) (T, error) {
	var value T
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, sql.ErrNoRows), isMissingTable(err):
		var zero T
		return zero, nil
	default:
		var zero T
		return zero, fmt.Errorf("query %s: %w", query, err)
	}
}

// queryStrings runs a multi-row single-column query with the same
// neutral-value policy.
func (r *Reader) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isMissingTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s: %w", query, err)
	}
	defer rows.Close()
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", query, err)
	}
	return values, nil
}

// IsKnownURI reports whether the uri has at least one preferred label.
func (r *Reader) IsKnownURI(ctx context.Context, vocabulary, uri string) (bool, error) {
	query := "SELECT true FROM " + qualified(vocabulary, table.SuffixLabel) + " WHERE uri = $1 LIMIT 1"
	return queryValue[bool](ctx, r, query, uri)
}

// GetLabel returns the label of uri in the requested language, falling
// back to the default language, then to any label. Empty language means
// the default one.
func (r *Reader) GetLabel(ctx context.Context, vocabulary, uri, language string) (string, error) {
	if language == "" {
		language = r.defaultLanguage
	}
	for _, lang := range []string{language, r.defaultLanguage, ""} {
		label, err := r.labelFor(ctx, vocabulary, uri, lang)
		if err != nil || label != "" {
			return label, err
		}
	}
	return "", nil
}

// labelFor fetches one label; empty language means any language.
func (r *Reader) labelFor(ctx context.Context, vocabulary, uri, language string) (string, error) {
	t := qualified(vocabulary, table.SuffixLabel)
	if language == "" {
		return queryValue[string](ctx, r, "SELECT label FROM "+t+" WHERE uri = $1 LIMIT 1", uri)
	}
	return queryValue[string](ctx, r,
		"SELECT label FROM "+t+" WHERE uri = $1 AND language = $2 LIMIT 1", uri, language)
}

// LabelQuery tunes GetURIFromLabel. Matching is case-insensitive and
// spans alternative labels unless configured otherwise.
type LabelQuery struct {
	Language         string
	CaseSensitive    bool
	WithoutAltLabels bool
}

// LabelOption configures a label lookup.
type LabelOption func(*LabelQuery)

// InLanguage restricts the lookup to one language.
func InLanguage(language string) LabelOption {
	return func(q *LabelQuery) { q.Language = language }
}

// CaseSensitive switches to exact-case matching.
func CaseSensitive() LabelOption {
	return func(q *LabelQuery) { q.CaseSensitive = true }
}

// WithoutAltLabels restricts the lookup to preferred labels.
func WithoutAltLabels() LabelOption {
	return func(q *LabelQuery) { q.WithoutAltLabels = true }
}

// GetURIFromLabel returns the first URI whose label matches, scanning
// preferred labels before alternative ones.
func (r *Reader) GetURIFromLabel(ctx context.Context, vocabulary, label string, opts ...LabelOption) (string, error) {
	var q LabelQuery
	for _, opt := range opts {
		opt(&q)
	}
	suffixes := []string{table.SuffixLabel}
	if !q.WithoutAltLabels {
		suffixes = append(suffixes, table.SuffixAltLabel)
	}
	for _, suffix := range suffixes {
		uri, err := r.uriFromLabelTable(ctx, vocabulary, suffix, label, q)
		if err != nil || uri != "" {
			return uri, err
		}
	}
	return "", nil
}

func (r *Reader) uriFromLabelTable(ctx context.Context, vocabulary, suffix, label string, q LabelQuery) (string, error) {
	var b strings.Builder
	b.WriteString("SELECT uri FROM ")
	b.WriteString(qualified(vocabulary, suffix))
	if q.CaseSensitive {
		b.WriteString(" WHERE label = $1")
	} else {
		b.WriteString(" WHERE lower(label) = lower($1)")
	}
	args := []any{label}
	if q.Language != "" {
		b.WriteString(" AND language = $2")
		args = append(args, q.Language)
	}
	b.WriteString(" LIMIT 1")
	return queryValue[string](ctx, r, b.String(), args...)
}

// GetURIsFromRegexp aggregates the URIs whose stored regular expression
// matches any of the terms, deduplicated in first-seen order.
func (r *Reader) GetURIsFromRegexp(ctx context.Context, vocabulary string, terms []string) ([]string, error) {
	query := "SELECT uri FROM " + qualified(vocabulary, table.SuffixRegexp) + " WHERE $1 ~ regexp"
	seen := make(map[string]struct{})
	var uris []string
	for _, term := range terms {
		matches, err := r.queryStrings(ctx, query, term)
		if err != nil {
			return nil, err
		}
		for _, uri := range matches {
			if _, dup := seen[uri]; dup {
				continue
			}
			seen[uri] = struct{}{}
			uris = append(uris, uri)
		}
	}
	return uris, nil
}

// GetParents returns the distinct parents of the given URIs.
func (r *Reader) GetParents(ctx context.Context, vocabulary string, uris ...string) ([]string, error) {
	if len(uris) == 0 {
		return nil, nil
	}
	query := "SELECT DISTINCT parent FROM " + qualified(vocabulary, table.SuffixHierarchy) +
		" WHERE child = ANY($1)"
	return r.queryStrings(ctx, query, pq.Array(uris))
}

// GetChildren returns the distinct children of the given URIs.
func (r *Reader) GetChildren(ctx context.Context, vocabulary string, uris ...string) ([]string, error) {
	if len(uris) == 0 {
		return nil, nil
	}
	query := "SELECT DISTINCT child FROM " + qualified(vocabulary, table.SuffixHierarchy) +
		" WHERE parent = ANY($1)"
	return r.queryStrings(ctx, query, pq.Array(uris))
}

// GetChildrenLabelsFromLabel resolves the label to a URI then returns the
// labels of its children.
func (r *Reader) GetChildrenLabelsFromLabel(ctx context.Context, vocabulary, label, language string) ([]string, error) {
	var opts []LabelOption
	if language != "" {
		opts = append(opts, InLanguage(language))
	}
	uri, err := r.GetURIFromLabel(ctx, vocabulary, label, opts...)
	if err != nil || uri == "" {
		return nil, err
	}
	children, err := r.GetChildren(ctx, vocabulary, uri)
	if err != nil {
		return nil, err
	}
	var labels []string
	for _, child := range children {
		childLabel, err := r.GetLabel(ctx, vocabulary, child, language)
		if err != nil {
			return nil, err
		}
		if childLabel != "" {
			labels = append(labels, childLabel)
		}
	}
	return labels, nil
}

// GetSynonyms returns the distinct synonym URIs recorded for uri.
func (r *Reader) GetSynonyms(ctx context.Context, vocabulary, uri string) ([]string, error) {
	query := "SELECT DISTINCT synonym FROM " + qualified(vocabulary, table.SuffixSynonym) +
		" WHERE uri = $1"
	return r.queryStrings(ctx, query, uri)
}

// GetURIFromSynonym returns the URI the synonym belongs to.
func (r *Reader) GetURIFromSynonym(ctx context.Context, vocabulary, synonym string) (string, error) {
	query := "SELECT uri FROM " + qualified(vocabulary, table.SuffixSynonym) +
		" WHERE synonym = $1 LIMIT 1"
	return queryValue[string](ctx, r, query, synonym)
}

// idFragmentPattern restricts fragments to safe identifier characters.
var idFragmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// GetURIFromIDFragment returns the first URI whose last path component
// equals fragment. Fragments with other characters never match. The
// allowed charset carries no regexp metacharacters, so the fragment can
// be anchored into a POSIX pattern as-is; LIKE would read "_" as a
// single-character wildcard.
func (r *Reader) GetURIFromIDFragment(ctx context.Context, vocabulary, fragment string) (string, error) {
	if !idFragmentPattern.MatchString(fragment) {
		return "", nil
	}
	query := "SELECT uri FROM " + qualified(vocabulary, table.SuffixLabel) +
		" WHERE uri ~ ('/' || $1 || '$') LIMIT 1"
	return queryValue[string](ctx, r, query, fragment)
}

// BBox is a bounding box attached to a URI.
type BBox struct {
	URI   string
	West  float64
	South float64
	East  float64
	North float64
}

// GetBBox returns the bounding box of uri, or nil when the vocabulary
// has no spatial table or no row for uri.
func (r *Reader) GetBBox(ctx context.Context, vocabulary, uri string) (*BBox, error) {
	query := "SELECT uri, westlimit, southlimit, eastlimit, northlimit FROM " +
		qualified(vocabulary, table.SuffixSpatial) + " WHERE uri = $1 LIMIT 1"
	var box BBox
	err := r.db.QueryRowContext(ctx, query, uri).Scan(&box.URI, &box.West, &box.South, &box.East, &box.North)
	switch {
	case err == nil:
		return &box, nil
	case errors.Is(err, sql.ErrNoRows), isMissingTable(err):
		return nil, nil
	default:
		return nil, fmt.Errorf("query %s: %w", query, err)
	}
}

// ListVocabularies enumerates the loaded vocabularies by scanning the
// storage namespace for preferred-label tables.
func (r *Reader) ListVocabularies(ctx context.Context) ([]string, error) {
	query := "SELECT table_name FROM information_schema.tables" +
		" WHERE table_schema = $1 AND table_name LIKE '%_label' ORDER BY table_name"
	tables, err := r.queryStrings(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, t := range tables {
		// altlabel tables share the suffix
		if strings.HasSuffix(t, "_"+table.SuffixAltLabel) {
			continue
		}
		names = append(names, strings.TrimSuffix(t, "_"+table.SuffixLabel))
	}
	return names, nil
}
