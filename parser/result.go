// Package parser orchestrates vocabulary parsing: fetching raw data from
// remote registers, reducing it to a per-vocabulary cluster of tables and
// recording every error met on the way. Concrete parsers for SKOS graphs,
// SPDX licenses, EPSG registers and the Ecospheres JSON registers live
// here and register themselves with the package registry.
package parser

import (
	"errors"
	"fmt"

	"github.com/ecolabdata/ecospheres-vocabularies/metrics"
	"github.com/ecolabdata/ecospheres-vocabularies/table"
)

// Status is the derived outcome of a parser invocation.
type Status int

const (
	// StatusSuccess means the vocabulary was fully parsed.
	StatusSuccess Status = iota
	// StatusCompletedWithErrors means some items were skipped.
	StatusCompletedWithErrors
	// StatusCriticalFailure means the vocabulary could not be built and
	// the cluster is inaccessible.
	StatusCriticalFailure
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCompletedWithErrors:
		return "completed_with_errors"
	case StatusCriticalFailure:
		return "critical_failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ErrCriticalFailure guards access to the cluster of a critically failed
// parse.
var ErrCriticalFailure = errors.New("parsing failed critically")

// Result carries the cluster built by a parser together with its error
// log. The status is derived, never stored: critical if Exit was called,
// completed-with-errors if anything was logged, success otherwise.
type Result struct {
	vocabulary string
	cluster    *table.Cluster
	errs       []error
	critical   error
}

// NewResult creates an empty result for the vocabulary, with the
// mandatory label and altlabel tables already in place.
func NewResult(vocabulary string) (*Result, error) {
	cluster, err := table.NewCluster(vocabulary)
	if err != nil {
		return nil, err
	}
	return &Result{vocabulary: vocabulary, cluster: cluster}, nil
}

// Vocabulary returns the vocabulary name the result belongs to.
func (r *Result) Vocabulary() string { return r.vocabulary }

// Exit records a critical failure. Data becomes inaccessible to callers.
func (r *Result) Exit(err error) {
	if r.critical == nil {
		r.critical = err
		metrics.ParseCritical.WithLabelValues(r.vocabulary).Inc()
	}
}

// LogError records a non-critical error; parsing continues.
func (r *Result) LogError(err error) {
	r.errs = append(r.errs, err)
	metrics.ParseErrors.WithLabelValues(r.vocabulary).Inc()
}

// Errors returns the non-critical errors in log order.
func (r *Result) Errors() []error {
	return append([]error(nil), r.errs...)
}

// Critical returns the critical error, or nil.
func (r *Result) Critical() error { return r.critical }

// Status derives the final status code.
func (r *Result) Status() Status {
	switch {
	case r.critical != nil:
		return StatusCriticalFailure
	case len(r.errs) > 0:
		return StatusCompletedWithErrors
	default:
		return StatusSuccess
	}
}

// OK reports whether the parse did not fail critically.
func (r *Result) OK() bool { return r.critical == nil }

// Cluster returns the parsed cluster, or ErrCriticalFailure after Exit.
func (r *Result) Cluster() (*table.Cluster, error) {
	if r.critical != nil {
		return nil, fmt.Errorf("%w: %v", ErrCriticalFailure, r.critical)
	}
	return r.cluster, nil
}

// AddLabel routes a label to the right table. The label table receives at
// most one row per (uri, language); any further label for the pair lands
// in altlabel. An untagged label (nil language) goes to altlabel as soon
// as any row exists for the uri.
func (r *Result) AddLabel(uri string, language any, label string) {
	labels := r.cluster.Label()
	var partial map[string]any
	if language == nil {
		partial = map[string]any{table.FieldURI: uri}
	} else {
		partial = map[string]any{table.FieldURI: uri, table.FieldLanguage: language}
	}
	if labels.Exists(partial) {
		r.cluster.AltLabel().AddValues(uri, language, label)
		return
	}
	labels.AddValues(uri, language, label)
}

// Validate runs cluster validation, moving every anomaly into the error
// log and removing the offending rows. Invalid data is non-fatal.
func (r *Result) Validate() {
	if r.critical != nil {
		return
	}
	resp := r.cluster.Validate(true)
	for _, a := range resp.Anomalies() {
		r.LogError(fmt.Errorf("invalid row discarded: %s", a))
	}
}
