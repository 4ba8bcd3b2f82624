package parser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/knakk/rdf"
)

// Core RDF and SKOS IRIs used by the generic parser.
const (
	rdfTypeIRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	skosConcept       = "http://www.w3.org/2004/02/skos/core#Concept"
	skosPrefLabel     = "http://www.w3.org/2004/02/skos/core#prefLabel"
	skosAltLabel      = "http://www.w3.org/2004/02/skos/core#altLabel"
	skosBroader       = "http://www.w3.org/2004/02/skos/core#broader"
	skosNarrower      = "http://www.w3.org/2004/02/skos/core#narrower"
	skosHasTopConcept = "http://www.w3.org/2004/02/skos/core#hasTopConcept"
	skosTopConceptOf  = "http://www.w3.org/2004/02/skos/core#topConceptOf"
	skosInScheme      = "http://www.w3.org/2004/02/skos/core#inScheme"
	skosNotation      = "http://www.w3.org/2004/02/skos/core#notation"

	dctTitle      = "http://purl.org/dc/terms/title"
	dctIdentifier = "http://purl.org/dc/terms/identifier"
	rdfsLabel     = "http://www.w3.org/2000/01/rdf-schema#label"
	foafName      = "http://xmlns.com/foaf/0.1/name"
)

// labelPredicates is scanned in order: the first literal met for a
// language becomes the preferred label, later ones become alternative
// labels.
var labelPredicates = []string{
	skosPrefLabel,
	dctTitle,
	rdfsLabel,
	foafName,
	skosAltLabel,
	dctIdentifier,
	skosNotation,
}

// hierarchyPredicates mark their subjects and objects as vocabulary items
// even when untyped.
var hierarchyPredicates = map[string]struct{}{
	skosBroader:       {},
	skosNarrower:      {},
	skosHasTopConcept: {},
	skosTopConceptOf:  {},
	skosInScheme:      {},
}

// graph is a subject-indexed view of a decoded triple set.
type graph map[string]map[string][]rdf.Term

func (g graph) add(t rdf.Triple) {
	if t.Subj.Type() != rdf.TermIRI {
		return
	}
	s := t.Subj.String()
	preds, ok := g[s]
	if !ok {
		preds = make(map[string][]rdf.Term)
		g[s] = preds
	}
	p := t.Pred.String()
	preds[p] = append(preds[p], t.Obj)
}

// objects returns the object terms for (subject, predicate).
func (g graph) objects(subject, predicate string) []rdf.Term {
	return g[subject][predicate]
}

// iris returns the IRI objects of (subject, predicate) as strings.
func (g graph) iris(subject, predicate string) []string {
	var out []string
	for _, t := range g.objects(subject, predicate) {
		if t.Type() == rdf.TermIRI {
			out = append(out, t.String())
		}
	}
	return out
}

// rdfFormat resolves the decoder format from the catalog parameters.
func rdfFormat(params Params) (rdf.Format, string) {
	switch params.String(ParamFormat) {
	case "turtle", "ttl":
		return rdf.Turtle, "text/turtle"
	case "ntriples", "nt":
		return rdf.NTriples, "application/n-triples"
	default:
		return rdf.RDFXML, "application/rdf+xml"
	}
}

// ParseSKOS is the default parser. It treats as vocabulary items every
// URI typed as skos:Concept (or one of the rdf_types parameter) together
// with the subjects and objects of broader/narrower/topConcept/inScheme
// predicates, then scans an ordered predicate list for labels.
func ParseSKOS(ctx context.Context, vocabulary, url string, params Params) *Result {
	result, err := NewResult(vocabulary)
	if err != nil {
		return exitEarly(vocabulary, err)
	}

	format, accept := rdfFormat(params)
	data, err := fetchBytes(ctx, vocabulary, url, params, accept)
	if err != nil {
		result.Exit(err)
		return result
	}

	triples, err := rdf.NewTripleDecoder(bytes.NewReader(data), format).DecodeAll()
	if err != nil {
		result.Exit(fmt.Errorf("decode RDF from %s: %w", url, err))
		return result
	}

	// items are collected in triple encounter order so rows land in the
	// same order on every run
	g := make(graph)
	seen := make(map[string]struct{})
	var items []string
	addItem := func(uri string) {
		if _, dup := seen[uri]; dup {
			return
		}
		seen[uri] = struct{}{}
		items = append(items, uri)
	}
	for _, t := range triples {
		g.add(t)
		p := t.Pred.String()
		if _, hier := hierarchyPredicates[p]; hier {
			if t.Subj.Type() == rdf.TermIRI {
				addItem(t.Subj.String())
			}
			if t.Obj.Type() == rdf.TermIRI {
				addItem(t.Obj.String())
			}
		}
	}

	types := params.Strings(ParamRDFTypes)
	if len(types) == 0 {
		types = []string{skosConcept}
	}
	typeSet := toSet(types)
	for _, t := range triples {
		if t.Pred.String() != rdfTypeIRI {
			continue
		}
		if t.Subj.Type() != rdf.TermIRI || t.Obj.Type() != rdf.TermIRI {
			continue
		}
		if _, ok := typeSet[t.Obj.String()]; ok {
			addItem(t.Subj.String())
		}
	}

	schemes := toSet(params.Strings(ParamSchemes))
	languages := toSet(params.Strings(ParamLanguages))

	keptSet := make(map[string]struct{}, len(items))
	var kept []string
	for _, uri := range items {
		if len(schemes) > 0 && !inSchemes(g, uri, schemes) {
			continue
		}
		if !collectLabels(result, g, uri, languages) {
			result.LogError(fmt.Errorf("skipping %s: no label found", uri))
			continue
		}
		keptSet[uri] = struct{}{}
		kept = append(kept, uri)
	}

	addHierarchy(result, g, kept, keptSet)
	result.Validate()
	return result
}

// exitEarly builds a critically failed result when even the cluster could
// not be created.
func exitEarly(vocabulary string, err error) *Result {
	r := &Result{vocabulary: vocabulary}
	r.Exit(err)
	return r
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// inSchemes reports whether the item belongs to one of the requested
// concept schemes, directly or as a top concept.
func inSchemes(g graph, uri string, schemes map[string]struct{}) bool {
	for _, pred := range []string{skosInScheme, skosTopConceptOf} {
		for _, scheme := range g.iris(uri, pred) {
			if _, ok := schemes[scheme]; ok {
				return true
			}
		}
	}
	for scheme := range schemes {
		for _, top := range g.iris(scheme, skosHasTopConcept) {
			if top == uri {
				return true
			}
		}
	}
	return false
}

// collectLabels walks the ordered predicate list and routes every literal
// through AddLabel. It reports whether at least one label was found.
func collectLabels(result *Result, g graph, uri string, languages map[string]struct{}) bool {
	found := false
	for _, pred := range labelPredicates {
		for _, obj := range g.objects(uri, pred) {
			lit, ok := obj.(rdf.Literal)
			if !ok {
				continue
			}
			value := lit.String()
			if value == "" {
				continue
			}
			lang := lit.Lang()
			if len(languages) > 0 && lang != "" {
				if _, ok := languages[lang]; !ok {
					continue
				}
			}
			if lang == "" {
				result.AddLabel(uri, nil, value)
			} else {
				result.AddLabel(uri, lang, value)
			}
			found = true
		}
	}
	return found
}

// addHierarchy records parent/child pairs between kept items, walking the
// kept list in order so pairs are appended deterministically.
func addHierarchy(result *Result, g graph, items []string, itemSet map[string]struct{}) {
	type pair struct{ parent, child string }
	seen := make(map[pair]struct{})
	var pairs []pair
	for _, child := range items {
		for _, parent := range g.iris(child, skosBroader) {
			if _, ok := itemSet[parent]; ok {
				p := pair{parent, child}
				if _, dup := seen[p]; !dup {
					seen[p] = struct{}{}
					pairs = append(pairs, p)
				}
			}
		}
	}
	for _, parent := range items {
		for _, child := range g.iris(parent, skosNarrower) {
			if _, ok := itemSet[child]; ok {
				p := pair{parent, child}
				if _, dup := seen[p]; !dup {
					seen[p] = struct{}{}
					pairs = append(pairs, p)
				}
			}
		}
	}
	if len(pairs) == 0 {
		return
	}
	cluster, err := result.Cluster()
	if err != nil {
		return
	}
	hierarchy, err := cluster.Hierarchy()
	if err != nil {
		result.LogError(err)
		return
	}
	for _, p := range pairs {
		hierarchy.AddValues(p.parent, p.child)
	}
}
