package reader

import (
	"context"
)

// Vocabulary names involved in territory reconciliation.
const (
	// TerritoryVocabulary holds the canonical territory identifiers.
	TerritoryVocabulary = "ecospheres_territory"
	// GeographicCodeVocabulary is the register whose synonyms are
	// themselves worth resolving.
	GeographicCodeVocabulary = "insee_official_geographic_code"
)

// territoryLookup is the slice of the reader the reconciliation needs.
type territoryLookup interface {
	GetURIFromSynonym(ctx context.Context, vocabulary, synonym string) (string, error)
	GetSynonyms(ctx context.Context, vocabulary, uri string) ([]string, error)
	GetParents(ctx context.Context, vocabulary string, uris ...string) ([]string, error)
}

// GetEcospheresTerritory maps a URI from a source register to a canonical
// territory identifier. Attempts run in a fixed order, first match wins:
// direct synonym, synonyms of the source URI (geographic code register
// only), parents of the source URI and its synonyms, then synonyms of
// those parents. Returns "" when every step fails.
func (r *Reader) GetEcospheresTerritory(ctx context.Context, sourceVocabulary, uri string) (string, error) {
	return reconcileTerritory(ctx, r, sourceVocabulary, uri)
}

func reconcileTerritory(ctx context.Context, lookup territoryLookup, sourceVocabulary, uri string) (string, error) {
	direct := func(candidate string) (string, error) {
		return lookup.GetURIFromSynonym(ctx, TerritoryVocabulary, candidate)
	}

	// step 1: direct synonym
	if territory, err := direct(uri); err != nil || territory != "" {
		return territory, err
	}

	// step 2: synonyms of the source URI
	candidates := []string{uri}
	if sourceVocabulary == GeographicCodeVocabulary {
		synonyms, err := lookup.GetSynonyms(ctx, sourceVocabulary, uri)
		if err != nil {
			return "", err
		}
		for _, synonym := range synonyms {
			if territory, err := direct(synonym); err != nil || territory != "" {
				return territory, err
			}
		}
		candidates = append(candidates, synonyms...)
	}

	// step 3: parents of the source URI and its synonyms
	parents, err := lookup.GetParents(ctx, sourceVocabulary, candidates...)
	if err != nil {
		return "", err
	}
	for _, parent := range parents {
		if territory, err := direct(parent); err != nil || territory != "" {
			return territory, err
		}
	}

	// step 4: synonyms of the parents
	for _, parent := range parents {
		synonyms, err := lookup.GetSynonyms(ctx, sourceVocabulary, parent)
		if err != nil {
			return "", err
		}
		for _, synonym := range synonyms {
			if territory, err := direct(synonym); err != nil || territory != "" {
				return territory, err
			}
		}
	}
	return "", nil
}
