package parser

import (
	"context"
	"fmt"
)

// themesDocument is the bespoke JSON register of Ecospheres themes.
type themesDocument struct {
	Themes []themeEntry `json:"themes"`
}

type themeEntry struct {
	URI       string   `json:"uri"`
	Label     string   `json:"label"`
	AltLabels []string `json:"altlabels"`
	Regexps   []string `json:"regexps"`
	Parent    string   `json:"parent"`
}

// ParseEcospheresThemes parses the Ecospheres theme register: French
// labels, free-text recognition regexps and a two-level hierarchy.
func ParseEcospheresThemes(ctx context.Context, vocabulary, url string, params Params) *Result {
	result, err := NewResult(vocabulary)
	if err != nil {
		return exitEarly(vocabulary, err)
	}

	var doc themesDocument
	if err := fetchJSON(ctx, vocabulary, url, params, &doc); err != nil {
		result.Exit(err)
		return result
	}
	if doc.Themes == nil {
		result.Exit(fmt.Errorf("no themes key in response from %s", url))
		return result
	}

	cluster, _ := result.Cluster()
	regexps, err := cluster.Regexp()
	if err != nil {
		result.Exit(err)
		return result
	}
	hierarchy, err := cluster.Hierarchy()
	if err != nil {
		result.Exit(err)
		return result
	}

	for i, theme := range doc.Themes {
		if theme.URI == "" || theme.Label == "" {
			result.LogError(fmt.Errorf("theme entry %d: missing uri or label", i))
			continue
		}
		result.AddLabel(theme.URI, "fr", theme.Label)
		for _, alt := range theme.AltLabels {
			if alt != "" {
				result.AddLabel(theme.URI, "fr", alt)
			}
		}
		for _, re := range theme.Regexps {
			if re != "" {
				regexps.AddValues(theme.URI, re)
			}
		}
		if theme.Parent != "" {
			hierarchy.AddValues(theme.Parent, theme.URI)
		}
	}

	result.Validate()
	return result
}

// territoriesDocument is the bespoke JSON register of Ecospheres
// territories. Zone identifiers double as canonical territory codes.
type territoriesDocument struct {
	Zones []territoryZone `json:"zones"`
}

type territoryZone struct {
	URI      string   `json:"uri"`
	Name     string   `json:"name"`
	Codes    []string `json:"codes"`
	Synonyms []string `json:"synonyms"`
	Parent   string   `json:"parent"`
	Spatial  *bbox    `json:"spatial"`
}

type bbox struct {
	West  *float64 `json:"west"`
	South *float64 `json:"south"`
	East  *float64 `json:"east"`
	North *float64 `json:"north"`
}

// ParseEcospheresTerritories parses the Ecospheres territory register:
// labels and codes, synonym URIs from other coding systems used by the
// territory reconciliation, bounding boxes and the containment hierarchy.
func ParseEcospheresTerritories(ctx context.Context, vocabulary, url string, params Params) *Result {
	result, err := NewResult(vocabulary)
	if err != nil {
		return exitEarly(vocabulary, err)
	}

	var doc territoriesDocument
	if err := fetchJSON(ctx, vocabulary, url, params, &doc); err != nil {
		result.Exit(err)
		return result
	}
	if doc.Zones == nil {
		result.Exit(fmt.Errorf("no zones key in response from %s", url))
		return result
	}

	cluster, _ := result.Cluster()
	synonyms, err := cluster.Synonym()
	if err != nil {
		result.Exit(err)
		return result
	}
	spatial, err := cluster.Spatial()
	if err != nil {
		result.Exit(err)
		return result
	}
	hierarchy, err := cluster.Hierarchy()
	if err != nil {
		result.Exit(err)
		return result
	}

	for i, zone := range doc.Zones {
		if zone.URI == "" || zone.Name == "" {
			result.LogError(fmt.Errorf("zone entry %d: missing uri or name", i))
			continue
		}
		result.AddLabel(zone.URI, "fr", zone.Name)
		for _, code := range zone.Codes {
			if code != "" {
				result.AddLabel(zone.URI, nil, code)
			}
		}
		for _, syn := range zone.Synonyms {
			if syn != "" {
				synonyms.AddValues(zone.URI, syn)
			}
		}
		if zone.Parent != "" {
			hierarchy.AddValues(zone.Parent, zone.URI)
		}
		if zone.Spatial != nil {
			b := zone.Spatial
			if b.West == nil || b.South == nil || b.East == nil || b.North == nil {
				result.LogError(fmt.Errorf("zone %s: incomplete bounding box", zone.URI))
			} else {
				spatial.AddValues(zone.URI, *b.West, *b.South, *b.East, *b.North)
			}
		}
	}

	result.Validate()
	return result
}
