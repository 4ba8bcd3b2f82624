package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecolabdata/ecospheres-vocabularies/table"
)

func TestParseEcospheresThemes(t *testing.T) {
	srv := serveJSON(t, `{"themes":[
		{"uri":"http://example.org/themes/eau",
		 "label":"Eau",
		 "altlabels":["Ressource en eau"],
		 "regexps":["\\bEAUX?\\b"]},
		{"uri":"http://example.org/themes/eau-potable",
		 "label":"Eau potable",
		 "parent":"http://example.org/themes/eau"},
		{"label":"Sans URI"}
	]}`)

	result := ParseEcospheresThemes(context.Background(), "ecospheres_theme", srv.URL, nil)
	assert.Equal(t, StatusCompletedWithErrors, result.Status())
	require.Len(t, result.Errors(), 1)

	cluster, err := result.Cluster()
	require.NoError(t, err)

	assert.True(t, cluster.Label().Exists(map[string]any{
		table.FieldURI: "http://example.org/themes/eau", table.FieldLanguage: "fr", table.FieldLabel: "Eau",
	}))
	assert.True(t, cluster.AltLabel().Exists(map[string]any{
		table.FieldURI: "http://example.org/themes/eau", table.FieldLabel: "Ressource en eau",
	}))
	assert.True(t, cluster.Get(table.SuffixRegexp).Exists(map[string]any{
		table.FieldURI: "http://example.org/themes/eau", table.FieldRegexp: `\bEAUX?\b`,
	}))
	assert.True(t, cluster.Get(table.SuffixHierarchy).Exists(map[string]any{
		table.FieldParent: "http://example.org/themes/eau",
		table.FieldChild:  "http://example.org/themes/eau-potable",
	}))
}

func TestParseEcospheresTerritories(t *testing.T) {
	srv := serveJSON(t, `{"zones":[
		{"uri":"D29","name":"Finistère",
		 "codes":["29"],
		 "synonyms":["http://id.insee.fr/geo/departement/29"],
		 "spatial":{"west":-5.1,"south":47.7,"east":-3.4,"north":48.8}},
		{"uri":"R53","name":"Bretagne"},
		{"uri":"D29-bis","name":"Doublon","parent":"R53",
		 "spatial":{"west":-5.1,"south":47.7}}
	]}`)

	result := ParseEcospheresTerritories(context.Background(), "ecospheres_territory", srv.URL, nil)
	assert.Equal(t, StatusCompletedWithErrors, result.Status())
	require.Len(t, result.Errors(), 1) // incomplete bounding box

	cluster, err := result.Cluster()
	require.NoError(t, err)

	assert.True(t, cluster.Label().Exists(map[string]any{
		table.FieldURI: "D29", table.FieldLanguage: "fr", table.FieldLabel: "Finistère",
	}))
	assert.True(t, cluster.AltLabel().Exists(map[string]any{
		table.FieldURI: "D29", table.FieldLabel: "29",
	}))
	assert.True(t, cluster.Get(table.SuffixSynonym).Exists(map[string]any{
		table.FieldURI:     "D29",
		table.FieldSynonym: "http://id.insee.fr/geo/departement/29",
	}))
	assert.True(t, cluster.Get(table.SuffixSpatial).Exists(map[string]any{
		table.FieldURI: "D29", table.FieldWestLimit: -5.1,
	}))
	assert.True(t, cluster.Get(table.SuffixHierarchy).Exists(map[string]any{
		table.FieldParent: "R53", table.FieldChild: "D29-bis",
	}))
	// the incomplete bounding box produced no spatial row
	assert.Equal(t, 1, cluster.Get(table.SuffixSpatial).Len())
}

func TestRegistryDefaults(t *testing.T) {
	for _, name := range []string{
		"skos", "spdx_license", "iogp_epsg", "ogc_epsg",
		"ecospheres_themes", "ecospheres_territories",
	} {
		fn, err := DefaultRegistry.Get(name)
		require.NoError(t, err, name)
		require.NotNil(t, fn, name)
	}

	_, err := DefaultRegistry.Get("bogus")
	assert.Error(t, err)
}

func TestParamsMergeAndAccessors(t *testing.T) {
	base := Params{ParamLanguages: []any{"fr", "en"}, ParamLimit: 10}
	merged := base.Merge(Params{ParamLimit: 5, ParamTimeout: "2s"})

	assert.Equal(t, []string{"fr", "en"}, merged.Strings(ParamLanguages))
	assert.Equal(t, 5, merged.Int(ParamLimit))
	assert.Equal(t, "2s", merged.String(ParamTimeout))
	assert.Equal(t, 10, base.Int(ParamLimit))
}
