package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecolabdata/ecospheres-vocabularies/table"
)

func TestStatusDerivation(t *testing.T) {
	r, err := NewResult("v")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, r.Status())
	assert.True(t, r.OK())

	r.LogError(errors.New("item skipped"))
	assert.Equal(t, StatusCompletedWithErrors, r.Status())
	assert.True(t, r.OK())
	assert.Len(t, r.Errors(), 1)

	r.Exit(errors.New("network down"))
	assert.Equal(t, StatusCriticalFailure, r.Status())
	assert.False(t, r.OK())

	_, err = r.Cluster()
	assert.ErrorIs(t, err, ErrCriticalFailure)
}

func TestAddLabelRouting(t *testing.T) {
	r, err := NewResult("v")
	require.NoError(t, err)
	cluster, err := r.Cluster()
	require.NoError(t, err)

	r.AddLabel("u1", "fr", "un")
	r.AddLabel("u1", "fr", "encore un") // same (uri, lang) goes to altlabel
	r.AddLabel("u1", "en", "one")       // new language stays preferred

	assert.Equal(t, 2, cluster.Label().Len())
	assert.Equal(t, 1, cluster.AltLabel().Len())

	// untagged label with existing rows for the uri lands in altlabel
	r.AddLabel("u1", nil, "ein")
	assert.Equal(t, 2, cluster.Label().Len())
	assert.Equal(t, 2, cluster.AltLabel().Len())

	// untagged label for a fresh uri is preferred
	r.AddLabel("u2", nil, "zwei")
	assert.True(t, cluster.Label().Exists(map[string]any{
		table.FieldURI: "u2", table.FieldLanguage: nil,
	}))
}

func TestValidateMovesAnomaliesToLog(t *testing.T) {
	r, err := NewResult("v")
	require.NoError(t, err)
	cluster, err := r.Cluster()
	require.NoError(t, err)

	cluster.Label().AddValues("u1", "fr", "un")
	cluster.AltLabel().AddValues("ghost", "fr", "fantôme")

	r.Validate()
	assert.Equal(t, StatusCompletedWithErrors, r.Status())
	assert.Equal(t, 0, cluster.AltLabel().Len())
}
