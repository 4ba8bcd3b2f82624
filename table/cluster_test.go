package table

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClusterMandatoryTables(t *testing.T) {
	c, err := NewCluster("spdx_license")
	require.NoError(t, err)

	assert.Equal(t, "spdx_license", c.Vocabulary())
	require.NotNil(t, c.Label())
	require.NotNil(t, c.AltLabel())
	assert.Equal(t, "spdx_license_label", c.Label().Name())
	assert.Equal(t, "spdx_license_altlabel", c.AltLabel().Name())
	assert.Equal(t, []string{"spdx_license_label", "spdx_license_altlabel"}, c.Names())

	// mandatory tables carry persistent schema descriptors
	assert.NotNil(t, c.Label().Schema())
	assert.NotNil(t, c.AltLabel().Schema())
}

func TestClusterOptionalTablesCreatedOnce(t *testing.T) {
	c, err := NewCluster("v")
	require.NoError(t, err)

	h1, err := c.Hierarchy()
	require.NoError(t, err)
	h2, err := c.Hierarchy()
	require.NoError(t, err)
	assert.Same(t, h1, h2)

	_, err = c.Synonym()
	require.NoError(t, err)
	_, err = c.Regexp()
	require.NoError(t, err)
	_, err = c.Spatial()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"v_label", "v_altlabel", "v_hierarchy", "v_synonym", "v_regexp", "v_spatial",
	}, c.Names())
}

func TestLabelUniquePerURILanguage(t *testing.T) {
	c, err := NewCluster("v")
	require.NoError(t, err)
	label := c.Label()
	label.AddValues("u1", "fr", "un")
	label.AddValues("u1", "en", "one")
	label.AddValues("u1", "fr", "encore")
	label.AddValues("u1", nil, "untagged")
	label.AddValues("u1", nil, "untagged again")

	resp := c.Validate(true)
	assert.False(t, resp.Valid())
	// duplicate (u1, fr) and duplicate (u1, nil): nil matches only nil
	assert.Len(t, resp.Anomalies(), 2)
	assert.Equal(t, 3, label.Len())
}

func TestAltLabelReferenceNilLanguageWildcard(t *testing.T) {
	c, err := NewCluster("v")
	require.NoError(t, err)
	c.Label().AddValues("u1", "fr", "un")

	// tagged altlabel with no matching (uri, language) label row
	c.AltLabel().AddValues("u1", "en", "one")
	// untagged altlabel tolerated because some label row exists for u1
	c.AltLabel().AddValues("u1", nil, "ein")
	// altlabel for an unknown uri
	c.AltLabel().AddValues("u2", nil, "zwei")

	resp := c.Validate(true)
	assert.False(t, resp.Valid())
	assert.Len(t, resp.Anomalies(), 2)
	assert.Equal(t, 1, c.AltLabel().Len())
	assert.True(t, c.AltLabel().Exists(map[string]any{"uri": "u1", "language": nil}))
}

func TestHierarchyReferences(t *testing.T) {
	c, err := NewCluster("v")
	require.NoError(t, err)
	c.Label().AddValues("parent", "fr", "p")
	c.Label().AddValues("child", "fr", "c")

	h, err := c.Hierarchy()
	require.NoError(t, err)
	h.AddValues("parent", "child")
	h.AddValues("parent", "ghost")
	h.AddValues(nil, "child")

	resp := c.Validate(true)
	assert.False(t, resp.Valid())
	assert.Equal(t, 1, h.Len())
}

func TestSetReferenceConstraintValidation(t *testing.T) {
	c, err := NewCluster("v")
	require.NoError(t, err)

	err = c.SetReferenceConstraint(Reference{
		FromTable: "v_bogus", FromFields: []string{"uri"},
		ToTable: "v_label", ToFields: []string{"uri"},
	})
	assert.ErrorIs(t, err, ErrInvalidConstraint)

	err = c.SetReferenceConstraint(Reference{
		FromTable: "v_altlabel", FromFields: []string{"uri", "language"},
		ToTable: "v_label", ToFields: []string{"uri"},
	})
	assert.ErrorIs(t, err, ErrInvalidConstraint)
}

func TestDumpRoundTrip(t *testing.T) {
	c1, err := NewCluster("v")
	require.NoError(t, err)
	c1.Label().AddValues("u1", "fr", "un")
	c1.Label().AddValues("u2", nil, "two")
	c1.AltLabel().AddValues("u1", nil, "1")
	sp, err := c1.Spatial()
	require.NoError(t, err)
	sp.AddValues("u1", -5.1, 41.3, 9.6, 51.1)
	require.True(t, c1.Validate(false).Valid())

	var buf bytes.Buffer
	require.NoError(t, c1.Dump(&buf))

	c2, err := NewCluster("v")
	require.NoError(t, err)
	_, err = c2.Spatial()
	require.NoError(t, err)
	require.NoError(t, c2.LoadDump(bytes.NewReader(buf.Bytes())))

	for _, name := range c1.Names() {
		t1, t2 := c1.Table(name), c2.Table(name)
		require.NotNil(t, t2, name)
		require.Equal(t, t1.Len(), t2.Len(), name)
		for i, row := range t1.Rows() {
			for _, f := range row.Fields() {
				want := row.Value(f)
				got := t2.Row(i).Value(f)
				// JSON numbers come back as float64, strings and nils as is
				assert.EqualValues(t, want, got, "%s row %d field %s", name, i, f)
			}
		}
	}
}
