package reader

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stub cans the reply for queries containing a substring; args, when set,
// must match exactly. Unmatched queries return zero rows.
type stub struct {
	contains string
	args     []driver.Value
	columns  []string
	rows     [][]driver.Value
	err      error
}

type stubConnector struct{ stubs []stub }

func (c stubConnector) Connect(context.Context) (driver.Conn, error) { return stubConn{c.stubs}, nil }
func (c stubConnector) Driver() driver.Driver                        { return nil }

type stubConn struct{ stubs []stub }

func (c stubConn) Prepare(query string) (driver.Stmt, error) {
	return stubStmt{stubs: c.stubs, query: query}, nil
}
func (c stubConn) Close() error              { return nil }
func (c stubConn) Begin() (driver.Tx, error) { return nil, fmt.Errorf("not implemented") }

type stubStmt struct {
	stubs []stub
	query string
}

func (s stubStmt) Close() error  { return nil }
func (s stubStmt) NumInput() int { return -1 }
func (s stubStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s stubStmt) Query(args []driver.Value) (driver.Rows, error) {
	for _, st := range s.stubs {
		if !strings.Contains(s.query, st.contains) {
			continue
		}
		if st.args != nil && !argsEqual(st.args, args) {
			continue
		}
		if st.err != nil {
			return nil, st.err
		}
		return &stubRows{columns: st.columns, data: st.rows}, nil
	}
	return &stubRows{}, nil
}

func argsEqual(want, got []driver.Value) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

type stubRows struct {
	columns []string
	data    [][]driver.Value
	i       int
}

func (r *stubRows) Columns() []string { return r.columns }
func (r *stubRows) Close() error      { return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.i])
	r.i++
	return nil
}

func newTestReader(t *testing.T, stubs ...stub) *Reader {
	t.Helper()
	db := sql.OpenDB(stubConnector{stubs})
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

var missingTable = &pq.Error{Code: "42P01", Message: "relation does not exist"}

func TestIsKnownURI(t *testing.T) {
	r := newTestReader(t, stub{
		contains: `"theme_label"`,
		args:     []driver.Value{"u1"},
		columns:  []string{"bool"},
		rows:     [][]driver.Value{{true}},
	})

	known, err := r.IsKnownURI(context.Background(), "theme", "u1")
	require.NoError(t, err)
	assert.True(t, known)

	known, err = r.IsKnownURI(context.Background(), "theme", "u2")
	require.NoError(t, err)
	assert.False(t, known)
}

func TestIsKnownURIMissingTable(t *testing.T) {
	r := newTestReader(t, stub{contains: `"theme_label"`, err: missingTable})
	known, err := r.IsKnownURI(context.Background(), "theme", "u1")
	require.NoError(t, err)
	assert.False(t, known)
}

func TestGetLabelFallsBackToDefaultLanguage(t *testing.T) {
	r := newTestReader(t, stub{
		contains: "language = $2",
		args:     []driver.Value{"u1", "fr"},
		columns:  []string{"label"},
		rows:     [][]driver.Value{{"Eau"}},
	})

	// no English label: the French one is returned
	label, err := r.GetLabel(context.Background(), "theme", "u1", "en")
	require.NoError(t, err)
	assert.Equal(t, "Eau", label)
}

func TestGetLabelFallsBackToAnyLanguage(t *testing.T) {
	r := newTestReader(t, stub{
		contains: "WHERE uri = $1 LIMIT 1",
		args:     []driver.Value{"u1"},
		columns:  []string{"label"},
		rows:     [][]driver.Value{{"Water"}},
	})

	label, err := r.GetLabel(context.Background(), "theme", "u1", "en")
	require.NoError(t, err)
	assert.Equal(t, "Water", label)
}

func TestGetURIFromLabelScansAltLabels(t *testing.T) {
	r := newTestReader(t, stub{
		contains: `"theme_altlabel"`,
		args:     []driver.Value{"eau"},
		columns:  []string{"uri"},
		rows:     [][]driver.Value{{"u1"}},
	})

	uri, err := r.GetURIFromLabel(context.Background(), "theme", "eau")
	require.NoError(t, err)
	assert.Equal(t, "u1", uri)

	// restricted to preferred labels, the alternative hit disappears
	uri, err = r.GetURIFromLabel(context.Background(), "theme", "eau", WithoutAltLabels())
	require.NoError(t, err)
	assert.Empty(t, uri)
}

func TestGetURIFromLabelOptions(t *testing.T) {
	r := newTestReader(t,
		stub{
			contains: "label = $1 AND language = $2",
			args:     []driver.Value{"Eau", "fr"},
			columns:  []string{"uri"},
			rows:     [][]driver.Value{{"u1"}},
		})

	uri, err := r.GetURIFromLabel(context.Background(), "theme", "Eau", CaseSensitive(), InLanguage("fr"))
	require.NoError(t, err)
	assert.Equal(t, "u1", uri)

	// wrong case never reaches the case-sensitive stub
	uri, err = r.GetURIFromLabel(context.Background(), "theme", "EAU", CaseSensitive(), InLanguage("fr"))
	require.NoError(t, err)
	assert.Empty(t, uri)
}

func TestGetURIsFromRegexpDeduplicates(t *testing.T) {
	r := newTestReader(t,
		stub{
			contains: "$1 ~ regexp",
			args:     []driver.Value{"VERCORS"},
			columns:  []string{"uri"},
			rows:     [][]driver.Value{{"u1"}},
		},
		stub{
			contains: "$1 ~ regexp",
			args:     []driver.Value{"massif du vercors"},
			columns:  []string{"uri"},
			rows:     [][]driver.Value{{"u1"}, {"u2"}},
		})

	uris, err := r.GetURIsFromRegexp(context.Background(), "zone", []string{"VERCORS", "massif du vercors"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, uris)
}

func TestGetParentsAndChildren(t *testing.T) {
	r := newTestReader(t,
		stub{
			contains: "SELECT DISTINCT parent",
			columns:  []string{"parent"},
			rows:     [][]driver.Value{{"p1"}},
		},
		stub{
			contains: "SELECT DISTINCT child",
			columns:  []string{"child"},
			rows:     [][]driver.Value{{"c1"}, {"c2"}},
		})

	parents, err := r.GetParents(context.Background(), "zone", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, parents)

	children, err := r.GetChildren(context.Background(), "zone", "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, children)

	// no input, no query
	parents, err = r.GetParents(context.Background(), "zone")
	require.NoError(t, err)
	assert.Empty(t, parents)
}

func TestGetChildrenLabelsFromLabel(t *testing.T) {
	r := newTestReader(t,
		stub{
			contains: "lower(label) = lower($1)",
			args:     []driver.Value{"Eau"},
			columns:  []string{"uri"},
			rows:     [][]driver.Value{{"u1"}},
		},
		stub{
			contains: "SELECT DISTINCT child",
			columns:  []string{"child"},
			rows:     [][]driver.Value{{"c1"}},
		},
		stub{
			contains: "language = $2",
			args:     []driver.Value{"c1", "fr"},
			columns:  []string{"label"},
			rows:     [][]driver.Value{{"Eaux souterraines"}},
		})

	labels, err := r.GetChildrenLabelsFromLabel(context.Background(), "theme", "Eau", "fr")
	require.NoError(t, err)
	assert.Equal(t, []string{"Eaux souterraines"}, labels)
}

func TestGetSynonyms(t *testing.T) {
	r := newTestReader(t, stub{
		contains: "SELECT DISTINCT synonym",
		args:     []driver.Value{"u1"},
		columns:  []string{"synonym"},
		rows:     [][]driver.Value{{"s1"}, {"s2"}},
	})

	synonyms, err := r.GetSynonyms(context.Background(), "zone", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, synonyms)
}

func TestGetURIFromIDFragment(t *testing.T) {
	// the anchored regexp form matches the last path component exactly;
	// an underscore in the fragment stays literal
	r := newTestReader(t, stub{
		contains: "uri ~ ('/' || $1 || '$')",
		args:     []driver.Value{"etalab-2_0"},
		columns:  []string{"uri"},
		rows:     [][]driver.Value{{"https://spdx.org/licenses/etalab-2_0"}},
	})

	uri, err := r.GetURIFromIDFragment(context.Background(), "license", "etalab-2_0")
	require.NoError(t, err)
	assert.Equal(t, "https://spdx.org/licenses/etalab-2_0", uri)

	// fragments with path characters never reach the database
	uri, err = r.GetURIFromIDFragment(context.Background(), "license", "a/b")
	require.NoError(t, err)
	assert.Empty(t, uri)

	uri, err = r.GetURIFromIDFragment(context.Background(), "license", "")
	require.NoError(t, err)
	assert.Empty(t, uri)
}

func TestGetBBox(t *testing.T) {
	r := newTestReader(t, stub{
		contains: `"zone_spatial"`,
		args:     []driver.Value{"u1"},
		columns:  []string{"uri", "westlimit", "southlimit", "eastlimit", "northlimit"},
		rows:     [][]driver.Value{{"u1", -5.14, 47.28, -3.66, 48.75}},
	})

	box, err := r.GetBBox(context.Background(), "zone", "u1")
	require.NoError(t, err)
	require.NotNil(t, box)
	assert.Equal(t, &BBox{URI: "u1", West: -5.14, South: 47.28, East: -3.66, North: 48.75}, box)

	box, err = r.GetBBox(context.Background(), "zone", "u2")
	require.NoError(t, err)
	assert.Nil(t, box)
}

func TestGetBBoxMissingTable(t *testing.T) {
	r := newTestReader(t, stub{contains: `"theme_spatial"`, err: missingTable})
	box, err := r.GetBBox(context.Background(), "theme", "u1")
	require.NoError(t, err)
	assert.Nil(t, box)
}

func TestListVocabularies(t *testing.T) {
	r := newTestReader(t, stub{
		contains: "information_schema.tables",
		columns:  []string{"table_name"},
		rows: [][]driver.Value{
			{"theme_altlabel"},
			{"theme_label"},
			{"zone_label"},
		},
	})

	names, err := r.ListVocabularies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"theme", "zone"}, names)
}
