package loader

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecolabdata/ecospheres-vocabularies/table"
)

// recorder is a minimal database/sql driver capturing executed statements
// so loading can be exercised without a live Postgres.
type recorder struct {
	mu      sync.Mutex
	queries []string
	// failOn makes any statement containing the substring fail.
	failOn string
}

func (r *recorder) record(query string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn != "" && strings.Contains(query, r.failOn) {
		return fmt.Errorf("forced failure on %q", r.failOn)
	}
	r.queries = append(r.queries, query)
	return nil
}

func (r *recorder) executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

type fakeConnector struct{ rec *recorder }

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) { return fakeConn{c.rec}, nil }
func (c fakeConnector) Driver() driver.Driver                        { return fakeDriver{c.rec} }

type fakeDriver struct{ rec *recorder }

func (d fakeDriver) Open(string) (driver.Conn, error) { return fakeConn{d.rec}, nil }

type fakeConn struct{ rec *recorder }

func (c fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{rec: c.rec, query: query}, nil
}
func (c fakeConn) Close() error              { return nil }
func (c fakeConn) Begin() (driver.Tx, error) { return fakeTx{}, nil }

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeStmt struct {
	rec   *recorder
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }
func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	if err := s.rec.record(s.query); err != nil {
		return nil, err
	}
	return driver.RowsAffected(1), nil
}
func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, fmt.Errorf("not implemented")
}

func openFake(t *testing.T, rec *recorder) *sql.DB {
	t.Helper()
	db := sql.OpenDB(fakeConnector{rec})
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func themeCluster(t *testing.T) *table.Cluster {
	t.Helper()
	cluster, err := table.NewCluster("theme")
	require.NoError(t, err)
	cluster.Label().AddValues("u1", "fr", "Eau")
	cluster.Label().AddValues("u2", "fr", "Air")
	cluster.AltLabel().AddValues("u1", nil, "eau")
	hierarchy, err := cluster.Hierarchy()
	require.NoError(t, err)
	hierarchy.AddValues("u1", "u2")
	return cluster
}

func TestLoad(t *testing.T) {
	rec := &recorder{}
	cluster := themeCluster(t)
	loader := New(openFake(t, rec), nil)

	report, err := loader.Load(context.Background(), cluster)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, []string{"theme_label", "theme_altlabel", "theme_hierarchy"}, report.Loaded)
	assert.Empty(t, report.Skipped)

	queries := rec.executed()
	assert.Contains(t, queries, `CREATE SCHEMA IF NOT EXISTS "vocabulary"`)
	assert.Contains(t, queries, `DROP TABLE IF EXISTS "vocabulary"."theme_label" CASCADE`)
	assert.Contains(t, queries,
		`CREATE TABLE "vocabulary"."theme_label" (id serial PRIMARY KEY, "uri" text NOT NULL, "language" text, "label" text NOT NULL)`)
	assert.Contains(t, queries,
		`CREATE INDEX "theme_label_uri_idx" ON "vocabulary"."theme_label" ("uri")`)

	// one COPY exec per row plus the flush
	copies := 0
	for _, q := range queries {
		if strings.HasPrefix(q, `COPY "vocabulary"."theme_label"`) {
			copies++
		}
	}
	assert.Equal(t, 3, copies)
}

func TestLoadSkipsTablesWithoutSchema(t *testing.T) {
	rec := &recorder{}
	cluster := themeCluster(t)
	cluster.AltLabel().SetSchema(nil)

	report, err := New(openFake(t, rec), nil).Load(context.Background(), cluster)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, []string{"theme_label", "theme_hierarchy"}, report.Loaded)
	assert.Equal(t, []string{"theme_altlabel"}, report.Skipped)
	for _, q := range rec.executed() {
		assert.NotContains(t, q, "theme_altlabel")
	}
}

func TestLoadContinuesAfterTableFailure(t *testing.T) {
	rec := &recorder{failOn: "theme_altlabel"}
	cluster := themeCluster(t)

	report, err := New(openFake(t, rec), nil).Load(context.Background(), cluster)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, []string{"theme_label", "theme_hierarchy"}, report.Loaded)
	require.Contains(t, report.Failed, "theme_altlabel")
	assert.ErrorContains(t, report.Failed["theme_altlabel"], "forced failure")
}

func TestLoadSchemaFailure(t *testing.T) {
	rec := &recorder{failOn: "CREATE SCHEMA"}
	_, err := New(openFake(t, rec), nil).Load(context.Background(), themeCluster(t))
	assert.ErrorContains(t, err, "create schema")
}

func TestCreateStatementTypes(t *testing.T) {
	schema := &table.Schema{
		Name: "zone_spatial",
		Columns: []table.Column{
			{Name: "uri", Type: table.ColumnText, NotNull: true, Unique: true},
			{Name: "westlimit", Type: table.ColumnNumber, NotNull: true},
		},
	}
	assert.Equal(t,
		`CREATE TABLE "vocabulary"."zone_spatial" (id serial PRIMARY KEY, "uri" text NOT NULL UNIQUE, "westlimit" double precision NOT NULL)`,
		createStatement(schema))
	assert.Empty(t, indexStatements(schema))
}

func TestIndexStatements(t *testing.T) {
	schema := &table.Schema{
		Name:    "zone_hierarchy",
		Indexes: []string{"parent", "child"},
	}
	assert.Equal(t, []string{
		`CREATE INDEX "zone_hierarchy_parent_idx" ON "vocabulary"."zone_hierarchy" ("parent")`,
		`CREATE INDEX "zone_hierarchy_child_idx" ON "vocabulary"."zone_hierarchy" ("child")`,
	}, indexStatements(schema))
}
