package loader

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ecolabdata/ecospheres-vocabularies/table"
)

// columnType maps the portable column types to Postgres types.
func columnType(t table.ColumnType) string {
	switch t {
	case table.ColumnNumber:
		return "double precision"
	default:
		return "text"
	}
}

// createStatement renders the CREATE TABLE statement for a schema. The
// surrogate "id" primary key is added here, not in the descriptor.
func createStatement(schema *table.Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(pq.QuoteIdentifier(SchemaName))
	b.WriteString(".")
	b.WriteString(pq.QuoteIdentifier(schema.Name))
	b.WriteString(" (id serial PRIMARY KEY")
	for _, col := range schema.Columns {
		b.WriteString(", ")
		b.WriteString(pq.QuoteIdentifier(col.Name))
		b.WriteString(" ")
		b.WriteString(columnType(col.Type))
		if col.NotNull {
			b.WriteString(" NOT NULL")
		}
		if col.Unique {
			b.WriteString(" UNIQUE")
		}
	}
	b.WriteString(")")
	return b.String()
}

// indexStatements renders one CREATE INDEX per indexed column.
func indexStatements(schema *table.Schema) []string {
	stmts := make([]string, 0, len(schema.Indexes))
	for _, col := range schema.Indexes {
		name := fmt.Sprintf("%s_%s_idx", schema.Name, col)
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX %s ON %s.%s (%s)",
			pq.QuoteIdentifier(name),
			pq.QuoteIdentifier(SchemaName),
			pq.QuoteIdentifier(schema.Name),
			pq.QuoteIdentifier(col)))
	}
	return stmts
}
