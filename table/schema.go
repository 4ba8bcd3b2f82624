package table

// Schema is the immutable persistent descriptor of a table. It is plain
// data so any storage adapter can consume it; tables without a schema are
// in-memory only and skipped by the loader. The integer primary key column
// "id" is implicit and owned by the storage layer.
type Schema struct {
	// Name is the persistent table name inside the storage namespace.
	Name string
	// Columns describe the functional columns in order.
	Columns []Column
	// Indexes lists column names that get a non-unique index.
	Indexes []string
}

// Column describes one persistent column.
type Column struct {
	Name    string
	Type    ColumnType
	NotNull bool
	Unique  bool
}

// ColumnType enumerates the storage column types used by vocabularies.
type ColumnType string

const (
	ColumnText   ColumnType = "text"
	ColumnNumber ColumnType = "number"
)

func labelSchema(name string) *Schema {
	return &Schema{
		Name: name,
		Columns: []Column{
			{Name: FieldURI, Type: ColumnText, NotNull: true},
			{Name: FieldLanguage, Type: ColumnText},
			{Name: FieldLabel, Type: ColumnText, NotNull: true},
		},
		Indexes: []string{FieldURI},
	}
}

func hierarchySchema(name string) *Schema {
	return &Schema{
		Name: name,
		Columns: []Column{
			{Name: FieldParent, Type: ColumnText, NotNull: true},
			{Name: FieldChild, Type: ColumnText, NotNull: true},
		},
		Indexes: []string{FieldParent, FieldChild},
	}
}

func synonymSchema(name string) *Schema {
	return &Schema{
		Name: name,
		Columns: []Column{
			{Name: FieldURI, Type: ColumnText, NotNull: true},
			{Name: FieldSynonym, Type: ColumnText, NotNull: true},
		},
		Indexes: []string{FieldURI, FieldSynonym},
	}
}

func regexpSchema(name string) *Schema {
	return &Schema{
		Name: name,
		Columns: []Column{
			{Name: FieldURI, Type: ColumnText, NotNull: true},
			{Name: FieldRegexp, Type: ColumnText, NotNull: true},
		},
		Indexes: []string{FieldURI},
	}
}

func spatialSchema(name string) *Schema {
	return &Schema{
		Name: name,
		Columns: []Column{
			{Name: FieldURI, Type: ColumnText, NotNull: true, Unique: true},
			{Name: FieldWestLimit, Type: ColumnNumber, NotNull: true},
			{Name: FieldSouthLimit, Type: ColumnNumber, NotNull: true},
			{Name: FieldEastLimit, Type: ColumnNumber, NotNull: true},
			{Name: FieldNorthLimit, Type: ColumnNumber, NotNull: true},
		},
	}
}
