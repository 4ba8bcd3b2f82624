package table

import (
	"fmt"
	"strings"
)

// Table is an ordered collection of rows sharing one field tuple.
// A table belongs to exactly one cluster and its name is prefixed by the
// vocabulary name, e.g. "spdx_license_label".
type Table struct {
	name        string
	fields      []string
	constraints []Constraint
	rows        []*Row
	schema      *Schema
}

// New creates a table with the given qualified name and ordered fields.
// Field names must be unique.
func New(name string, fields ...string) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %s: at least one field is required", name)
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			return nil, fmt.Errorf("table %s: duplicate field %q", name, f)
		}
		seen[f] = struct{}{}
	}
	return &Table{
		name:   name,
		fields: append([]string(nil), fields...),
	}, nil
}

// Name returns the qualified table name.
func (t *Table) Name() string { return t.name }

// Fields returns the ordered field names.
func (t *Table) Fields() []string {
	return append([]string(nil), t.fields...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the rows in insertion order.
func (t *Table) Rows() []*Row {
	return append([]*Row(nil), t.rows...)
}

// Row returns the row at index i, or nil when out of range.
func (t *Table) Row(i int) *Row {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return t.rows[i]
}

// Schema returns the persistent schema descriptor, or nil for in-memory
// only tables.
func (t *Table) Schema() *Schema { return t.schema }

// SetSchema attaches a persistent schema descriptor consumed by the loader.
func (t *Table) SetSchema(s *Schema) { t.schema = s }

// hasField reports whether field is declared on the table.
func (t *Table) hasField(field string) bool {
	for _, f := range t.fields {
		if f == field {
			return true
		}
	}
	return false
}

// BuildRow produces a row with every declared field present. Positional
// values are consumed in field declaration order, then overwritten by keyed
// values. Surnumerary positional values and unknown keyed fields are
// ignored.
func (t *Table) BuildRow(positional []any, keyed map[string]any) *Row {
	values := make([]any, len(t.fields))
	for i := range t.fields {
		if i < len(positional) {
			values[i] = positional[i]
		}
	}
	for i, f := range t.fields {
		if v, ok := keyed[f]; ok {
			values[i] = v
		}
	}
	return &Row{fields: t.fields, values: values}
}

// Add builds a row from positional and keyed values, appends it and
// returns it.
func (t *Table) Add(positional []any, keyed map[string]any) *Row {
	row := t.BuildRow(positional, keyed)
	t.rows = append(t.rows, row)
	return row
}

// AddValues appends a row built from positional values only.
func (t *Table) AddValues(values ...any) *Row {
	return t.Add(values, nil)
}

// Append appends an already built row. The row must have been produced by
// BuildRow on the same table.
func (t *Table) Append(row *Row) {
	t.rows = append(t.rows, row)
}

// Exists reports whether any row matches on every provided field. A partial
// value of nil matches only nil. Unknown fields make the result false.
func (t *Table) Exists(partial map[string]any) bool {
	return t.ExistsRange(partial, 0, len(t.rows))
}

// ExistsRange is Exists restricted to rows in [start, stop).
func (t *Table) ExistsRange(partial map[string]any, start, stop int) bool {
	for f := range partial {
		if !t.hasField(f) {
			return false
		}
	}
	if start < 0 {
		start = 0
	}
	if stop > len(t.rows) {
		stop = len(t.rows)
	}
	for i := start; i < stop; i++ {
		if rowMatches(t.rows[i], partial) {
			return true
		}
	}
	return false
}

func rowMatches(row *Row, partial map[string]any) bool {
	for f, want := range partial {
		got, ok := row.Get(f)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// SetNotNullConstraint declares a not-null constraint on field. Declaring
// the same constraint twice is idempotent.
func (t *Table) SetNotNullConstraint(field string) error {
	if !t.hasField(field) {
		return fmt.Errorf("%w: table %s has no field %q", ErrInvalidConstraint, t.name, field)
	}
	c := NotNull{Field: field}
	for _, existing := range t.constraints {
		if existing == c {
			return nil
		}
	}
	t.constraints = append(t.constraints, c)
	return nil
}

// SetUniqueConstraint declares a uniqueness constraint over fields.
//
// When noneAsValue is true a nil participates fully in equality: nil
// matches only nil. When noneAsValue is false a nil in the row being
// validated acts as a wildcard against previously inserted rows (lower
// indices) only, so insertion order matters; callers wanting the symmetric
// check should Reverse the table and validate again.
func (t *Table) SetUniqueConstraint(fields []string, noneAsValue bool) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: table %s: unique constraint needs at least one field", ErrInvalidConstraint, t.name)
	}
	for _, f := range fields {
		if !t.hasField(f) {
			return fmt.Errorf("%w: table %s has no field %q", ErrInvalidConstraint, t.name, f)
		}
	}
	c := Unique{Fields: append([]string(nil), fields...), NoneAsValue: noneAsValue}
	for _, existing := range t.constraints {
		if u, ok := existing.(Unique); ok && u.sameAs(c) {
			return nil
		}
	}
	t.constraints = append(t.constraints, c)
	return nil
}

// Constraints returns the declared table-level constraints.
func (t *Table) Constraints() []Constraint {
	return append([]Constraint(nil), t.constraints...)
}

// Reverse reverses the row order in place. Combined with a second
// Validate call it gives the symmetric variant of the order-dependent
// wildcard uniqueness check.
func (t *Table) Reverse() {
	for i, j := 0, len(t.rows)-1; i < j; i, j = i+1, j-1 {
		t.rows[i], t.rows[j] = t.rows[j], t.rows[i]
	}
}

// Validate walks rows against the table constraints and collects
// anomalies. When delete is true, offending rows are removed from the
// table after the traversal.
func (t *Table) Validate(delete bool) *Response {
	resp := &Response{}
	bad := make(map[int]struct{})
	for i, row := range t.rows {
		for _, c := range t.constraints {
			if msg := t.checkRow(c, row, i); msg != "" {
				resp.add(Anomaly{
					Table:      t.name,
					Constraint: c.Describe(),
					RowIndex:   i,
					Row:        row,
					Message:    msg,
				})
				bad[i] = struct{}{}
			}
		}
	}
	if delete && len(bad) > 0 {
		kept := t.rows[:0]
		for i, row := range t.rows {
			if _, drop := bad[i]; !drop {
				kept = append(kept, row)
			}
		}
		t.rows = kept
	}
	return resp
}

// ValidateOne validates a row not yet inserted, as if it were appended at
// the end of the table.
func (t *Table) ValidateOne(row *Row) *Response {
	resp := &Response{}
	for _, c := range t.constraints {
		if msg := t.checkRow(c, row, len(t.rows)); msg != "" {
			resp.add(Anomaly{
				Table:      t.name,
				Constraint: c.Describe(),
				RowIndex:   len(t.rows),
				Row:        row,
				Message:    msg,
			})
		}
	}
	return resp
}

// checkRow evaluates one constraint for the row at index i. It returns an
// empty string when the row is valid.
func (t *Table) checkRow(c Constraint, row *Row, i int) string {
	switch c := c.(type) {
	case NotNull:
		if row.IsNull(c.Field) {
			return fmt.Sprintf("field %q is null", c.Field)
		}
	case Unique:
		for j := 0; j < i && j < len(t.rows); j++ {
			if uniqueCollision(row, t.rows[j], c) {
				return fmt.Sprintf("duplicate of row %d on (%s)", j, strings.Join(c.Fields, ", "))
			}
		}
	}
	return ""
}

// uniqueCollision reports whether row collides with the earlier row prev
// under the unique constraint c. With NoneAsValue false, a nil in the row
// under validation matches any earlier value for that field.
func uniqueCollision(row, prev *Row, c Unique) bool {
	for _, f := range c.Fields {
		v := row.Value(f)
		if v == nil && !c.NoneAsValue {
			continue
		}
		if v != prev.Value(f) {
			return false
		}
	}
	return true
}
