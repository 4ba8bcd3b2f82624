// Package table provides in-memory, constraint-checked tables grouped
// into per-vocabulary clusters. Tables preserve field declaration order,
// rows always expose every declared field (nil when unset), and a small
// interpreter walks rows against declared constraints to produce a
// validation response.
package table

// Row holds the values of a single table row. The field tuple is shared
// with the owning table; values are indexed positionally.
type Row struct {
	fields []string
	values []any
}

// Fields returns the ordered field names of the row.
func (r *Row) Fields() []string {
	return r.fields
}

// Get returns the value for field and whether the field is declared.
func (r *Row) Get(field string) (any, bool) {
	for i, f := range r.fields {
		if f == field {
			return r.values[i], true
		}
	}
	return nil, false
}

// Value returns the value for field, or nil when the field is unknown.
func (r *Row) Value(field string) any {
	v, _ := r.Get(field)
	return v
}

// IsNull reports whether field is unset (or unknown).
func (r *Row) IsNull(field string) bool {
	v, _ := r.Get(field)
	return v == nil
}

// Values returns the row values in field declaration order.
func (r *Row) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Map returns the row as a field→value mapping.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, len(r.fields))
	for i, f := range r.fields {
		m[f] = r.values[i]
	}
	return m
}

// Equal reports whether two rows carry the same fields and values.
func (r *Row) Equal(other *Row) bool {
	if other == nil || len(r.fields) != len(other.fields) {
		return false
	}
	for i, f := range r.fields {
		if f != other.fields[i] || r.values[i] != other.values[i] {
			return false
		}
	}
	return true
}
