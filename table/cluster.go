package table

import (
	"fmt"
)

// Well-known table suffixes. Every cluster always carries a label and an
// altlabel table; the others are created on demand.
const (
	SuffixLabel     = "label"
	SuffixAltLabel  = "altlabel"
	SuffixHierarchy = "hierarchy"
	SuffixSynonym   = "synonym"
	SuffixRegexp    = "regexp"
	SuffixSpatial   = "spatial"
)

// Well-known field names.
const (
	FieldURI        = "uri"
	FieldLanguage   = "language"
	FieldLabel      = "label"
	FieldParent     = "parent"
	FieldChild      = "child"
	FieldSynonym    = "synonym"
	FieldRegexp     = "regexp"
	FieldWestLimit  = "westlimit"
	FieldSouthLimit = "southlimit"
	FieldEastLimit  = "eastlimit"
	FieldNorthLimit = "northlimit"
)

// Cluster is the named collection of tables for one vocabulary plus the
// cross-table reference constraints between them. Tables are exclusively
// owned by their cluster.
type Cluster struct {
	vocabulary string
	tables     map[string]*Table
	order      []string
	references []Reference
}

// NewCluster creates a cluster for the vocabulary with its two mandatory
// tables: label (unique preferred label per uri/language pair, nil
// language matching only nil) and altlabel (duplicates tolerated, every
// tagged entry backed by a label row).
func NewCluster(vocabulary string) (*Cluster, error) {
	if vocabulary == "" {
		return nil, fmt.Errorf("cluster vocabulary name is required")
	}
	c := &Cluster{
		vocabulary: vocabulary,
		tables:     make(map[string]*Table),
	}

	label, err := c.addTable(SuffixLabel, FieldURI, FieldLanguage, FieldLabel)
	if err != nil {
		return nil, err
	}
	if err := label.SetNotNullConstraint(FieldURI); err != nil {
		return nil, err
	}
	if err := label.SetNotNullConstraint(FieldLabel); err != nil {
		return nil, err
	}
	if err := label.SetUniqueConstraint([]string{FieldURI, FieldLanguage}, true); err != nil {
		return nil, err
	}
	label.SetSchema(labelSchema(label.Name()))

	alt, err := c.addTable(SuffixAltLabel, FieldURI, FieldLanguage, FieldLabel)
	if err != nil {
		return nil, err
	}
	if err := alt.SetNotNullConstraint(FieldURI); err != nil {
		return nil, err
	}
	if err := alt.SetNotNullConstraint(FieldLabel); err != nil {
		return nil, err
	}
	alt.SetSchema(labelSchema(alt.Name()))

	// Nil language acts as a wildcard here so untagged alternative labels
	// only need some label row for the same uri.
	c.references = append(c.references, Reference{
		FromTable:   alt.Name(),
		FromFields:  []string{FieldURI, FieldLanguage},
		ToTable:     label.Name(),
		ToFields:    []string{FieldURI, FieldLanguage},
		NoneAsValue: false,
	})

	return c, nil
}

// Vocabulary returns the vocabulary name the cluster belongs to.
func (c *Cluster) Vocabulary() string { return c.vocabulary }

// qualify returns the qualified table name for a well-known suffix.
func (c *Cluster) qualify(suffix string) string {
	return c.vocabulary + "_" + suffix
}

func (c *Cluster) addTable(suffix string, fields ...string) (*Table, error) {
	name := c.qualify(suffix)
	if _, exists := c.tables[name]; exists {
		return nil, fmt.Errorf("cluster %s: table %s already exists", c.vocabulary, name)
	}
	t, err := New(name, fields...)
	if err != nil {
		return nil, err
	}
	c.tables[name] = t
	c.order = append(c.order, name)
	return t, nil
}

// Table returns the table with the given qualified name, or nil.
func (c *Cluster) Table(name string) *Table {
	return c.tables[name]
}

// Get returns the table for a well-known suffix, or nil when the cluster
// does not carry it.
func (c *Cluster) Get(suffix string) *Table {
	return c.tables[c.qualify(suffix)]
}

// Label returns the mandatory preferred-labels table.
func (c *Cluster) Label() *Table { return c.Get(SuffixLabel) }

// AltLabel returns the mandatory alternative-labels table.
func (c *Cluster) AltLabel() *Table { return c.Get(SuffixAltLabel) }

// Names returns the qualified table names in creation order.
func (c *Cluster) Names() []string {
	return append([]string(nil), c.order...)
}

// References returns the cluster-level reference constraints.
func (c *Cluster) References() []Reference {
	return append([]Reference(nil), c.references...)
}

// SetReferenceConstraint declares a cross-table reference constraint. Both
// tables must exist and field lists must pair up.
func (c *Cluster) SetReferenceConstraint(ref Reference) error {
	from := c.tables[ref.FromTable]
	to := c.tables[ref.ToTable]
	if from == nil {
		return fmt.Errorf("%w: cluster %s has no table %s", ErrInvalidConstraint, c.vocabulary, ref.FromTable)
	}
	if to == nil {
		return fmt.Errorf("%w: cluster %s has no table %s", ErrInvalidConstraint, c.vocabulary, ref.ToTable)
	}
	if len(ref.FromFields) == 0 || len(ref.FromFields) != len(ref.ToFields) {
		return fmt.Errorf("%w: reference field lists must pair up", ErrInvalidConstraint)
	}
	for _, f := range ref.FromFields {
		if !from.hasField(f) {
			return fmt.Errorf("%w: table %s has no field %q", ErrInvalidConstraint, ref.FromTable, f)
		}
	}
	for _, f := range ref.ToFields {
		if !to.hasField(f) {
			return fmt.Errorf("%w: table %s has no field %q", ErrInvalidConstraint, ref.ToTable, f)
		}
	}
	c.references = append(c.references, ref)
	return nil
}

// uriReference builds the usual "uri must exist in label" constraint.
func (c *Cluster) uriReference(fromTable string, fromField string) Reference {
	return Reference{
		FromTable:   fromTable,
		FromFields:  []string{fromField},
		ToTable:     c.qualify(SuffixLabel),
		ToFields:    []string{FieldURI},
		NoneAsValue: true,
	}
}

// Hierarchy returns the parent/child table, creating it with its
// constraints on first use.
func (c *Cluster) Hierarchy() (*Table, error) {
	if t := c.Get(SuffixHierarchy); t != nil {
		return t, nil
	}
	t, err := c.addTable(SuffixHierarchy, FieldParent, FieldChild)
	if err != nil {
		return nil, err
	}
	if err := t.SetNotNullConstraint(FieldParent); err != nil {
		return nil, err
	}
	if err := t.SetNotNullConstraint(FieldChild); err != nil {
		return nil, err
	}
	c.references = append(c.references,
		c.uriReference(t.Name(), FieldParent),
		c.uriReference(t.Name(), FieldChild),
	)
	t.SetSchema(hierarchySchema(t.Name()))
	return t, nil
}

// Synonym returns the uri/synonym table, creating it on first use. The
// synonym column holds alias URIs from other coding systems and is not
// itself required to be a known uri.
func (c *Cluster) Synonym() (*Table, error) {
	if t := c.Get(SuffixSynonym); t != nil {
		return t, nil
	}
	t, err := c.addTable(SuffixSynonym, FieldURI, FieldSynonym)
	if err != nil {
		return nil, err
	}
	if err := t.SetNotNullConstraint(FieldURI); err != nil {
		return nil, err
	}
	if err := t.SetNotNullConstraint(FieldSynonym); err != nil {
		return nil, err
	}
	c.references = append(c.references, c.uriReference(t.Name(), FieldURI))
	t.SetSchema(synonymSchema(t.Name()))
	return t, nil
}

// Regexp returns the uri/regexp table, creating it on first use.
func (c *Cluster) Regexp() (*Table, error) {
	if t := c.Get(SuffixRegexp); t != nil {
		return t, nil
	}
	t, err := c.addTable(SuffixRegexp, FieldURI, FieldRegexp)
	if err != nil {
		return nil, err
	}
	if err := t.SetNotNullConstraint(FieldURI); err != nil {
		return nil, err
	}
	if err := t.SetNotNullConstraint(FieldRegexp); err != nil {
		return nil, err
	}
	c.references = append(c.references, c.uriReference(t.Name(), FieldURI))
	t.SetSchema(regexpSchema(t.Name()))
	return t, nil
}

// Spatial returns the bounding-box table, creating it on first use.
func (c *Cluster) Spatial() (*Table, error) {
	if t := c.Get(SuffixSpatial); t != nil {
		return t, nil
	}
	t, err := c.addTable(SuffixSpatial,
		FieldURI, FieldWestLimit, FieldSouthLimit, FieldEastLimit, FieldNorthLimit)
	if err != nil {
		return nil, err
	}
	for _, f := range t.Fields() {
		if err := t.SetNotNullConstraint(f); err != nil {
			return nil, err
		}
	}
	if err := t.SetUniqueConstraint([]string{FieldURI}, true); err != nil {
		return nil, err
	}
	c.references = append(c.references, c.uriReference(t.Name(), FieldURI))
	t.SetSchema(spatialSchema(t.Name()))
	return t, nil
}

// Validate runs every table's own constraints then the cluster reference
// constraints, in table creation order. When delete is true, offending
// rows are removed after each traversal so later reference checks see the
// cleaned referenced tables.
func (c *Cluster) Validate(delete bool) *Response {
	resp := &Response{}
	for _, name := range c.order {
		resp.merge(c.tables[name].Validate(delete))
	}
	for _, ref := range c.references {
		resp.merge(c.validateReference(ref, delete))
	}
	return resp
}

// validateReference checks one reference constraint. For each row of the
// referencing table, the referenced fields are projected onto the
// referenced table by index and the resulting slice must exist there. With
// NoneAsValue false, nil referenced values are removed from the lookup.
func (c *Cluster) validateReference(ref Reference, delete bool) *Response {
	resp := &Response{}
	from := c.tables[ref.FromTable]
	to := c.tables[ref.ToTable]
	if from == nil || to == nil {
		return resp
	}
	bad := make(map[int]struct{})
	for i, row := range from.rows {
		partial := make(map[string]any, len(ref.FromFields))
		for k, f := range ref.FromFields {
			v := row.Value(f)
			if v == nil && !ref.NoneAsValue {
				continue
			}
			partial[ref.ToFields[k]] = v
		}
		if !to.Exists(partial) {
			resp.add(Anomaly{
				Table:      from.name,
				Constraint: ref.Describe(),
				RowIndex:   i,
				Row:        row,
				Message:    fmt.Sprintf("no matching row in %s", ref.ToTable),
			})
			bad[i] = struct{}{}
		}
	}
	if delete && len(bad) > 0 {
		kept := from.rows[:0]
		for i, row := range from.rows {
			if _, drop := bad[i]; !drop {
				kept = append(kept, row)
			}
		}
		from.rows = kept
	}
	return resp
}
