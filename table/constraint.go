package table

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConstraint is returned when a constraint references unknown
// fields or tables. It is fatal to the caller's setup path.
var ErrInvalidConstraint = errors.New("invalid constraint")

// Constraint is the tagged sum of structural constraints: NotNull and
// Unique are held by tables, Reference by clusters. Constraints reference
// tables by name but never own them.
type Constraint interface {
	// Describe returns a short human-readable form used in anomalies.
	Describe() string
}

// NotNull requires Field to carry a value on every row.
type NotNull struct {
	Field string
}

// Describe implements Constraint.
func (c NotNull) Describe() string {
	return fmt.Sprintf("not-null(%s)", c.Field)
}

// Unique requires the combination of Fields to appear at most once.
// See Table.SetUniqueConstraint for the NoneAsValue semantics.
type Unique struct {
	Fields      []string
	NoneAsValue bool
}

// Describe implements Constraint.
func (c Unique) Describe() string {
	return fmt.Sprintf("unique(%s)", strings.Join(c.Fields, ", "))
}

func (c Unique) sameAs(other Unique) bool {
	if c.NoneAsValue != other.NoneAsValue || len(c.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range c.Fields {
		if f != other.Fields[i] {
			return false
		}
	}
	return true
}

// Reference requires every row of FromTable, projected on FromFields, to
// exist in ToTable on ToFields (projection by index). With NoneAsValue
// false, a nil in a referenced field removes that field from the lookup,
// making nil behave as "any".
type Reference struct {
	FromTable   string
	FromFields  []string
	ToTable     string
	ToFields    []string
	NoneAsValue bool
}

// Describe implements Constraint.
func (c Reference) Describe() string {
	return fmt.Sprintf("reference(%s(%s) -> %s(%s))",
		c.FromTable, strings.Join(c.FromFields, ", "),
		c.ToTable, strings.Join(c.ToFields, ", "))
}
