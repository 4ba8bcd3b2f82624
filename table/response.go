package table

import "fmt"

// Anomaly records one constraint violation found during validation.
type Anomaly struct {
	Table      string
	Constraint string
	RowIndex   int
	Row        *Row
	Message    string
}

// String returns a log-friendly description of the anomaly.
func (a Anomaly) String() string {
	return fmt.Sprintf("%s: row %d violates %s: %s", a.Table, a.RowIndex, a.Constraint, a.Message)
}

// Response is the outcome of a validation pass: a list of anomalies and a
// boolean meaning "all rows valid".
type Response struct {
	anomalies []Anomaly
}

func (r *Response) add(a Anomaly) {
	r.anomalies = append(r.anomalies, a)
}

func (r *Response) merge(other *Response) {
	r.anomalies = append(r.anomalies, other.anomalies...)
}

// Valid reports whether the validation found no anomaly.
func (r *Response) Valid() bool {
	return len(r.anomalies) == 0
}

// Anomalies returns the recorded anomalies in detection order.
func (r *Response) Anomalies() []Anomaly {
	return append([]Anomaly(nil), r.anomalies...)
}
