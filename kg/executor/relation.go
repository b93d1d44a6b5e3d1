// Package executor runs a planner.Physical tree against an index,
// producing a Relation of bindings. It supports two output modes:
// id-based, for feeding results back into another query or rule
// evaluation, and string-based, for anything that renders to a human.
package executor

import (
	"fmt"

	"github.com/wbrown/reasongraph/kg"
)

// Relation is an ordered set of variable bindings sharing one column set,
// a plain struct — the executor's physical operators each know how to produce
// their own rows; Relation only needs to carry and render them.
type Relation struct {
	Columns []string
	Rows    []kg.Binding
}

// NewRelation creates an empty Relation over the given columns.
func NewRelation(columns []string) *Relation {
	return &Relation{Columns: columns}
}

// Size returns the number of rows.
func (r *Relation) Size() int { return len(r.Rows) }

// IsEmpty reports whether the relation has no rows.
func (r *Relation) IsEmpty() bool { return len(r.Rows) == 0 }

// Append adds a row.
func (r *Relation) Append(b kg.Binding) { r.Rows = append(r.Rows, b) }

// StringRow is one decoded row: column name to decoded string value.
type StringRow map[string]string

// Decode renders every row through dict, producing the string-based
// execution mode's output.
func (r *Relation) Decode(dict *kg.Dictionary) []StringRow {
	out := make([]StringRow, len(r.Rows))
	for i, row := range r.Rows {
		cells := make(StringRow, len(r.Columns))
		for _, col := range r.Columns {
			id, ok := row[col]
			if !ok {
				continue
			}
			if s, ok := dict.Decode(id); ok {
				cells[col] = s
			} else {
				cells[col] = fmt.Sprintf("%d", id)
			}
		}
		out[i] = cells
	}
	return out
}
