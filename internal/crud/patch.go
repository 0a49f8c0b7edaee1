package crud

import (
	"github.com/uptrace/bun"
)

type assignment struct {
	column string
	value  any
}

// UpdatePatch accumulates column assignments for a partial update. Callers
// add fields in declaration order so the generated statement is deterministic.
// Omitted fields are never touched: absent is not the same as set-to-empty.
type UpdatePatch struct {
	assignments []assignment
}

func NewUpdatePatch() *UpdatePatch {
	return &UpdatePatch{}
}

// Set appends a column assignment.
func (p *UpdatePatch) Set(column string, value any) *UpdatePatch {
	p.assignments = append(p.assignments, assignment{column: column, value: value})
	return p
}

// IsEmpty reports whether no fields were provided.
func (p *UpdatePatch) IsEmpty() bool {
	return len(p.assignments) == 0
}

// Columns returns the assigned column names in insertion order.
func (p *UpdatePatch) Columns() []string {
	cols := make([]string, len(p.assignments))
	for i, a := range p.assignments {
		cols[i] = a.column
	}
	return cols
}

// Values returns the assigned values, ordered to match Columns.
func (p *UpdatePatch) Values() []any {
	vals := make([]any, len(p.assignments))
	for i, a := range p.assignments {
		vals[i] = a.value
	}
	return vals
}

// Apply adds the accumulated assignments to a bun update query. Returns
// ErrNoFieldsProvided when the patch is empty; callers must treat that as a
// client error instead of issuing a no-op write.
func (p *UpdatePatch) Apply(q *bun.UpdateQuery) (*bun.UpdateQuery, error) {
	if p.IsEmpty() {
		return nil, ErrNoFieldsProvided
	}
	for _, a := range p.assignments {
		q = q.Set("? = ?", bun.Ident(a.column), a.value)
	}
	return q, nil
}
