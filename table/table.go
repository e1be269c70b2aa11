// Package table implements typed, ordered-column row storage: the engine's
// insert/update/delete/select primitive, shared by base tables,
// ephemeral join results, and the materialized result of a view query.
package table

import (
	"github.com/snapsql/snapsql/sqlerr"
	"github.com/snapsql/snapsql/value"
)

// Column describes one declared column of a base table.
type Column struct {
	Name    string
	Type    value.ColumnType
	Default *value.Value
}

// Table is typed tabular storage. Column identity is the qualified name
// "<table>.<column>"; RelTables lists the source table names an
// unqualified reference may resolve against — one entry for a base table,
// two for a join result.
type Table struct {
	Name      string
	RelTables []string

	headers  map[string]int
	order    []string
	types    []value.ColumnType
	defaults map[int]value.Value
	rows     [][]value.Value
}

// New builds a base table from its declared columns.
func New(name string, columns []Column) (*Table, error) {
	t := &Table{
		Name:      name,
		RelTables: []string{name},
		headers:   make(map[string]int, len(columns)),
		order:     make([]string, 0, len(columns)),
		types:     make([]value.ColumnType, 0, len(columns)),
		defaults:  make(map[int]value.Value),
	}
	for i, col := range columns {
		qualified := name + "." + col.Name
		if _, exists := t.headers[qualified]; exists {
			return nil, sqlerr.NewQueryError("%s can't be the column name for multiple columns", col.Name)
		}
		t.headers[qualified] = i
		t.order = append(t.order, qualified)
		t.types = append(t.types, col.Type)
		if col.Default != nil {
			t.defaults[i] = *col.Default
		}
	}
	return t, nil
}

// Headers returns the qualified column names in declared order.
func (t *Table) Headers() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// ColumnType returns the declared type of the column at qualified index i.
func (t *Table) ColumnType(i int) value.ColumnType { return t.types[i] }

// Default returns the declared DEFAULT value for the column at qualified
// index i, if any.
func (t *Table) Default(i int) (value.Value, bool) {
	dv, ok := t.defaults[i]
	return dv, ok
}

// Width is the number of columns.
func (t *Table) Width() int { return len(t.order) }

// RowCount is the number of stored rows.
func (t *Table) RowCount() int { return len(t.rows) }

// Rows returns the stored rows directly; callers must not mutate the
// returned slice or its elements.
func (t *Table) Rows() [][]value.Value { return t.rows }

// Resolve maps a possibly-unqualified column reference to its index and
// qualified name, scanning RelTables the way append_table_name does:
// already-qualified names are looked up directly; unqualified names are
// tried against each related table in order until one matches.
func (t *Table) Resolve(col string) (int, string, error) {
	if idx, ok := t.headers[col]; ok {
		return idx, col, nil
	}
	for _, rel := range t.RelTables {
		candidate := rel + "." + col
		if idx, ok := t.headers[candidate]; ok {
			return idx, candidate, nil
		}
	}
	return 0, "", sqlerr.NewQueryError("column %q not found in table %s", col, t.Name)
}

// HasRelatedTable reports whether name is one of t's related source
// tables, used to validate "t.*" projections.
func (t *Table) HasRelatedTable(name string) bool {
	for _, rel := range t.RelTables {
		if rel == name {
			return true
		}
	}
	return false
}

// ColumnsOf returns the qualified column names belonging to related table
// name, in declared order — the expansion of "name.*".
func (t *Table) ColumnsOf(name string) []string {
	var out []string
	prefix := name + "."
	for _, h := range t.order {
		if len(h) > len(prefix) && h[:len(prefix)] == prefix {
			out = append(out, h)
		}
	}
	return out
}

// Clone returns a deep, independent copy — used to take a transaction
// snapshot.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:      t.Name,
		RelTables: append([]string(nil), t.RelTables...),
		headers:   make(map[string]int, len(t.headers)),
		order:     append([]string(nil), t.order...),
		types:     append([]value.ColumnType(nil), t.types...),
		defaults:  make(map[int]value.Value, len(t.defaults)),
		rows:      make([][]value.Value, len(t.rows)),
	}
	for k, v := range t.headers {
		out.headers[k] = v
	}
	for k, v := range t.defaults {
		out.defaults[k] = v
	}
	for i, row := range t.rows {
		out.rows[i] = append([]value.Value(nil), row...)
	}
	return out
}

// NewWithHeaders builds a table whose column identities are exactly the
// given (already possibly-qualified) header strings, with no declared
// type — used to materialize a view's result set, where the underlying
// column types are not carried through the defining query's raw token
// list. ORDER BY ... COLLATE treats an unset (KindNull) column type as
// unconstrained rather than rejecting it.
func NewWithHeaders(name string, headers []string, relTables []string) *Table {
	t := &Table{
		Name:      name,
		RelTables: relTables,
		headers:   make(map[string]int, len(headers)),
		order:     append([]string(nil), headers...),
		types:     make([]value.ColumnType, len(headers)),
		defaults:  make(map[int]value.Value),
	}
	for i, h := range headers {
		t.headers[h] = i
		t.types[i] = value.KindNull
	}
	return t
}

// NewJoin builds the ephemeral result table for "left LEFT OUTER JOIN
// right", with right's columns re-indexed after left's, per 4.5.1.
func NewJoin(name string, left, right *Table) *Table {
	t := &Table{
		Name:      name,
		RelTables: []string{left.Name, right.Name},
		headers:   make(map[string]int, len(left.order)+len(right.order)),
		order:     make([]string, 0, len(left.order)+len(right.order)),
		types:     make([]value.ColumnType, 0, len(left.order)+len(right.order)),
		defaults:  make(map[int]value.Value),
	}
	for _, h := range left.order {
		idx := len(t.order)
		t.headers[h] = idx
		t.order = append(t.order, h)
		t.types = append(t.types, left.types[left.headers[h]])
		if dv, ok := left.defaults[left.headers[h]]; ok {
			t.defaults[idx] = dv
		}
	}
	offset := len(t.order)
	for _, h := range right.order {
		idx := offset + right.headers[h]
		t.headers[h] = idx
		t.order = append(t.order, h)
		t.types = append(t.types, right.types[right.headers[h]])
		if dv, ok := right.defaults[right.headers[h]]; ok {
			t.defaults[idx] = dv
		}
	}
	return t
}

// AppendRow adds a fully-built, already-validated row directly — used by
// the join executor, which builds its own concatenated/null-padded rows
// rather than going through Insert's column-scatter logic.
func (t *Table) AppendRow(row []value.Value) {
	t.rows = append(t.rows, row)
}

// Insert implements 4.3's insert algorithm.
func (t *Table) Insert(rows [][]value.Value, columnsToInsert []string, allDefault bool) error {
	if allDefault {
		if len(t.defaults) != len(t.order) {
			return sqlerr.NewQueryError("there aren't default values specified for every column of %s", t.Name)
		}
		row := make([]value.Value, len(t.order))
		for i := range t.order {
			row[i] = t.defaults[i]
		}
		t.rows = append(t.rows, row)
		return nil
	}

	var built [][]value.Value
	if len(columnsToInsert) == 0 {
		for _, row := range rows {
			if len(row) > len(t.order) {
				return sqlerr.NewQueryError("too many values for table %s", t.Name)
			}
			full := make([]value.Value, len(t.order))
			copy(full, row)
			for i := len(row); i < len(t.order); i++ {
				if dv, ok := t.defaults[i]; ok {
					full[i] = dv
				} else {
					full[i] = value.Null
				}
			}
			built = append(built, full)
		}
	} else {
		resolved := make([]int, len(columnsToInsert))
		for i, c := range columnsToInsert {
			idx, _, err := t.Resolve(c)
			if err != nil {
				return err
			}
			resolved[i] = idx
		}
		for _, row := range rows {
			if len(row) > len(columnsToInsert) {
				return sqlerr.NewQueryError("too many values for table %s", t.Name)
			}
			full := make([]value.Value, len(t.order))
			set := make([]bool, len(t.order))
			for i := range full {
				full[i] = value.Null
			}
			for j, v := range row {
				full[resolved[j]] = v
				set[resolved[j]] = true
			}
			for i := range full {
				if !set[i] {
					if dv, ok := t.defaults[i]; ok {
						full[i] = dv
					}
				}
			}
			built = append(built, full)
		}
	}

	for _, row := range built {
		for i, v := range row {
			if !v.MatchesType(t.types[i]) {
				return sqlerr.NewSQLTypeError("value %v is not %s", v, t.types[i])
			}
		}
	}
	t.rows = append(t.rows, built...)
	return nil
}

// Assignment is one "column = value" pair from a SET clause.
type Assignment struct {
	Column string
	Value  value.Value
}

// Update implements 4.3's update algorithm: each assignment's type check
// gates only that assignment, per the Open Question decision in
// SPEC_FULL.md — not the original's row-index-confused check.
func (t *Table) Update(w *Where, assignments []Assignment) error {
	indices, err := t.matchingIndices(w)
	if err != nil {
		return err
	}
	resolved := make([]int, len(assignments))
	for i, a := range assignments {
		idx, _, err := t.Resolve(a.Column)
		if err != nil {
			return err
		}
		resolved[i] = idx
	}
	for _, rowIdx := range indices {
		for i, a := range assignments {
			if !a.Value.MatchesType(t.types[resolved[i]]) {
				return sqlerr.NewSQLTypeError("value %v is not %s", a.Value, t.types[resolved[i]])
			}
			t.rows[rowIdx][resolved[i]] = a.Value
		}
	}
	return nil
}

// Delete implements 4.3's delete algorithm.
func (t *Table) Delete(w *Where) error {
	if w == nil {
		t.rows = nil
		return nil
	}
	indices, err := t.matchingIndices(w)
	if err != nil {
		return err
	}
	remove := make(map[int]bool, len(indices))
	for _, i := range indices {
		remove[i] = true
	}
	kept := t.rows[:0:0]
	for i, row := range t.rows {
		if !remove[i] {
			kept = append(kept, row)
		}
	}
	t.rows = kept
	return nil
}

func (t *Table) matchingIndices(w *Where) ([]int, error) {
	if w == nil {
		indices := make([]int, len(t.rows))
		for i := range t.rows {
			indices[i] = i
		}
		return indices, nil
	}
	return t.Match(w)
}
