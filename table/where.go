package table

import (
	"github.com/snapsql/snapsql/sqlerr"
	"github.com/snapsql/snapsql/value"
)

// Where is a single "<column> <op> <value>" predicate — the only shape of
// filter this grammar supports (no conjunctions, no generalized
// expressions).
type Where struct {
	Column string
	Op     string
	Value  value.Value
}

// Match evaluates w against every stored row and returns the matching row
// indices, in order.
//
// IS/IS NOT require a Null right-hand side; any other value fails with
// QueryError, per Table.py's where(). A Null column always fails <, >, =
// (the row is excluded). != preserves the original's surprising quirk of
// matching every non-null row when compared against a Null literal, since
// the distilled specification is silent on this case and the original's
// behavior is the tie-breaker. < and > against a Null literal return "no
// match" instead of the original's uncaught crash.
func (t *Table) Match(w *Where) ([]int, error) {
	idx, _, err := t.Resolve(w.Column)
	if err != nil {
		return nil, err
	}
	switch w.Op {
	case "<", ">", "=", "!=", "IS", "IS NOT":
	default:
		return nil, sqlerr.NewQueryError("operator %q is not valid", w.Op)
	}
	if (w.Op == "IS" || w.Op == "IS NOT") && !w.Value.IsNull() {
		return nil, sqlerr.NewQueryError("IS/IS NOT must be followed by NULL")
	}

	var out []int
	for i, row := range t.rows {
		col := row[idx]
		var match bool
		switch w.Op {
		case "IS":
			match = col.IsNull()
		case "IS NOT":
			match = !col.IsNull()
		case ">":
			match = !col.IsNull() && !w.Value.IsNull() && value.Less(w.Value, col)
		case "<":
			match = !col.IsNull() && !w.Value.IsNull() && value.Less(col, w.Value)
		case "=":
			match = !col.IsNull() && !w.Value.IsNull() && value.Equal(col, w.Value)
		case "!=":
			if col.IsNull() {
				match = false
			} else if w.Value.IsNull() {
				match = true
			} else {
				match = !value.Equal(col, w.Value)
			}
		}
		if match {
			out = append(out, i)
		}
	}
	return out, nil
}
