package table

import (
	"github.com/snapsql/snapsql/collation"
	"github.com/snapsql/snapsql/sqlerr"
	"github.com/snapsql/snapsql/value"
)

// Agg identifies the aggregate, if any, applied to a projection item.
type Agg int

const (
	AggNone Agg = iota
	AggMin
	AggMax
)

// Projection is one item in a SELECT's column list: a bare "*", a
// "table.*", or a single (possibly aggregated) column reference.
type Projection struct {
	Star      bool
	TableStar string
	Column    string
	Agg       Agg
}

// expandProjections resolves "*" and "table.*" projections against t's headers,
// per 4.3.1 step 1.
func (t *Table) expandProjections(cols []Projection) ([]Projection, error) {
	var out []Projection
	for _, c := range cols {
		switch {
		case c.Star && c.TableStar == "":
			for _, h := range t.order {
				out = append(out, Projection{Column: h})
			}
		case c.TableStar != "":
			if !t.HasRelatedTable(c.TableStar) {
				return nil, sqlerr.NewQueryError("table %q is not part of the query", c.TableStar)
			}
			for _, h := range t.ColumnsOf(c.TableStar) {
				out = append(out, Projection{Column: h})
			}
		default:
			out = append(out, c)
		}
	}
	return out, nil
}

// Select implements 4.3.1's pipeline: projection expansion, WHERE
// filtering, DISTINCT, multi-key ORDER BY, then either aggregation or
// per-row projection.
func (t *Table) Select(cols []Projection, orderBy []OrderKey, distinct bool, where *Where, reg *collation.Registry) ([][]value.Value, error) {
	if t.RowCount() == 0 {
		return nil, nil
	}

	cols, err := t.expandProjections(cols)
	if err != nil {
		return nil, err
	}

	var rows [][]value.Value
	if where != nil {
		indices, err := t.Match(where)
		if err != nil {
			return nil, err
		}
		rows = make([][]value.Value, len(indices))
		for i, idx := range indices {
			rows[i] = t.rows[idx]
		}
	} else {
		rows = append([][]value.Value(nil), t.rows...)
	}

	if distinct {
		rows = dedupe(rows)
	}

	if len(orderBy) > 0 {
		keys, err := t.resolveOrderKeys(orderBy, reg)
		if err != nil {
			return nil, err
		}
		sortRows(rows, keys)
	}

	aggFound := false
	for _, c := range cols {
		if c.Agg != AggNone {
			aggFound = true
		}
	}
	if aggFound {
		for _, c := range cols {
			if c.Agg == AggNone {
				return nil, sqlerr.NewQueryError("cannot combine an aggregate with a non-aggregate projection")
			}
		}
		result := make([]value.Value, len(cols))
		for i, c := range cols {
			idx, _, err := t.Resolve(c.Column)
			if err != nil {
				return nil, err
			}
			var best value.Value
			found := false
			for _, row := range rows {
				v := row[idx]
				if v.IsNull() {
					continue
				}
				if !found {
					best, found = v, true
					continue
				}
				if c.Agg == AggMax && value.Less(best, v) {
					best = v
				}
				if c.Agg == AggMin && value.Less(v, best) {
					best = v
				}
			}
			if !found {
				best = value.Null
			}
			result[i] = best
		}
		return [][]value.Value{result}, nil
	}

	out := make([][]value.Value, len(rows))
	for i, row := range rows {
		record := make([]value.Value, len(cols))
		for j, c := range cols {
			idx, _, err := t.Resolve(c.Column)
			if err != nil {
				return nil, err
			}
			record[j] = row[idx]
		}
		out[i] = record
	}
	return out, nil
}

func dedupe(rows [][]value.Value) [][]value.Value {
	seen := make(map[string]bool, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		key := rowKey(row)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

func rowKey(row []value.Value) string {
	b := make([]byte, 0, len(row)*8)
	for _, v := range row {
		b = append(b, byte(v.Kind), 0)
		b = append(b, v.String()...)
		b = append(b, 0)
	}
	return string(b)
}
