package catalog

import (
	"github.com/snapsql/snapsql/sqlerr"
	"github.com/snapsql/snapsql/table"
	"github.com/snapsql/snapsql/token"
	"github.com/snapsql/snapsql/value"
)

func (db *Database) relation(name string) (relation, error) {
	if t, ok := db.tables[name]; ok {
		return t, nil
	}
	if v, ok := db.views[name]; ok {
		return v, nil
	}
	return nil, sqlerr.NewTableError("table %s does not exist", name)
}

// Select implements SELECT, including materializing and disposing of an
// ephemeral LEFT OUTER JOIN result table per 4.5.1.
func (db *Database) Select(stmt *SelectStmt) ([][]value.Value, error) {
	from := stmt.From
	var joinName string
	if stmt.Join != nil {
		name, err := db.buildJoin(stmt.From, stmt.Join)
		if err != nil {
			return nil, err
		}
		from = name
		joinName = name
	}
	rel, err := db.relation(from)
	if err != nil {
		return nil, err
	}
	rows, err := rel.Select(stmt.Projections, stmt.OrderBy, stmt.Distinct, stmt.Where, db.Collations)
	if joinName != "" {
		delete(db.tables, joinName)
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// executeSelectTokens parses and runs a raw SELECT token list, used by
// View.Select to re-run its defining query on every access.
func (db *Database) executeSelectTokens(items []token.Item) ([][]value.Value, error) {
	stmt, err := parseSelectQuery(items)
	if err != nil {
		return nil, err
	}
	return db.Select(stmt)
}

// buildJoin implements 4.5.1: materialize both sides, build the merged
// header table under a fresh JOIN<n> name, and populate it with
// first-match left-outer-join rows.
func (db *Database) buildJoin(leftName string, j *JoinClause) (string, error) {
	left, ok := db.tables[leftName]
	if !ok {
		return "", sqlerr.NewTableError("table %s does not exist", leftName)
	}
	right, ok := db.tables[j.Table]
	if !ok {
		return "", sqlerr.NewTableError("table %s does not exist", j.Table)
	}

	var joinName string
	for n := 1; ; n++ {
		joinName = joinNameFor(n)
		if _, exists := db.tables[joinName]; !exists {
			break
		}
	}

	joined := table.NewJoin(joinName, left, right)

	var leftIdx, rightIdx int
	if li, _, e1 := left.Resolve(j.LeftKey); e1 == nil {
		if ri, _, e2 := right.Resolve(j.RightKey); e2 == nil {
			leftIdx, rightIdx = li, ri
		} else {
			return "", sqlerr.NewQueryError("can't join tables based on keys provided")
		}
	} else if li, _, e1 := right.Resolve(j.LeftKey); e1 == nil {
		if ri, _, e2 := left.Resolve(j.RightKey); e2 == nil {
			leftIdx, rightIdx = ri, li
		} else {
			return "", sqlerr.NewQueryError("can't join tables based on keys provided")
		}
	} else {
		return "", sqlerr.NewQueryError("can't join tables based on keys provided")
	}

	for _, lrow := range left.Rows() {
		key := lrow[leftIdx]
		matched := false
		if !key.IsNull() {
			for _, rrow := range right.Rows() {
				if value.Equal(key, rrow[rightIdx]) {
					joined.AppendRow(concatRows(lrow, rrow))
					matched = true
					break
				}
			}
		}
		if !matched {
			joined.AppendRow(concatRows(lrow, nullRow(right.Width())))
		}
	}

	db.tables[joinName] = joined
	return joinName, nil
}

func joinNameFor(n int) string {
	const digits = "0123456789"
	if n < 10 {
		return "JOIN" + string(digits[n])
	}
	// n won't realistically exceed single digits given one join per
	// SELECT, but avoid silently truncating if it ever does.
	var buf []byte
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return "JOIN" + string(buf)
}

func concatRows(a, b []value.Value) []value.Value {
	out := make([]value.Value, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

func nullRow(width int) []value.Value {
	out := make([]value.Value, width)
	for i := range out {
		out[i] = value.Null
	}
	return out
}
