package table

import (
	"sort"

	"github.com/snapsql/snapsql/collation"
	"github.com/snapsql/snapsql/sqlerr"
	"github.com/snapsql/snapsql/value"
)

// OrderKey is one ORDER BY term: a column reference, its direction, and an
// optional named collation.
type OrderKey struct {
	Column    string
	Desc      bool
	Collation string
}

// resolvedOrderKey pairs an OrderKey with its resolved column index and
// comparator, computed once before the sort runs.
type resolvedOrderKey struct {
	index int
	desc  bool
	cmp   func(a, b value.Value) int
}

func (t *Table) resolveOrderKeys(keys []OrderKey, reg *collation.Registry) ([]resolvedOrderKey, error) {
	out := make([]resolvedOrderKey, len(keys))
	for i, k := range keys {
		idx, qualified, err := t.Resolve(k.Column)
		if err != nil {
			return nil, err
		}
		cmp := value.Compare
		if k.Collation != "" {
			if t.types[idx] != value.KindText && t.types[idx] != value.KindNull {
				return nil, sqlerr.NewQueryError("COLLATE is only valid on a TEXT column, not %s", qualified)
			}
			c, err := reg.Lookup(k.Collation)
			if err != nil {
				return nil, err
			}
			cmp = c
		}
		out[i] = resolvedOrderKey{index: idx, desc: k.Desc, cmp: cmp}
	}
	return out, nil
}

// sortRows performs the multi-key ORDER BY sort described in 4.3.1: key 0
// orders the whole row list; key k>0 only reorders within runs that are
// equal on every key before it. A stable multi-key comparator sort
// produces the same observable ordering as the original's explicit
// duplicate-run re-sort, without reproducing its index bookkeeping.
func sortRows(rows [][]value.Value, keys []resolvedOrderKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(rows, func(a, b int) bool {
		for _, k := range keys {
			c := k.cmp(rows[a][k.index], rows[b][k.index])
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
