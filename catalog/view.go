package catalog

import (
	"github.com/snapsql/snapsql/collation"
	"github.com/snapsql/snapsql/sqlerr"
	"github.com/snapsql/snapsql/table"
	"github.com/snapsql/snapsql/token"
	"github.com/snapsql/snapsql/value"
)

// View stores the raw token list of its defining SELECT and re-executes it
// against the owning catalog on every access. Its "*" projection, if any,
// is expanded once at creation time against the underlying table as it
// existed then — not re-expanded on each later query, matching the
// original's View.__init__.
type View struct {
	name    string
	query   []token.Item
	columns []string
	subName string
	db      *Database
}

func newView(name string, query []token.Item, db *Database) (*View, error) {
	stmt, err := parseSelectQuery(query)
	if err != nil {
		return nil, err
	}
	underlying, ok := db.tables[stmt.From]
	if !ok {
		return nil, sqlerr.NewTableError("table %s does not exist", stmt.From)
	}
	var cols []string
	for _, p := range stmt.Projections {
		switch {
		case p.Star:
			cols = append(cols, underlying.Headers()...)
		default:
			cols = append(cols, p.Column)
		}
	}
	return &View{name: name, query: query, columns: cols, subName: stmt.From, db: db}, nil
}

// parseSelectQuery parses a raw SELECT token list (without requiring a
// trailing ';', since CREATE VIEW's AS clause carries one through from the
// defining statement) into a *SelectStmt.
func parseSelectQuery(items []token.Item) (*SelectStmt, error) {
	if len(items) == 0 || items[len(items)-1].Kind != token.Semicolon {
		items = append(append([]token.Item(nil), items...), token.Item{Kind: token.Semicolon, Value: ";"})
	}
	stmt, err := ParseStatement(items)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		return nil, sqlerr.NewQueryError("view query must be a SELECT statement")
	}
	return sel, nil
}

func (v *View) cloneInto(db *Database) *View {
	return &View{
		name:    v.name,
		query:   v.query,
		columns: append([]string(nil), v.columns...),
		subName: v.subName,
		db:      db,
	}
}

// Select re-executes the view's defining query against the current
// catalog, wraps the resulting rows in a fresh Table whose headers are the
// view's captured column list, and delegates the caller's request to that
// Table, exactly as the original View.select does.
func (v *View) Select(cols []table.Projection, orderBy []table.OrderKey, distinct bool, where *table.Where, reg *collation.Registry) ([][]value.Value, error) {
	rows, err := v.db.executeSelectTokens(v.query)
	if err != nil {
		return nil, err
	}
	relTables := []string{v.subName}
	for _, col := range v.columns {
		if idx := lastDotIndex(col); idx >= 0 {
			prefix := col[:idx]
			if !contains(relTables, prefix) {
				relTables = append(relTables, prefix)
			}
		}
	}
	materialized := table.NewWithHeaders(v.subName, v.columns, relTables)
	for _, row := range rows {
		materialized.AppendRow(row)
	}
	return materialized.Select(cols, orderBy, distinct, where, reg)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
