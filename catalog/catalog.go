// Package catalog implements the named collection of tables, views and
// collations for a single filename, the statement parser, and execution of
// every supported statement against that collection.
package catalog

import (
	"github.com/snapsql/snapsql/collation"
	"github.com/snapsql/snapsql/sqlerr"
	"github.com/snapsql/snapsql/table"
	"github.com/snapsql/snapsql/value"
)

// relation is satisfied by both *table.Table and *View: anything the
// catalog can route a SELECT to.
type relation interface {
	Select(cols []table.Projection, orderBy []table.OrderKey, distinct bool, where *table.Where, reg *collation.Registry) ([][]value.Value, error)
}

// Database is a named catalog of tables, views, and collations. It is a
// value-type snapshot: transactions acquire an independent Clone.
type Database struct {
	Name       string
	tables     map[string]*table.Table
	views      map[string]*View
	Collations *collation.Registry
}

// New returns an empty catalog for filename name, seeded with the built-in
// collations.
func New(name string) *Database {
	return &Database{
		Name:       name,
		tables:     make(map[string]*table.Table),
		views:      make(map[string]*View),
		Collations: collation.NewRegistry(),
	}
}

// Clone returns an independent deep copy, rebinding each cloned view's
// catalog back-reference to the new Database rather than the original —
// Go has no automatic cycle-aware deep copy the way Python's
// copy.deepcopy provides.
func (db *Database) Clone() *Database {
	out := &Database{
		Name:       db.Name,
		tables:     make(map[string]*table.Table, len(db.tables)),
		views:      make(map[string]*View, len(db.views)),
		Collations: db.Collations.Clone(),
	}
	for name, t := range db.tables {
		out.tables[name] = t.Clone()
	}
	for name, v := range db.views {
		out.views[name] = v.cloneInto(out)
	}
	return out
}

func (db *Database) exists(name string) bool {
	if _, ok := db.tables[name]; ok {
		return true
	}
	_, ok := db.views[name]
	return ok
}

// CreateTable implements CREATE TABLE [IF NOT EXISTS].
func (db *Database) CreateTable(stmt *CreateTableStmt) error {
	if db.exists(stmt.Name) {
		if stmt.IfNotExists {
			return nil
		}
		return sqlerr.NewTableError("table %s already exists", stmt.Name)
	}
	cols := make([]table.Column, len(stmt.Columns))
	for i, c := range stmt.Columns {
		cols[i] = table.Column{Name: c.Name, Type: c.Type, Default: c.Default}
	}
	t, err := table.New(stmt.Name, cols)
	if err != nil {
		return sqlerr.Trace(err)
	}
	db.tables[stmt.Name] = t
	return nil
}

// DropTable implements DROP TABLE [IF EXISTS].
func (db *Database) DropTable(stmt *DropTableStmt) error {
	if !db.exists(stmt.Name) {
		if stmt.IfExists {
			return nil
		}
		return sqlerr.NewTableError("table %s does not exist", stmt.Name)
	}
	delete(db.tables, stmt.Name)
	delete(db.views, stmt.Name)
	return nil
}

// CreateView implements CREATE VIEW name AS <select>.
func (db *Database) CreateView(stmt *CreateViewStmt) error {
	if db.exists(stmt.Name) {
		return sqlerr.NewTableError("table %s already exists", stmt.Name)
	}
	v, err := newView(stmt.Name, stmt.Query, db)
	if err != nil {
		return sqlerr.Trace(err)
	}
	db.views[stmt.Name] = v
	return nil
}

// Insert implements INSERT INTO.
func (db *Database) Insert(stmt *InsertStmt) error {
	t, ok := db.tables[stmt.Table]
	if !ok {
		return sqlerr.NewTableError("table %s does not exist", stmt.Table)
	}
	return sqlerr.Trace(t.Insert(stmt.Rows, stmt.Columns, stmt.DefaultValues))
}

// Update implements UPDATE ... SET ... [WHERE ...].
func (db *Database) Update(stmt *UpdateStmt) error {
	t, ok := db.tables[stmt.Table]
	if !ok {
		return sqlerr.NewTableError("table %s does not exist", stmt.Table)
	}
	return sqlerr.Trace(t.Update(stmt.Where, stmt.Assignments))
}

// Delete implements DELETE FROM ... [WHERE ...].
func (db *Database) Delete(stmt *DeleteStmt) error {
	t, ok := db.tables[stmt.Table]
	if !ok {
		return sqlerr.NewTableError("table %s does not exist", stmt.Table)
	}
	return sqlerr.Trace(t.Delete(stmt.Where))
}
