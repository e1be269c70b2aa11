// Package conn implements Connection: the statement-dispatch entry point
// that ties a token stream, a working catalog, and a lockmgr.Registry
// together into the execute/executemany/create_collation/close surface.
package conn

import (
	"fmt"
	"io"
	"strings"

	"github.com/snapsql/snapsql/catalog"
	"github.com/snapsql/snapsql/collation"
	"github.com/snapsql/snapsql/lexer"
	"github.com/snapsql/snapsql/lockmgr"
	"github.com/snapsql/snapsql/sqlerr"
	"github.com/snapsql/snapsql/value"
)

// Row is one result row: a SELECT's projected cells, in order.
type Row = []value.Value

// Connection is one logical session against a filename's published catalog.
// Connect's timeout and isolationLevel parameters are accepted for
// interface compatibility and otherwise ignored — the core has no
// cancellation or tunable isolation beyond the BEGIN modes.
type Connection struct {
	filename string
	registry *lockmgr.Registry

	autocommit bool
	modified   bool
	working    *catalog.Database
	locks      lockmgr.LockState

	// Trace, if set, receives one line per executed statement:
	// "<sql> -> <n> rows, err=<err>". Nil by default; this is the only
	// place anything in this module writes a line for a human to read.
	Trace io.Writer
}

// Connect opens a Connection against registry for filename. timeout and
// isolationLevel are accepted and ignored, matching the original core's
// own documented no-op treatment of both.
func Connect(registry *lockmgr.Registry, filename string, timeout, isolationLevel interface{}) (*Connection, error) {
	return &Connection{
		filename:   filename,
		registry:   registry,
		autocommit: true,
	}, nil
}

// Close is a no-op; there is nothing to release beyond what commit/rollback
// already release.
func (c *Connection) Close() error { return nil }

// Execute tokenizes and runs a single ';'-terminated statement, following
// the dispatch order: tokenize, acquire a fresh snapshot if autocommit,
// consult the lock manager, dispatch, and on autocommit publish and reset.
func (c *Connection) Execute(statement string) (rows []Row, err error) {
	defer func() {
		if c.Trace != nil {
			fmt.Fprintf(c.Trace, "%s -> %d rows, err=%v\n", statement, len(rows), err)
		}
	}()

	items, err := lexer.Lex(statement)
	if err != nil {
		return nil, err
	}

	stmt, err := catalog.ParseStatement(items)
	if err != nil {
		return nil, err
	}

	// BEGIN/COMMIT/ROLLBACK manage the working snapshot and autocommit
	// flag themselves; they never pass through the generic
	// snapshot-then-publish wrapping below, which would otherwise
	// re-publish (or publish a nil) catalog right after one of them
	// flips autocommit back on.
	switch s := stmt.(type) {
	case *catalog.BeginStmt:
		return nil, c.begin(s)
	case *catalog.CommitStmt:
		return nil, c.commit()
	case *catalog.RollbackStmt:
		return nil, c.rollback()
	}

	if c.autocommit {
		c.working = c.registry.Published(c.filename)
		c.modified = false
	}

	rows, err = c.dispatch(stmt)
	if err != nil {
		if c.autocommit {
			c.registry.Release(c.filename, &c.locks)
		}
		return nil, err
	}

	if c.autocommit {
		if c.modified {
			if lockErr := c.registry.AcquireExclusive(c.filename, &c.locks); lockErr != nil {
				return nil, lockErr
			}
		}
		c.registry.Publish(c.filename, c.working, &c.locks)
		c.modified = false
	}
	return rows, nil
}

// dispatch runs stmt against the working catalog. Every error coming back
// out of the catalog is annotated with the statement kind and target table,
// so a caller several frames up (or a Trace log line) sees where in the
// dispatch chain the failure originated rather than a bare catalog message.
func (c *Connection) dispatch(stmt catalog.Statement) ([]Row, error) {
	switch s := stmt.(type) {
	case *catalog.CreateTableStmt:
		return nil, sqlerr.Annotate(c.working.CreateTable(s), "CREATE TABLE "+s.Name)
	case *catalog.DropTableStmt:
		return nil, sqlerr.Annotate(c.working.DropTable(s), "DROP TABLE "+s.Name)
	case *catalog.CreateViewStmt:
		return nil, sqlerr.Annotate(c.working.CreateView(s), "CREATE VIEW "+s.Name)
	case *catalog.InsertStmt:
		if err := c.registry.AcquireReserved(c.filename, &c.locks); err != nil {
			return nil, sqlerr.Annotate(err, "INSERT INTO "+s.Table)
		}
		c.modified = true
		return nil, sqlerr.Annotate(c.working.Insert(s), "INSERT INTO "+s.Table)
	case *catalog.UpdateStmt:
		if err := c.registry.AcquireReserved(c.filename, &c.locks); err != nil {
			return nil, sqlerr.Annotate(err, "UPDATE "+s.Table)
		}
		c.modified = true
		return nil, sqlerr.Annotate(c.working.Update(s), "UPDATE "+s.Table)
	case *catalog.DeleteStmt:
		if err := c.registry.AcquireReserved(c.filename, &c.locks); err != nil {
			return nil, sqlerr.Annotate(err, "DELETE FROM "+s.Table)
		}
		c.modified = true
		return nil, sqlerr.Annotate(c.working.Delete(s), "DELETE FROM "+s.Table)
	case *catalog.SelectStmt:
		if err := c.registry.AcquireShared(c.filename, &c.locks); err != nil {
			return nil, sqlerr.Annotate(err, "SELECT FROM "+s.From)
		}
		rows, err := c.working.Select(s)
		return rows, sqlerr.Annotate(err, "SELECT FROM "+s.From)
	default:
		return nil, sqlerr.NewCommandError("command not recognized")
	}
}

func (c *Connection) begin(stmt *catalog.BeginStmt) error {
	if !c.autocommit {
		return sqlerr.NewTransactionError("cannot begin a transaction within a transaction")
	}
	c.autocommit = false
	c.working = c.registry.Published(c.filename)
	c.modified = false
	switch stmt.Mode {
	case "I":
		if err := c.registry.AcquireReserved(c.filename, &c.locks); err != nil {
			c.autocommit = true
			return err
		}
	case "E":
		if err := c.registry.AcquireExclusive(c.filename, &c.locks); err != nil {
			c.autocommit = true
			return err
		}
	}
	return nil
}

func (c *Connection) commit() error {
	if c.autocommit {
		return sqlerr.NewTransactionError("no transaction is active")
	}
	if c.modified {
		if err := c.registry.AcquireExclusive(c.filename, &c.locks); err != nil {
			return err
		}
	}
	c.registry.Publish(c.filename, c.working, &c.locks)
	c.autocommit = true
	c.modified = false
	return nil
}

func (c *Connection) rollback() error {
	if c.autocommit {
		return sqlerr.NewTransactionError("no transaction is active")
	}
	c.registry.Release(c.filename, &c.locks)
	c.working = nil
	c.autocommit = true
	c.modified = false
	return nil
}

// ExecuteMany performs purely textual parameter substitution: it locates
// the VALUES clause's parenthesized template and, for each row, replaces
// '?' left to right with the row value's textual or single-quoted form,
// then runs the assembled multi-row INSERT once. No type checking happens
// here; the Table validates on Insert, matching the original's division of
// responsibility.
func (c *Connection) ExecuteMany(statement string, rowsParams [][]value.Value) ([]Row, error) {
	valuesIdx := strings.Index(strings.ToUpper(statement), "VALUES")
	if valuesIdx < 0 {
		return nil, sqlerr.NewQueryError("executemany requires a VALUES clause")
	}
	open := strings.Index(statement[valuesIdx:], "(")
	shut := strings.Index(statement[valuesIdx:], ")")
	if open < 0 || shut < 0 || shut < open {
		return nil, sqlerr.NewQueryError("executemany requires a parenthesized VALUES template")
	}
	template := statement[valuesIdx+open : valuesIdx+shut+1]
	prefix := statement[:valuesIdx+len("VALUES")+1]
	var rendered []string
	for _, params := range rowsParams {
		rendered = append(rendered, substitutePlaceholders(template, params))
	}
	assembled := prefix + strings.Join(rendered, ", ") + statement[valuesIdx+shut+1:]
	return c.Execute(assembled)
}

func substitutePlaceholders(template string, params []value.Value) string {
	var b strings.Builder
	i := 0
	for _, r := range template {
		if r == '?' && i < len(params) {
			b.WriteString(literalText(params[i]))
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func literalText(v value.Value) string {
	switch v.Kind {
	case value.KindText:
		return "'" + strings.ReplaceAll(v.T, "'", "''") + "'"
	case value.KindNull:
		return "NULL"
	default:
		return v.String()
	}
}

// CreateCollation registers a comparator under name in the working catalog
// and immediately republishes, since collations are treated as schema
// rather than transactional data: other connections on the same filename
// must see it right away regardless of the publishing connection's
// transaction state.
func (c *Connection) CreateCollation(name string, cmp collation.Comparator) error {
	if c.autocommit {
		c.working = c.registry.Published(c.filename)
	}
	c.working.Collations.Register(name, cmp)
	c.registry.Publish(c.filename, c.working.Clone(), &lockmgr.LockState{})
	return nil
}
