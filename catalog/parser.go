package catalog

import (
	"strconv"

	"github.com/snapsql/snapsql/sqlerr"
	"github.com/snapsql/snapsql/table"
	"github.com/snapsql/snapsql/token"
	"github.com/snapsql/snapsql/value"
)

// cursor walks a token stream with peek/consume helpers, in the style the
// spec's Design Notes ask for in place of the original's raw positional
// indexing.
type cursor struct {
	items []token.Item
	pos   int
}

func newCursor(items []token.Item) *cursor { return &cursor{items: items} }

func (c *cursor) peek() token.Item {
	if c.pos >= len(c.items) {
		return token.Item{Kind: token.EOF}
	}
	return c.items[c.pos]
}

func (c *cursor) peekAt(offset int) token.Item {
	i := c.pos + offset
	if i >= len(c.items) {
		return token.Item{Kind: token.EOF}
	}
	return c.items[i]
}

func (c *cursor) next() token.Item {
	it := c.peek()
	c.pos++
	return it
}

func (c *cursor) atEnd() bool { return c.pos >= len(c.items) }

func (c *cursor) isWord(word string) bool { return c.peek().Is(word) }

func (c *cursor) isWordAt(offset int, word string) bool { return c.peekAt(offset).Is(word) }

func (c *cursor) expectKind(k token.Kind) (token.Item, error) {
	it := c.peek()
	if it.Kind != k {
		return it, sqlerr.NewQueryError("unexpected token %q, want kind %s", it.Value, k)
	}
	return c.next(), nil
}

func (c *cursor) expectWord(word string) error {
	if !c.isWord(word) {
		return sqlerr.NewQueryError("expected %q, found %q", word, c.peek().Value)
	}
	c.next()
	return nil
}

func (c *cursor) consumeKind(k token.Kind) bool {
	if c.peek().Kind == k {
		c.next()
		return true
	}
	return false
}

// parseValue reads a single literal: a quoted string, an integer, a real,
// or NULL.
func (c *cursor) parseValue() (value.Value, error) {
	it := c.peek()
	switch it.Kind {
	case token.Quote:
		c.next()
		body, err := c.expectKind(token.Text)
		if err != nil {
			return value.Null, err
		}
		if _, err := c.expectKind(token.Quote); err != nil {
			return value.Null, err
		}
		return value.Text(body.Value), nil
	case token.Integer:
		c.next()
		n, err := strconv.ParseInt(it.Value, 10, 64)
		if err != nil {
			return value.Null, sqlerr.NewQueryError("invalid integer literal %q", it.Value)
		}
		return value.Integer(n), nil
	case token.Real:
		c.next()
		f, err := strconv.ParseFloat(it.Value, 64)
		if err != nil {
			return value.Null, sqlerr.NewQueryError("invalid real literal %q", it.Value)
		}
		return value.Real(f), nil
	case token.Null:
		c.next()
		return value.Null, nil
	default:
		return value.Null, sqlerr.NewQueryError("expected a value, found %q", it.Value)
	}
}

// ParseStatement parses the token list of one already-lexed SQL statement,
// checking that it ends in ';' per the original tokenizer's own contract.
func ParseStatement(items []token.Item) (Statement, error) {
	if len(items) == 0 || items[len(items)-1].Kind != token.Semicolon {
		return nil, sqlerr.NewQueryError("query missing ';' at the end")
	}
	c := newCursor(items)

	switch {
	case c.isWord("BEGIN"):
		return parseBegin(c)
	case c.isWord("COMMIT") && c.isWordAt(1, "TRANSACTION"):
		c.next()
		c.next()
		return &CommitStmt{}, nil
	case c.isWord("ROLLBACK") && c.isWordAt(1, "TRANSACTION"):
		c.next()
		c.next()
		return &RollbackStmt{}, nil
	case c.isWord("CREATE") && c.isWordAt(1, "TABLE"):
		return parseCreateTable(c)
	case c.isWord("DROP") && c.isWordAt(1, "TABLE"):
		return parseDropTable(c)
	case c.isWord("CREATE") && c.isWordAt(1, "VIEW"):
		return parseCreateView(c)
	case c.isWord("INSERT") && c.isWordAt(1, "INTO"):
		return parseInsert(c)
	case c.isWord("SELECT"):
		return parseSelect(c)
	case c.isWord("UPDATE") && c.isWordAt(2, "SET"):
		return parseUpdate(c)
	case c.isWord("DELETE") && c.isWordAt(1, "FROM"):
		return parseDelete(c)
	default:
		return nil, sqlerr.NewCommandError("command not recognized")
	}
}

func parseBegin(c *cursor) (Statement, error) {
	c.next() // BEGIN
	mode := "D"
	switch {
	case c.isWord("TRANSACTION"):
		c.next()
	case c.isWord("DEFERRED") && c.isWordAt(1, "TRANSACTION"):
		c.next()
		c.next()
	case c.isWord("IMMEDIATE") && c.isWordAt(1, "TRANSACTION"):
		c.next()
		c.next()
		mode = "I"
	case c.isWord("EXCLUSIVE") && c.isWordAt(1, "TRANSACTION"):
		c.next()
		c.next()
		mode = "E"
	default:
		return nil, sqlerr.NewQueryError("invalid BEGIN statement")
	}
	return &BeginStmt{Mode: mode}, nil
}

func parseCreateTable(c *cursor) (Statement, error) {
	c.next() // CREATE
	c.next() // TABLE
	ifNotExists := false
	if c.isWord("IF") && c.isWordAt(1, "NOT") && c.isWordAt(2, "EXISTS") {
		c.next()
		c.next()
		c.next()
		ifNotExists = true
	}
	name, err := c.expectKind(token.Word)
	if err != nil {
		return nil, err
	}
	if err := c.expectKind1(token.LParen); err != nil {
		return nil, err
	}
	var cols []ColumnDef
	for {
		colName, err := c.expectKind(token.Word)
		if err != nil {
			return nil, err
		}
		typeTok, err := c.expectKind(token.Word)
		if err != nil {
			return nil, err
		}
		ct, ok := value.ParseColumnType(typeTok.Value)
		if !ok {
			return nil, sqlerr.NewSQLTypeError("type %q not recognized by SQL", typeTok.Value)
		}
		def := ColumnDef{Name: colName.Value, Type: ct}
		if c.isWord("DEFAULT") {
			c.next()
			v, err := c.parseValue()
			if err != nil {
				return nil, err
			}
			def.Default = &v
		}
		cols = append(cols, def)
		if c.consumeKind(token.Comma) {
			continue
		}
		break
	}
	if err := c.expectKind1(token.RParen); err != nil {
		return nil, err
	}
	if _, err := c.expectKind(token.Semicolon); err != nil {
		return nil, err
	}
	return &CreateTableStmt{Name: name.Value, IfNotExists: ifNotExists, Columns: cols}, nil
}

func (c *cursor) expectKind1(k token.Kind) error {
	_, err := c.expectKind(k)
	return err
}

func parseDropTable(c *cursor) (Statement, error) {
	c.next() // DROP
	c.next() // TABLE
	ifExists := false
	if c.isWord("IF") && c.isWordAt(1, "EXISTS") {
		c.next()
		c.next()
		ifExists = true
	}
	name, err := c.expectKind(token.Word)
	if err != nil {
		return nil, sqlerr.NewQueryError("must provide a table name to drop")
	}
	if _, err := c.expectKind(token.Semicolon); err != nil {
		return nil, err
	}
	return &DropTableStmt{Name: name.Value, IfExists: ifExists}, nil
}

func parseCreateView(c *cursor) (Statement, error) {
	c.next() // CREATE
	c.next() // VIEW
	name, err := c.expectKind(token.Word)
	if err != nil {
		return nil, err
	}
	if err := c.expectWord("AS"); err != nil {
		return nil, err
	}
	query := c.items[c.pos:]
	return &CreateViewStmt{Name: name.Value, Query: query}, nil
}

func parseColumnList(c *cursor) ([]string, error) {
	var cols []string
	if c.consumeKind(token.LParen) {
		for {
			col, err := c.expectKind(token.Word)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col.Value)
			if c.consumeKind(token.Comma) {
				continue
			}
			break
		}
		if err := c.expectKind1(token.RParen); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

func parseInsert(c *cursor) (Statement, error) {
	c.next() // INSERT
	c.next() // INTO
	name, err := c.expectKind(token.Word)
	if err != nil {
		return nil, err
	}
	if c.isWord("DEFAULT") && c.isWordAt(1, "VALUES") {
		c.next()
		c.next()
		if _, err := c.expectKind(token.Semicolon); err != nil {
			return nil, err
		}
		return &InsertStmt{Table: name.Value, DefaultValues: true}, nil
	}
	cols, err := parseColumnList(c)
	if err != nil {
		return nil, err
	}
	if err := c.expectWord("VALUES"); err != nil {
		return nil, sqlerr.NewQueryError("can't perform INSERT statement")
	}
	var rows [][]value.Value
	for {
		if err := c.expectKind1(token.LParen); err != nil {
			return nil, sqlerr.NewQueryError("can't find '(' to start INSERT row")
		}
		var row []value.Value
		for {
			v, err := c.parseValue()
			if err != nil {
				return nil, err
			}
			row = append(row, v)
			if c.consumeKind(token.Comma) {
				continue
			}
			break
		}
		if err := c.expectKind1(token.RParen); err != nil {
			return nil, sqlerr.NewQueryError("can't find ')' to end INSERT statement")
		}
		rows = append(rows, row)
		if c.consumeKind(token.Comma) {
			continue
		}
		break
	}
	if _, err := c.expectKind(token.Semicolon); err != nil {
		return nil, sqlerr.NewQueryError("missing ',' separator in value list")
	}
	return &InsertStmt{Table: name.Value, Columns: cols, Rows: rows}, nil
}

func parseWhere(c *cursor) (*table.Where, error) {
	left, err := c.expectKind(token.Word)
	if err != nil {
		return nil, err
	}
	op, err := parseOperator(c)
	if err != nil {
		return nil, err
	}
	val, err := c.parseValue()
	if err != nil {
		return nil, err
	}
	return &table.Where{Column: left.Value, Op: op, Value: val}, nil
}

func parseOperator(c *cursor) (string, error) {
	it := c.peek()
	switch it.Kind {
	case token.Op:
		c.next()
		return it.Value, nil
	case token.Equals:
		c.next()
		return "=", nil
	default:
		return "", sqlerr.NewQueryError("expected an operator, found %q", it.Value)
	}
}

func parseUpdate(c *cursor) (Statement, error) {
	c.next() // UPDATE
	name, err := c.expectKind(token.Word)
	if err != nil {
		return nil, err
	}
	if err := c.expectWord("SET"); err != nil {
		return nil, err
	}
	var assignments []table.Assignment
	for {
		col, err := c.expectKind(token.Word)
		if err != nil {
			return nil, err
		}
		if _, err := c.expectKind(token.Equals); err != nil {
			return nil, sqlerr.NewQueryError("invalid SET command, need '=' operator")
		}
		v, err := c.parseValue()
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, table.Assignment{Column: col.Value, Value: v})
		if c.consumeKind(token.Comma) {
			continue
		}
		break
	}
	var where *table.Where
	if c.isWord("WHERE") {
		c.next()
		where, err = parseWhere(c)
		if err != nil {
			return nil, err
		}
	}
	if _, err := c.expectKind(token.Semicolon); err != nil {
		return nil, sqlerr.NewQueryError("missing ';' at the end of update statement")
	}
	return &UpdateStmt{Table: name.Value, Assignments: assignments, Where: where}, nil
}

func parseDelete(c *cursor) (Statement, error) {
	c.next() // DELETE
	c.next() // FROM
	name, err := c.expectKind(token.Word)
	if err != nil {
		return nil, err
	}
	var where *table.Where
	if c.isWord("WHERE") {
		c.next()
		where, err = parseWhere(c)
		if err != nil {
			return nil, err
		}
		if _, err := c.expectKind(token.Semicolon); err != nil {
			return nil, sqlerr.NewQueryError("delete statement missing ';'")
		}
	} else if _, err := c.expectKind(token.Semicolon); err != nil {
		return nil, sqlerr.NewQueryError("invalid delete statement")
	}
	return &DeleteStmt{Table: name.Value, Where: where}, nil
}

func parseSelect(c *cursor) (Statement, error) {
	c.next() // SELECT
	distinct := false
	if c.isWord("DISTINCT") {
		distinct = true
		c.next()
	}
	var projections []table.Projection
	for !c.isWord("FROM") {
		if c.consumeKind(token.Comma) {
			continue
		}
		if (c.isWord("max") || c.isWord("min")) && c.peekAt(1).Kind == token.LParen {
			agg := table.AggMin
			if c.isWord("max") {
				agg = table.AggMax
			}
			c.next()
			c.next() // (
			col, err := c.expectKind(token.Word)
			if err != nil {
				return nil, err
			}
			if err := c.expectKind1(token.RParen); err != nil {
				return nil, err
			}
			projections = append(projections, table.Projection{Column: col.Value, Agg: agg})
			continue
		}
		item, err := c.expectKind(token.Word)
		if err != nil {
			return nil, sqlerr.NewQueryError("missing comma separator in projection list")
		}
		if item.Value == "*" {
			projections = append(projections, table.Projection{Star: true})
			continue
		}
		if idx := lastDotIndex(item.Value); idx >= 0 && item.Value[idx+1:] == "*" {
			projections = append(projections, table.Projection{TableStar: item.Value[:idx]})
			continue
		}
		projections = append(projections, table.Projection{Column: item.Value})
	}
	c.next() // FROM
	fromName, err := c.expectKind(token.Word)
	if err != nil {
		return nil, err
	}

	stmt := &SelectStmt{Distinct: distinct, Projections: projections, From: fromName.Value}

	for !c.atEnd() && c.peek().Kind != token.Semicolon {
		switch {
		case c.isWord("LEFT") && c.isWordAt(1, "OUTER") && c.isWordAt(2, "JOIN"):
			c.next()
			c.next()
			c.next()
			join, err := parseJoin(c)
			if err != nil {
				return nil, err
			}
			stmt.Join = join
		case c.isWord("WHERE"):
			c.next()
			w, err := parseWhere(c)
			if err != nil {
				return nil, err
			}
			stmt.Where = w
		case c.isWord("ORDER") && c.isWordAt(1, "BY"):
			c.next()
			c.next()
			keys, err := parseOrderBy(c)
			if err != nil {
				return nil, err
			}
			stmt.OrderBy = keys
		default:
			return nil, sqlerr.NewQueryError("invalid query, stuck at token %q", c.peek().Value)
		}
	}
	if _, err := c.expectKind(token.Semicolon); err != nil {
		return nil, err
	}
	return stmt, nil
}

func parseJoin(c *cursor) (*JoinClause, error) {
	joinTable, err := c.expectKind(token.Word)
	if err != nil {
		return nil, err
	}
	if err := c.expectWord("ON"); err != nil {
		return nil, sqlerr.NewQueryError("need a key to join on")
	}
	left, err := c.expectKind(token.Word)
	if err != nil {
		return nil, err
	}
	if _, err := c.expectKind(token.Equals); err != nil {
		return nil, sqlerr.NewQueryError("need a key to join on")
	}
	right, err := c.expectKind(token.Word)
	if err != nil {
		return nil, err
	}
	if left.Value == right.Value {
		return nil, sqlerr.NewQueryError("joining keys can't be the same key")
	}
	return &JoinClause{Table: joinTable.Value, LeftKey: left.Value, RightKey: right.Value}, nil
}

func parseOrderBy(c *cursor) ([]table.OrderKey, error) {
	var keys []table.OrderKey
	for {
		col, err := c.expectKind(token.Word)
		if err != nil {
			return nil, err
		}
		key := table.OrderKey{Column: col.Value}
		if c.isWord("COLLATE") {
			c.next()
			collateName, err := c.expectKind(token.Word)
			if err != nil {
				return nil, err
			}
			key.Collation = collateName.Value
		}
		if c.isWord("DESC") {
			key.Desc = true
			c.next()
		} else if c.isWord("ASC") {
			c.next()
		}
		keys = append(keys, key)
		if c.consumeKind(token.Comma) {
			continue
		}
		break
	}
	return keys, nil
}

func lastDotIndex(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}
