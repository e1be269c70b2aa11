package catalog

import (
	"github.com/snapsql/snapsql/table"
	"github.com/snapsql/snapsql/token"
	"github.com/snapsql/snapsql/value"
)

// Statement is any parsed top-level statement. The marker method keeps the
// set closed to this package's concrete statement types.
type Statement interface {
	statementNode()
}

type ColumnDef struct {
	Name    string
	Type    value.ColumnType
	Default *value.Value
}

type CreateTableStmt struct {
	Name        string
	IfNotExists bool
	Columns     []ColumnDef
}

type DropTableStmt struct {
	Name     string
	IfExists bool
}

type CreateViewStmt struct {
	Name  string
	Query []token.Item
}

type InsertStmt struct {
	Table         string
	Columns       []string
	Rows          [][]value.Value
	DefaultValues bool
}

type JoinClause struct {
	Table    string
	LeftKey  string
	RightKey string
}

type SelectStmt struct {
	Distinct    bool
	Projections []table.Projection
	From        string
	Join        *JoinClause
	Where       *table.Where
	OrderBy     []table.OrderKey
}

type UpdateStmt struct {
	Table       string
	Assignments []table.Assignment
	Where       *table.Where
}

type DeleteStmt struct {
	Table string
	Where *table.Where
}

type BeginStmt struct {
	Mode string // "D", "I", or "E"
}

type CommitStmt struct{}

type RollbackStmt struct{}

func (*CreateTableStmt) statementNode() {}
func (*DropTableStmt) statementNode()   {}
func (*CreateViewStmt) statementNode()  {}
func (*InsertStmt) statementNode()      {}
func (*SelectStmt) statementNode()      {}
func (*UpdateStmt) statementNode()      {}
func (*DeleteStmt) statementNode()      {}
func (*BeginStmt) statementNode()       {}
func (*CommitStmt) statementNode()      {}
func (*RollbackStmt) statementNode()    {}
