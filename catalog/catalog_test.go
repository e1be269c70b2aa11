package catalog

import (
	"testing"

	"github.com/kr/pretty"
	"gopkg.in/yaml.v3"

	"github.com/snapsql/snapsql/lexer"
	"github.com/snapsql/snapsql/value"
)

// assertRows compares got against want cell by cell and, on mismatch,
// prints a pretty.Diff of the two row sets rather than a single opaque
// %v dump.
func assertRows(t *testing.T, got, want [][]value.Value) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("row count = %d, want %d\n%s", len(got), len(want), pretty.Sprint(got))
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("row %d width mismatch:\n%s", i, pretty.Diff(got[i], want[i]))
		}
		for j := range want[i] {
			if !value.Equal(got[i][j], want[i][j]) && !(got[i][j].IsNull() && want[i][j].IsNull()) {
				t.Fatalf("row %d cell %d mismatch:\n%s", i, j, pretty.Diff(got, want))
			}
		}
	}
}

func exec(t *testing.T, db *Database, sql string) ([][]value.Value, error) {
	t.Helper()
	items, err := lexer.Lex(sql)
	if err != nil {
		t.Fatalf("Lex(%q): %v", sql, err)
	}
	stmt, err := ParseStatement(items)
	if err != nil {
		return nil, err
	}
	switch s := stmt.(type) {
	case *CreateTableStmt:
		return nil, db.CreateTable(s)
	case *DropTableStmt:
		return nil, db.DropTable(s)
	case *CreateViewStmt:
		return nil, db.CreateView(s)
	case *InsertStmt:
		return nil, db.Insert(s)
	case *UpdateStmt:
		return nil, db.Update(s)
	case *DeleteStmt:
		return nil, db.Delete(s)
	case *SelectStmt:
		return db.Select(s)
	default:
		t.Fatalf("unexpected statement type %T", s)
		return nil, nil
	}
}

func TestRoundTrip(t *testing.T) {
	db := New("test")
	mustExec(t, db, "CREATE TABLE t(a INTEGER, b TEXT);")
	mustExec(t, db, "INSERT INTO t VALUES (1,'x');")
	rows, err := exec(t, db, "SELECT * FROM t;")
	if err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	assertRows(t, rows, [][]value.Value{{value.Integer(1), value.Text("x")}})
}

func TestDropTableIfExistsIdempotent(t *testing.T) {
	db := New("test")
	if _, err := exec(t, db, "DROP TABLE IF EXISTS t;"); err != nil {
		t.Fatalf("first drop: %v", err)
	}
	mustExec(t, db, "CREATE TABLE t(a INTEGER);")
	if _, err := exec(t, db, "DROP TABLE IF EXISTS t;"); err != nil {
		t.Fatalf("second drop: %v", err)
	}
}

func TestDefaultOnPartialInsert(t *testing.T) {
	db := New("test")
	mustExec(t, db, "CREATE TABLE t(a INTEGER, b INTEGER DEFAULT 7);")
	mustExec(t, db, "INSERT INTO t (a) VALUES (1);")
	rows, err := exec(t, db, "SELECT * FROM t;")
	if err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	assertRows(t, rows, [][]value.Value{{value.Integer(1), value.Integer(7)}})
}

func TestCreateTableDuplicateFails(t *testing.T) {
	db := New("test")
	mustExec(t, db, "CREATE TABLE t(a INTEGER);")
	if _, err := exec(t, db, "CREATE TABLE t(a INTEGER);"); err == nil {
		t.Fatal("expected a TableError for a duplicate CREATE TABLE")
	}
}

func TestCreateViewSelectsThroughUnderlyingTable(t *testing.T) {
	db := New("test")
	mustExec(t, db, "CREATE TABLE t(a INTEGER, b TEXT);")
	mustExec(t, db, "INSERT INTO t VALUES (1,'x');")
	mustExec(t, db, "INSERT INTO t VALUES (2,'y');")
	mustExec(t, db, "CREATE VIEW v AS SELECT * FROM t;")
	rows, err := exec(t, db, "SELECT * FROM v;")
	if err != nil {
		t.Fatalf("SELECT FROM v: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v, want 2", rows)
	}
	mustExec(t, db, "INSERT INTO t VALUES (3,'z');")
	rows, err = exec(t, db, "SELECT * FROM v;")
	if err != nil {
		t.Fatalf("SELECT FROM v after insert: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("view should re-execute on every access, rows = %v", rows)
	}
}

func TestLeftOuterJoinUnmatchedRowsAreNull(t *testing.T) {
	db := New("test")
	mustExec(t, db, "CREATE TABLE a(id INTEGER, name TEXT);")
	mustExec(t, db, "CREATE TABLE b(id INTEGER, label TEXT);")
	mustExec(t, db, "INSERT INTO a VALUES (1,'one');")
	mustExec(t, db, "INSERT INTO a VALUES (2,'two');")
	mustExec(t, db, "INSERT INTO b VALUES (1,'uno');")
	rows, err := exec(t, db, "SELECT * FROM a LEFT OUTER JOIN b ON a.id = b.id;")
	if err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v, want 2", rows)
	}
	if !rows[1][2].IsNull() || !rows[1][3].IsNull() {
		t.Fatalf("unmatched row = %v, want b-side columns NULL", rows[1])
	}
	if _, err := db.relation("JOIN1"); err == nil {
		t.Fatal("join table should have been disposed after SELECT")
	}
}

func TestNullAwareWhere(t *testing.T) {
	db := New("test")
	mustExec(t, db, "CREATE TABLE t(a INTEGER);")
	mustExec(t, db, "INSERT INTO t VALUES (NULL);")
	mustExec(t, db, "INSERT INTO t VALUES (1);")
	rows, err := exec(t, db, "SELECT * FROM t WHERE a IS NULL;")
	if err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	if len(rows) != 1 || !rows[0][0].IsNull() {
		t.Fatalf("rows = %v, want one null row", rows)
	}
	rows, err = exec(t, db, "SELECT * FROM t WHERE a = NULL;")
	if err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %v, want none", rows)
	}
}

func TestCloneIsIndependentSnapshot(t *testing.T) {
	db := New("test")
	mustExec(t, db, "CREATE TABLE t(a INTEGER);")
	mustExec(t, db, "INSERT INTO t VALUES (1);")
	snap := db.Clone()
	mustExec(t, db, "INSERT INTO t VALUES (2);")
	rows, err := exec(t, snap, "SELECT * FROM t;")
	if err != nil {
		t.Fatalf("SELECT on snapshot: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("snapshot rows = %v, want 1 (mutation after clone leaked)", rows)
	}
}

func TestDescribeRendersDefaultsNullableAndCollations(t *testing.T) {
	db := New("test")
	mustExec(t, db, "CREATE TABLE t(a INTEGER, b INTEGER DEFAULT 7);")
	mustExec(t, db, "INSERT INTO t VALUES (1, 2);")
	mustExec(t, db, "CREATE VIEW v AS SELECT * FROM t;")
	db.Collations.Register("REVERSE", func(a, b value.Value) int { return -value.Compare(a, b) })

	out, err := db.Describe()
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	var desc schemaDesc
	if err := yaml.Unmarshal(out, &desc); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if len(desc.Tables) != 1 || len(desc.Tables[0].Columns) != 2 {
		t.Fatalf("tables = %+v", desc.Tables)
	}
	if desc.Tables[0].Columns[1].Default != "7" {
		t.Fatalf("default = %q, want 7", desc.Tables[0].Columns[1].Default)
	}
	if desc.Tables[0].Columns[0].Default != "" {
		t.Fatalf("default = %q, want empty for column without DEFAULT", desc.Tables[0].Columns[0].Default)
	}
	if !desc.Tables[0].Columns[0].Nullable {
		t.Fatalf("column a nullable = false, want true")
	}
	if len(desc.Views) != 1 || desc.Views[0].Name != "v" {
		t.Fatalf("views = %+v", desc.Views)
	}
	found := false
	for _, name := range desc.Collations {
		if name == "REVERSE" {
			found = true
		}
	}
	if !found {
		t.Fatalf("collations = %v, want REVERSE included", desc.Collations)
	}
}

func mustExec(t *testing.T, db *Database, sql string) {
	t.Helper()
	if _, err := exec(t, db, sql); err != nil {
		t.Fatalf("exec(%q): %v", sql, err)
	}
}
