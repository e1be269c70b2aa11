package table

import (
	"testing"

	"github.com/snapsql/snapsql/value"
)

func mustTable(t *testing.T, name string, cols []Column) *Table {
	t.Helper()
	tbl, err := New(name, cols)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tbl
}

func TestInsertFullRowPadsMissingWithDefault(t *testing.T) {
	def := value.Integer(7)
	tbl := mustTable(t, "t", []Column{
		{Name: "a", Type: value.KindInteger},
		{Name: "b", Type: value.KindInteger, Default: &def},
	})
	if err := tbl.Insert([][]value.Value{{value.Integer(1)}}, nil, false); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rows := tbl.Rows()
	if len(rows) != 1 || !value.Equal(rows[0][1], value.Integer(7)) {
		t.Fatalf("rows = %v, want second column defaulted to 7", rows)
	}
}

func TestInsertNamedColumnsPreservesExplicitNull(t *testing.T) {
	def := value.Integer(7)
	tbl := mustTable(t, "t", []Column{
		{Name: "a", Type: value.KindInteger},
		{Name: "b", Type: value.KindInteger, Default: &def},
	})
	err := tbl.Insert([][]value.Value{{value.Integer(1), value.Null}}, []string{"a", "b"}, false)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rows := tbl.Rows()
	if !rows[0][1].IsNull() {
		t.Fatalf("explicit NULL should not be overwritten by default, got %v", rows[0][1])
	}
}

func TestInsertAllDefaultRequiresDefaultsOnEveryColumn(t *testing.T) {
	tbl := mustTable(t, "t", []Column{{Name: "a", Type: value.KindInteger}})
	if err := tbl.Insert(nil, nil, true); err == nil {
		t.Fatal("expected an error when not every column has a default")
	}
}

func TestInsertTypeMismatch(t *testing.T) {
	tbl := mustTable(t, "t", []Column{{Name: "a", Type: value.KindInteger}})
	err := tbl.Insert([][]value.Value{{value.Text("x")}}, nil, false)
	if err == nil {
		t.Fatal("expected a type error")
	}
}

func TestInsertOverlongRow(t *testing.T) {
	tbl := mustTable(t, "t", []Column{{Name: "a", Type: value.KindInteger}})
	err := tbl.Insert([][]value.Value{{value.Integer(1), value.Integer(2)}}, nil, false)
	if err == nil {
		t.Fatal("expected a query error for an overlong row")
	}
}

func TestWhereIsNull(t *testing.T) {
	tbl := mustTable(t, "t", []Column{{Name: "a", Type: value.KindInteger}})
	tbl.Insert([][]value.Value{{value.Null}, {value.Integer(1)}}, nil, false)
	matches, err := tbl.Match(&Where{Column: "a", Op: "IS", Value: value.Null})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(matches) != 1 || matches[0] != 0 {
		t.Fatalf("matches = %v, want [0]", matches)
	}
}

func TestWhereEqualsNullMatchesNothing(t *testing.T) {
	tbl := mustTable(t, "t", []Column{{Name: "a", Type: value.KindInteger}})
	tbl.Insert([][]value.Value{{value.Integer(1)}}, nil, false)
	matches, err := tbl.Match(&Where{Column: "a", Op: "=", Value: value.Null})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("matches = %v, want none", matches)
	}
}

func TestWhereNotEqualNullMatchesAllNonNull(t *testing.T) {
	tbl := mustTable(t, "t", []Column{{Name: "a", Type: value.KindInteger}})
	tbl.Insert([][]value.Value{{value.Integer(1)}, {value.Null}}, nil, false)
	matches, err := tbl.Match(&Where{Column: "a", Op: "!=", Value: value.Null})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(matches) != 1 || matches[0] != 0 {
		t.Fatalf("matches = %v, want [0] (the quirk preserved from the original engine)", matches)
	}
}

func TestWhereIsRequiresNullRHS(t *testing.T) {
	tbl := mustTable(t, "t", []Column{{Name: "a", Type: value.KindInteger}})
	_, err := tbl.Match(&Where{Column: "a", Op: "IS", Value: value.Integer(1)})
	if err == nil {
		t.Fatal("expected an error for IS with a non-null right-hand side")
	}
}

func TestDeleteAllWhenWhereEmpty(t *testing.T) {
	tbl := mustTable(t, "t", []Column{{Name: "a", Type: value.KindInteger}})
	tbl.Insert([][]value.Value{{value.Integer(1)}, {value.Integer(2)}}, nil, false)
	if err := tbl.Delete(nil); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if tbl.RowCount() != 0 {
		t.Fatalf("RowCount = %d, want 0", tbl.RowCount())
	}
}

func TestUpdateGatesOnAssignedValueType(t *testing.T) {
	tbl := mustTable(t, "t", []Column{
		{Name: "a", Type: value.KindInteger},
		{Name: "b", Type: value.KindText},
	})
	tbl.Insert([][]value.Value{{value.Integer(1), value.Text("x")}}, nil, false)
	err := tbl.Update(nil, []Assignment{{Column: "b", Value: value.Integer(9)}})
	if err == nil {
		t.Fatal("expected a type error assigning an integer to a TEXT column")
	}
}

func TestSelectStarProjectsDeclaredOrder(t *testing.T) {
	tbl := mustTable(t, "t", []Column{
		{Name: "a", Type: value.KindInteger},
		{Name: "b", Type: value.KindText},
	})
	tbl.Insert([][]value.Value{{value.Integer(1), value.Text("x")}}, nil, false)
	rows, err := tbl.Select([]Projection{{Star: true}}, nil, false, nil, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 1 || !value.Equal(rows[0][0], value.Integer(1)) || !value.Equal(rows[0][1], value.Text("x")) {
		t.Fatalf("rows = %v", rows)
	}
}

func TestSelectMultiKeyOrderBy(t *testing.T) {
	tbl := mustTable(t, "students", []Column{
		{Name: "name", Type: value.KindText},
		{Name: "grade", Type: value.KindReal},
	})
	rows := [][]value.Value{
		{value.Text("Josh"), value.Real(3.5)},
		{value.Text("Tyler"), value.Real(2.5)},
		{value.Text("Tosh"), value.Real(4.5)},
		{value.Text("Losh"), value.Real(3.2)},
	}
	if err := tbl.Insert(rows, nil, false); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	out, err := tbl.Select(
		[]Projection{{Column: "students.grade"}, {Column: "students.name"}},
		[]OrderKey{{Column: "students.grade"}, {Column: "students.name"}},
		false, nil, nil,
	)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(out) != 4 || !value.Equal(out[0][0], value.Real(2.5)) {
		t.Fatalf("out = %v, want first row grade 2.5", out)
	}
}

func TestSelectAggregateWithWhere(t *testing.T) {
	tbl := mustTable(t, "students", []Column{
		{Name: "name", Type: value.KindText},
		{Name: "grade", Type: value.KindReal},
	})
	rows := [][]value.Value{
		{value.Text("Josh"), value.Real(3.5)},
		{value.Text("Tyler"), value.Real(2.5)},
		{value.Text("Tosh"), value.Real(4.5)},
		{value.Text("Losh"), value.Real(3.2)},
	}
	tbl.Insert(rows, nil, false)
	out, err := tbl.Select(
		[]Projection{{Column: "students.grade", Agg: AggMin}, {Column: "students.name", Agg: AggMax}},
		nil, false,
		&Where{Column: "students.name", Op: ">", Value: value.Text("T")},
		nil,
	)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("out = %v, want one aggregate row", out)
	}
	if !value.Equal(out[0][0], value.Real(2.5)) {
		t.Fatalf("min(grade) = %v, want 2.5", out[0][0])
	}
	if !value.Equal(out[0][1], value.Text("Tyler")) {
		t.Fatalf("max(name) = %v, want Tyler", out[0][1])
	}
}

func TestSelectAggregateMixedWithNonAggregateFails(t *testing.T) {
	tbl := mustTable(t, "t", []Column{{Name: "a", Type: value.KindInteger}})
	tbl.Insert([][]value.Value{{value.Integer(1)}}, nil, false)
	_, err := tbl.Select([]Projection{{Column: "t.a", Agg: AggMax}, {Column: "t.a"}}, nil, false, nil, nil)
	if err == nil {
		t.Fatal("expected an error mixing an aggregate with a non-aggregate projection")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := mustTable(t, "t", []Column{{Name: "a", Type: value.KindInteger}})
	tbl.Insert([][]value.Value{{value.Integer(1)}}, nil, false)
	clone := tbl.Clone()
	clone.Insert([][]value.Value{{value.Integer(2)}}, nil, false)
	if tbl.RowCount() != 1 {
		t.Fatalf("original RowCount = %d, want 1 (clone mutation leaked)", tbl.RowCount())
	}
}
