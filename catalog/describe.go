package catalog

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/snapsql/snapsql/token"
)

type columnDesc struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Default  string `yaml:"default,omitempty"`
	Nullable bool   `yaml:"nullable"`
}

type tableDesc struct {
	Name    string       `yaml:"name"`
	Columns []columnDesc `yaml:"columns"`
	Rows    int          `yaml:"rows"`
}

type viewDesc struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Query   string   `yaml:"query"`
}

type schemaDesc struct {
	Name       string      `yaml:"name"`
	Tables     []tableDesc `yaml:"tables,omitempty"`
	Views      []viewDesc  `yaml:"views,omitempty"`
	Collations []string    `yaml:"collations,omitempty"`
}

// Describe renders the catalog's current shape — tables, columns, row
// counts, views and their underlying query text, and registered collation
// names — as YAML, for diagnostics and for tests that want to assert
// catalog structure without hand-walking internal maps.
func (db *Database) Describe() ([]byte, error) {
	desc := schemaDesc{Name: db.Name}

	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := db.tables[name]
		td := tableDesc{Name: name, Rows: t.RowCount()}
		for i, h := range t.Headers() {
			cd := columnDesc{Name: h, Type: t.ColumnType(i).String(), Nullable: columnIsNullable()}
			if dv, ok := t.Default(i); ok {
				cd.Default = dv.String()
			}
			td.Columns = append(td.Columns, cd)
		}
		desc.Tables = append(desc.Tables, td)
	}

	viewNames := make([]string, 0, len(db.views))
	for name := range db.views {
		viewNames = append(viewNames, name)
	}
	sort.Strings(viewNames)
	for _, name := range viewNames {
		v := db.views[name]
		desc.Views = append(desc.Views, viewDesc{Name: name, Columns: v.columns, Query: tokensToText(v.query)})
	}

	desc.Collations = db.Collations.Names()

	return yaml.Marshal(desc)
}

// columnIsNullable always reports true: this grammar has no NOT NULL
// clause, so every declared column accepts a Null cell regardless of its
// declared type (value.Value.MatchesType treats Null as always valid).
// Kept as a named function rather than a literal so the schema dump's
// Nullable field reads as a deliberate statement of that invariant, not a
// forgotten placeholder.
func columnIsNullable() bool { return true }

func tokensToText(items []token.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if it.Kind == token.Quote {
			continue
		}
		parts = append(parts, it.Value)
	}
	return strings.Join(parts, " ")
}
