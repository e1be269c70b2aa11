// Package collation implements named comparators usable from ORDER BY ...
// COLLATE name, both the engine's built-in locale collations and
// connection-registered user comparators.
package collation

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/snapsql/snapsql/sqlerr"
	"github.com/snapsql/snapsql/value"
)

// Comparator returns negative, zero, or positive depending on whether a
// sorts before, equal to, or after b. Zero must mean "equal" both for
// sorting and for detecting duplicate-key runs in a multi-key ORDER BY.
type Comparator func(a, b value.Value) int

// Registry holds the named comparators visible to a single catalog.
type Registry struct {
	named map[string]Comparator
}

// NewRegistry returns a Registry seeded with the built-in locale
// collations, so COLLATE unicode works without prior registration.
func NewRegistry() *Registry {
	r := &Registry{named: make(map[string]Comparator)}
	r.named["UNICODE"] = localeComparator(language.Und, false)
	r.named["UNICODE_CI"] = localeComparator(language.Und, true)
	return r
}

// Clone returns an independent copy, used when a catalog snapshot is taken
// at transaction start.
func (r *Registry) Clone() *Registry {
	out := &Registry{named: make(map[string]Comparator, len(r.named))}
	for k, v := range r.named {
		out.named[k] = v
	}
	return out
}

// Register installs a user-supplied comparator under name, overriding any
// existing entry — matching create_collation's unconditional assignment.
func (r *Registry) Register(name string, cmp Comparator) {
	r.named[normalize(name)] = cmp
}

// Lookup resolves name to a Comparator. A BCP-47 language tag not already
// registered (e.g. "en", "de", "sv") resolves to a locale collation on
// first use and is cached under its upper-cased tag.
func (r *Registry) Lookup(name string) (Comparator, error) {
	key := normalize(name)
	if cmp, ok := r.named[key]; ok {
		return cmp, nil
	}
	tag, err := language.Parse(name)
	if err != nil {
		return nil, sqlerr.NewQueryError("unknown collation %q", name)
	}
	cmp := localeComparator(tag, false)
	r.named[key] = cmp
	return cmp, nil
}

// Names returns every registered collation name, sorted, for schema
// introspection.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.named))
	for name := range r.named {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// localeComparator builds a Comparator over TEXT values backed by
// golang.org/x/text/collate; applying it to an INTEGER/REAL column is
// rejected by the caller before the comparator is ever invoked, per
// spec.md's restriction that COLLATE only applies to TEXT columns.
func localeComparator(tag language.Tag, caseInsensitive bool) Comparator {
	opts := []collate.Option{}
	if caseInsensitive {
		opts = append(opts, collate.IgnoreCase)
	}
	c := collate.New(tag, opts...)
	return func(a, b value.Value) int {
		if a.IsNull() || b.IsNull() {
			return value.Compare(a, b)
		}
		return c.CompareString(a.T, b.T)
	}
}
