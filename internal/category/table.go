// Package category holds the investor-category membership table and the
// aggregation of shareholding facts into category totals.
package category

import (
	_ "embed"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed default_table.yaml
var defaultTableYAML []byte

// Table maps each investor category to the set of context-reference aliases
// that report under it. The alias lists change every filing season as the
// exchange revises its taxonomy, so the table is loaded data, not code:
// a versioned YAML resource replaceable via config without a rebuild.
type Table struct {
	Version    string              `yaml:"version"`
	Categories map[string][]string `yaml:"categories"`

	sets map[string]map[string]struct{}
}

// Options controls table validation.
type Options struct {
	// RequireDisjoint rejects tables where a context ref appears in more
	// than one category. Off by default: the observed taxonomy data has no
	// overlaps in practice, but nothing upstream guarantees it, and the
	// aggregation deliberately fans out into every matching category.
	RequireDisjoint bool
}

// Default returns the table embedded in the binary.
func Default(opts Options) (*Table, error) {
	return Parse(defaultTableYAML, opts)
}

// LoadFile reads and validates a membership table from a YAML file.
func LoadFile(path string, opts Options) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "category: read table file")
	}
	return Parse(data, opts)
}

// Parse unmarshals and validates a membership table.
func Parse(data []byte, opts Options) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "category: unmarshal table")
	}
	if err := t.validate(opts); err != nil {
		return nil, err
	}

	t.sets = make(map[string]map[string]struct{}, len(t.Categories))
	for cat, refs := range t.Categories {
		set := make(map[string]struct{}, len(refs))
		for _, ref := range refs {
			set[ref] = struct{}{}
		}
		t.sets[cat] = set
	}

	return &t, nil
}

func (t *Table) validate(opts Options) error {
	if t.Version == "" {
		return eris.New("category: table missing version")
	}
	if len(t.Categories) == 0 {
		return eris.New("category: table has no categories")
	}
	for cat, refs := range t.Categories {
		if len(refs) == 0 {
			return eris.Errorf("category: category %q has no context refs", cat)
		}
	}

	if opts.RequireDisjoint {
		owner := make(map[string]string)
		for _, cat := range t.Names() {
			for _, ref := range t.Categories[cat] {
				if prev, ok := owner[ref]; ok && prev != cat {
					return eris.Errorf("category: context ref %q belongs to both %q and %q", ref, prev, cat)
				}
				owner[ref] = cat
			}
		}
	}

	return nil
}

// Names returns the category names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Categories))
	for cat := range t.Categories {
		names = append(names, cat)
	}
	sort.Strings(names)
	return names
}

// Contains reports whether the category's alias set includes the ref.
func (t *Table) Contains(cat, ref string) bool {
	_, ok := t.sets[cat][ref]
	return ok
}
