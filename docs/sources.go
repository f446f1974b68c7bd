package docs

import (
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Source is a named documentation location: a friendly name callers can use
// instead of a raw URL or file path.
type Source struct {
	Name        string `yaml:"name"`
	Location    string `yaml:"location"`
	Description string `yaml:"description,omitempty"`
}

// SourceTable maps source names to their locations. It is read-only after
// construction.
type SourceTable struct {
	sources []Source
	byName  map[string]string
}

// NewSourceTable builds a table from an explicit source list. Later entries
// with a duplicate name win.
func NewSourceTable(sources []Source) *SourceTable {
	byName := make(map[string]string, len(sources))
	for _, s := range sources {
		byName[s.Name] = s.Location
	}
	return &SourceTable{sources: sources, byName: byName}
}

// sourceFile is the on-disk shape of a source table.
type sourceFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSourceTable reads a YAML source table:
//
//	sources:
//	  - name: components
//	    location: https://www.patternfly.org/components/all-components/llms.txt
//	    description: Component usage guidelines
func LoadSourceTable(path string) (*SourceTable, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading source table %s", path)
	}
	var f sourceFile
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, errors.Wrapf(err, "parsing source table %s", path)
	}
	for _, s := range f.Sources {
		if s.Name == "" || s.Location == "" {
			return nil, errors.Newf("source table %s: every source needs a name and a location", path)
		}
	}
	return NewSourceTable(f.Sources), nil
}

// DefaultSourceTable returns the built-in PatternFly documentation sources
// used when no source table file is configured.
func DefaultSourceTable() *SourceTable {
	return NewSourceTable([]Source{
		{
			Name:        "patternfly",
			Location:    "https://www.patternfly.org/llms.txt",
			Description: "PatternFly documentation index",
		},
		{
			Name:        "components",
			Location:    "https://www.patternfly.org/components/all-components/llms.txt",
			Description: "Component usage guidelines",
		},
		{
			Name:        "charts",
			Location:    "https://www.patternfly.org/charts/about-charts/llms.txt",
			Description: "Chart and data visualization guidelines",
		},
		{
			Name:        "accessibility",
			Location:    "https://www.patternfly.org/accessibility/about-accessibility/llms.txt",
			Description: "Accessibility guidance",
		},
	})
}

// Resolve returns the location for a source name.
func (t *SourceTable) Resolve(name string) (string, bool) {
	loc, ok := t.byName[name]
	return loc, ok
}

// List returns the sources sorted by name.
func (t *SourceTable) List() []Source {
	out := make([]Source, len(t.sources))
	copy(out, t.sources)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
