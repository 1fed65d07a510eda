package matchers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/petrarca/sas-analyzer/internal/rules"
	"github.com/petrarca/sas-analyzer/internal/types"
)

// Set holds compiled tables by name
type Set struct {
	tables map[string]*Table
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
	defaultErr  error
)

// Default returns the set compiled from the embedded tables. Compilation runs
// once per process.
func Default() (*Set, error) {
	defaultOnce.Do(func() {
		defs, err := rules.LoadEmbeddedTables()
		if err != nil {
			defaultErr = err
			return
		}
		defaultSet, defaultErr = Compile(defs)
	})
	return defaultSet, defaultErr
}

// Load compiles the embedded tables overlaid with the tables found in dir.
// An empty dir returns the default set.
func Load(dir string) (*Set, error) {
	if dir == "" {
		return Default()
	}
	defs, err := rules.LoadTables(dir)
	if err != nil {
		return nil, err
	}
	return Compile(defs)
}

// Compile compiles table definitions into a set
func Compile(defs []types.PatternTable) (*Set, error) {
	s := &Set{tables: make(map[string]*Table, len(defs))}
	for _, def := range defs {
		if _, dup := s.tables[def.Name]; dup {
			return nil, fmt.Errorf("duplicate table %s", def.Name)
		}
		t, err := CompileTable(def)
		if err != nil {
			return nil, err
		}
		s.tables[def.Name] = t
	}
	return s, nil
}

// Table returns the named table, or an empty table when it is not defined
func (s *Set) Table(name string) *Table {
	if t, ok := s.tables[name]; ok {
		return t
	}
	return &Table{name: name}
}

// Has reports whether the named table is defined
func (s *Set) Has(name string) bool {
	_, ok := s.tables[name]
	return ok
}

// Names returns the sorted table names
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
