package bindings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// scopeSeparator separates nested C++ scopes in Doxygen compound names.
const scopeSeparator = "::"

// Module is one binding module in a symbol dump.
type Module struct {
	Name    string              `yaml:"name" json:"name" toml:"name"`
	Classes map[string][]string `yaml:"classes" json:"classes" toml:"classes"`
}

// Dump is the on-disk symbol dump.
type Dump struct {
	Modules []Module `yaml:"modules" json:"modules" toml:"modules"`
}

// Symbol is a bound class and its attribute names.
type Symbol struct {
	Name   string
	Module string
	attrs  map[string]struct{}
}

// HasAttr implements Object.
func (s *Symbol) HasAttr(name string) (bool, error) {
	_, ok := s.attrs[name]
	return ok, nil
}

// Dir implements Object. Names are sorted.
func (s *Symbol) Dir() ([]string, error) {
	names := make([]string, 0, len(s.attrs))
	for n := range s.attrs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Symbol) add(attr string) {
	if s.attrs == nil {
		s.attrs = make(map[string]struct{})
	}
	s.attrs[attr] = struct{}{}
}

// Table is an Environment backed by a symbol dump.
type Table struct {
	symbols map[string]*Symbol
}

// NewTable builds a table from modules, flattened in order.
func NewTable(modules ...Module) *Table {
	t := &Table{symbols: make(map[string]*Symbol)}

	for _, m := range modules {
		names := make([]string, 0, len(m.Classes))
		for name := range m.Classes {
			names = append(names, name)
		}
		// Outer scopes first so nested classes can register on their parent.
		sort.Strings(names)

		for _, name := range names {
			sym := &Symbol{Name: name, Module: m.Name}
			for _, attr := range m.Classes[name] {
				sym.add(attr)
			}
			t.symbols[name] = sym

			if i := strings.LastIndex(name, scopeSeparator); i > 0 {
				parent := name[:i]
				if p, ok := t.symbols[parent]; ok {
					p.add(name[i+len(scopeSeparator):])
				}
			}
		}
	}

	return t
}

// ParseTable decodes a YAML or JSON symbol dump.
func ParseTable(data []byte) (*Table, error) {
	var d Dump
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDump, err)
	}
	return NewTable(d.Modules...), nil
}

// ParseTOMLTable decodes a TOML symbol dump, one [[modules]] table per
// binding module.
func ParseTOMLTable(data []byte) (*Table, error) {
	var d Dump
	if err := toml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDump, err)
	}
	return NewTable(d.Modules...), nil
}

// LoadTable reads a symbol dump from path. Files ending in .toml are
// decoded as TOML, anything else as YAML or JSON.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided dump path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol dump: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOMLTable(data)
	}
	return ParseTable(data)
}

// Len returns the number of bound classes.
func (t *Table) Len() int {
	return len(t.symbols)
}

// Lookup implements Environment. "Outer::Inner" resolves Inner as an
// attribute of Outer, one scope at a time.
func (t *Table) Lookup(name string) (Object, error) {
	parts := strings.Split(name, scopeSeparator)

	cur, ok := t.symbols[parts[0]]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, parts[0])
	}

	path := parts[0]
	for _, part := range parts[1:] {
		has, err := cur.HasAttr(part)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, fmt.Errorf("%w: %s has no attribute %s", ErrNotFound, path, part)
		}

		path += scopeSeparator + part
		next, ok := t.symbols[path]
		if !ok {
			// bound as an attribute but its own members were not dumped
			next = &Symbol{Name: path, Module: cur.Module}
		}
		cur = next
	}

	return cur, nil
}

// IsNotFound reports whether err means a symbol is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
