package script

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Catalog holds stored scripts by id
type Catalog struct {
	scripts map[string]Script
}

type catalogFile struct {
	Scripts []Script `yaml:"scripts"`
}

// NewCatalog creates a catalog from scripts. Ids must be unique and non-empty.
func NewCatalog(scripts ...Script) (*Catalog, error) {
	c := &Catalog{scripts: make(map[string]Script, len(scripts))}
	for i, s := range scripts {
		if s.ID == "" {
			return nil, fmt.Errorf("script %d: id is required", i)
		}
		if s.Source == "" {
			return nil, fmt.Errorf("script %s: source is required", s.ID)
		}
		if _, dup := c.scripts[s.ID]; dup {
			return nil, fmt.Errorf("script %s: duplicate id", s.ID)
		}
		c.scripts[s.ID] = s
	}
	return c, nil
}

// ParseCatalog parses a YAML catalog document
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return NewCatalog(f.Scripts...)
}

// LoadCatalog reads a YAML catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// Get returns the stored script with the given id
func (c *Catalog) Get(id string) (Script, error) {
	if c != nil {
		if s, ok := c.scripts[id]; ok {
			return s, nil
		}
	}
	return Script{}, fmt.Errorf("%w: %s", ErrScriptNotFound, id)
}

// IDs returns the stored script ids in sorted order
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.scripts))
	for id := range c.scripts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of stored scripts
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.scripts)
}
