package trait

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Catalog exposes the ordered, immutable trait sequence that drives interview progression.
type Catalog interface {
	Len() int
	At(index int) (Trait, bool)
	List() []Trait
}

// MemoryCatalog implements Catalog with an in-memory slice.
type MemoryCatalog struct {
	items []Trait
}

// NewMemoryCatalog returns a MemoryCatalog holding a copy of the supplied traits.
func NewMemoryCatalog(items []Trait) *MemoryCatalog {
	return &MemoryCatalog{items: append([]Trait(nil), items...)}
}

// Len returns the number of traits.
func (c *MemoryCatalog) Len() int {
	return len(c.items)
}

// At returns the trait at the given position.
func (c *MemoryCatalog) At(index int) (Trait, bool) {
	if index < 0 || index >= len(c.items) {
		return Trait{}, false
	}
	return c.items[index], true
}

// List returns a copy of the full catalog.
func (c *MemoryCatalog) List() []Trait {
	return append([]Trait(nil), c.items...)
}

type catalogFile struct {
	Traits []Trait `yaml:"traits" toml:"trait"`
}

// LoadFile reads a catalog from a YAML (.yaml/.yml) or TOML (.toml) file.
//
// YAML files list entries under a top-level "traits" key; TOML files use [[trait]] tables.
func LoadFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trait catalog: read %s: %w", path, err)
	}

	var file catalogFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("trait catalog: parse yaml: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("trait catalog: parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("trait catalog: unsupported file extension %q", filepath.Ext(path))
	}

	if err := Validate(file.Traits); err != nil {
		return nil, err
	}
	return NewMemoryCatalog(file.Traits), nil
}

// Validate rejects empty catalogs and traits with missing fields.
func Validate(items []Trait) error {
	if len(items) == 0 {
		return fmt.Errorf("trait catalog: no traits defined")
	}
	for i, item := range items {
		switch {
		case strings.TrimSpace(item.Name) == "":
			return fmt.Errorf("trait catalog: trait %d has no name", i)
		case strings.TrimSpace(item.Scenario) == "":
			return fmt.Errorf("trait catalog: trait %q has no scenario", item.Name)
		case strings.TrimSpace(item.BaseQuestion) == "":
			return fmt.Errorf("trait catalog: trait %q has no base question", item.Name)
		}
	}
	return nil
}
