package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Def is the static catalog entry for a condition, loaded from YAML. The
// catalog feeds the condition picker in the tracker UI; applying a condition
// not in the catalog is allowed (GMs improvise).
type Def struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Severity is a UI hint: "minor", "major", or "critical".
	Severity string `yaml:"severity"`
}

// Validate checks the catalog entry invariants.
func (d *Def) Validate() error {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	switch d.Severity {
	case "", "minor", "major", "critical":
	default:
		errs = append(errs, fmt.Sprintf("severity must be one of [minor, major, critical], got %q", d.Severity))
	}
	if len(errs) > 0 {
		return fmt.Errorf("condition def invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Registry holds all known catalog Defs keyed by ID.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
//
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Def) {
	r.defs[def.ID] = def
}

// Get returns the Def for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns the registered Defs sorted by ID for stable listings.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def, and
// returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to
// parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
