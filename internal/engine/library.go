package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dependency is one declared dependency and its version specification.
type Dependency struct {
	Name string `json:"name"`
	Spec string `json:"spec"`
}

// Manifest is the ordered set of declared dependencies. Redeclaring a name
// replaces its spec in place.
type Manifest struct {
	deps []Dependency
}

// Add records dep, replacing an earlier declaration of the same name.
func (m *Manifest) Add(dep Dependency) {
	for i, d := range m.deps {
		if d.Name == dep.Name {
			m.deps[i] = dep
			return
		}
	}
	m.deps = append(m.deps, dep)
}

// Has reports whether name was declared.
func (m *Manifest) Has(name string) bool {
	for _, d := range m.deps {
		if d.Name == name {
			return true
		}
	}
	return false
}

// List returns the declarations in declaration order.
func (m *Manifest) List() []Dependency {
	out := make([]Dependency, len(m.deps))
	copy(out, m.deps)
	return out
}

// ErrModuleNotFound is returned when a dependency has no source in any
// library directory.
var ErrModuleNotFound = errors.New("module not found")

// Library resolves dependency names to source files under a list of
// directories. The first directory containing <name><ext> wins.
type Library struct {
	dirs []string
	ext  string
}

// NewLibrary returns a Library searching dirs for files ending in ext.
func NewLibrary(ext string, dirs ...string) *Library {
	var clean []string
	for _, d := range dirs {
		if d = strings.TrimSpace(d); d != "" {
			clean = append(clean, d)
		}
	}
	return &Library{dirs: clean, ext: ext}
}

// Dirs returns the search path.
func (l *Library) Dirs() []string {
	return l.dirs
}

// Find returns the path of the source file for name.
func (l *Library) Find(name string) (string, bool) {
	if l == nil || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	for _, dir := range l.dirs {
		path := filepath.Join(dir, name+l.ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Load reads the source for name.
func (l *Library) Load(name string) ([]byte, error) {
	path, ok := l.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module %s: %w", name, err)
	}
	return src, nil
}

// Names lists every module name available on the search path.
func (l *Library) Names() []string {
	if l == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, dir := range l.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), l.ext) {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), l.ext)
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
