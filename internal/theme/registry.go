package theme

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/poorfish/maptoposter/assets"
)

// Registry is a read-only set of themes keyed by ID (file name without
// extension).
type Registry struct {
	themes map[string]*Theme
}

// LoadFS reads every *.json file in dir of fsys.
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme dir %q: %w", dir, err)
	}

	r := &Registry{themes: make(map[string]*Theme)}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read theme %q: %w", e.Name(), err)
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		t, err := Parse(id, data)
		if err != nil {
			return nil, err
		}
		r.themes[id] = t
	}
	return r, nil
}

// Get returns the theme with the given ID.
func (r *Registry) Get(id string) (*Theme, error) {
	t, ok := r.themes[id]
	if !ok {
		return nil, fmt.Errorf("unknown theme %q (available: %s)", id, strings.Join(r.IDs(), ", "))
	}
	return t, nil
}

// IDs returns all theme IDs sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.themes))
	for id := range r.themes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns all themes sorted by ID.
func (r *Registry) All() []*Theme {
	ids := r.IDs()
	out := make([]*Theme, len(ids))
	for i, id := range ids {
		out[i] = r.themes[id]
	}
	return out
}

var (
	builtinOnce sync.Once
	builtin     *Registry
	builtinErr  error
)

// Builtin returns the embedded themes.
func Builtin() (*Registry, error) {
	builtinOnce.Do(func() {
		builtin, builtinErr = LoadFS(assets.ThemesFS, "themes")
	})
	return builtin, builtinErr
}

// Get looks up an embedded theme.
func Get(id string) (*Theme, error) {
	r, err := Builtin()
	if err != nil {
		return nil, err
	}
	return r.Get(id)
}
