// Package registry persists the installed-plugin records on the boot
// medium itself, so the state travels with the drive. The file is plain
// JSON next to the plugins, written atomically via a temp file + rename.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/pe"
)

const fileName = ".pemarket-registry.json"

type Registry struct {
	Records map[string]*domain.InstalledPlugin `json:"plugins"`
}

func New() *Registry {
	return &Registry{Records: make(map[string]*domain.InstalledPlugin)}
}

// Path returns the registry file location on a medium rooted at root.
func Path(kind pe.Kind, root string) string {
	return filepath.Join(kind.PluginsDir(root), fileName)
}

// Load reads the registry from the medium. A missing file yields an empty
// registry and no warning (first use). A corrupt file also yields an empty
// registry, since a damaged medium must stay usable, but the returned
// warning wraps ErrRegistryCorrupt so callers can tell the two apart.
func Load(kind pe.Kind, root string) (*Registry, error) {
	raw, err := os.ReadFile(Path(kind, root))
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return New(), fmt.Errorf("%w: %v", domain.ErrRegistryCorrupt, err)
	}

	var reg Registry
	if err := json.Unmarshal(raw, &reg); err != nil {
		return New(), fmt.Errorf("%w: %v", domain.ErrRegistryCorrupt, err)
	}

	if reg.Records == nil {
		reg.Records = make(map[string]*domain.InstalledPlugin)
	}

	return &reg, nil
}

// Save writes the registry atomically: marshal to a temp file in the same
// directory, fsync, then rename over the real path. A crash mid-write
// leaves either the old file or the new one, never a torn file.
func Save(kind pe.Kind, root string, reg *Registry) error {
	path := Path(kind, root)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRegistryWrite, err)
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRegistryWrite, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRegistryWrite, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrRegistryWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrRegistryWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrRegistryWrite, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrRegistryWrite, err)
	}

	return nil
}

func (r *Registry) Get(id string) (*domain.InstalledPlugin, bool) {
	rec, ok := r.Records[id]
	return rec, ok
}

func (r *Registry) Put(rec *domain.InstalledPlugin) {
	r.Records[rec.ID] = rec
}

func (r *Registry) Delete(id string) {
	delete(r.Records, id)
}

// SortedIDs returns the record keys in a stable order.
func (r *Registry) SortedIDs() []string {
	ids := make([]string, 0, len(r.Records))
	for id := range r.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List returns records ordered by id.
func (r *Registry) List() []*domain.InstalledPlugin {
	out := make([]*domain.InstalledPlugin, 0, len(r.Records))
	for _, id := range r.SortedIDs() {
		out = append(out, r.Records[id])
	}
	return out
}
