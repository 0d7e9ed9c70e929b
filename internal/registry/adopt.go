package registry

import (
	"os"
	"path/filepath"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/pe"
)

// Adopt reconciles the registry with the plugin files actually present on
// the medium. Plugins placed there by other tools get a record derived
// from the file name; records whose files are all gone are dropped.
// Returns true when anything changed (caller decides whether to Save).
func (r *Registry) Adopt(kind pe.Kind, root string) bool {
	dir := kind.PluginsDir(root)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	changed := false
	seen := make(map[string]bool)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		enabled := kind.IsEnabledName(name)
		disabled := kind.IsDisabledName(name)
		if !enabled && !disabled {
			continue
		}

		parsed, ok := kind.ParsePluginFileName(name)
		if !ok {
			continue
		}

		id := domain.PluginID(parsed.Name, parsed.Author)
		seen[id] = true

		if rec, exists := r.Records[id]; exists {
			// Keep the record but follow a rename done behind our back.
			if rec.Enabled != enabled {
				rec.Enabled = enabled
				rec.Files = []string{filepath.Join(dir, name)}
				changed = true
			}
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		r.Put(&domain.InstalledPlugin{
			ID:          id,
			Name:        parsed.Name,
			Version:     parsed.Version,
			Author:      parsed.Author,
			Enabled:     enabled,
			InstalledAt: info.ModTime(),
			Files:       []string{filepath.Join(dir, name)},
		})
		changed = true
	}

	// Drop records whose every file disappeared.
	for id, rec := range r.Records {
		if seen[id] {
			continue
		}
		gone := true
		for _, f := range rec.Files {
			if _, err := os.Stat(f); err == nil {
				gone = false
				break
			}
		}
		if gone {
			delete(r.Records, id)
			changed = true
		}
	}

	return changed
}
