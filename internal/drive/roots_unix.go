//go:build !windows

package drive

import (
	"os"
	"path/filepath"
)

// platformRoots lists where removable media get mounted on this platform.
// Each base directory is expanded one level so /media/<user>/<label> and
// /run/media/<user>/<label> are both covered.
func platformRoots() []string {
	bases := []string{"/media", "/mnt", "/run/media"}

	var roots []string
	for _, base := range bases {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			p := filepath.Join(base, e.Name())
			roots = append(roots, p)

			// user-scoped mount dirs hold the actual volumes one level down
			if sub, err := os.ReadDir(p); err == nil {
				for _, s := range sub {
					if s.IsDir() {
						roots = append(roots, filepath.Join(p, s.Name()))
					}
				}
			}
		}
	}

	return roots
}
