//go:build windows

package drive

import "fmt"

// platformRoots lists every possible drive-letter root; the detector stats
// each one, so letters without a volume fall out immediately.
func platformRoots() []string {
	roots := make([]string, 0, 26)
	for letter := 'A'; letter <= 'Z'; letter++ {
		roots = append(roots, fmt.Sprintf(`%c:\`, letter))
	}
	return roots
}
