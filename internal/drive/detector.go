// Package drive discovers locally attached boot media for an environment
// kind. Candidates are always derived fresh from the live filesystem and
// never persisted.
package drive

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/cloudpe/pemarket/internal/infra/logger"
	"github.com/cloudpe/pemarket/internal/pe"
)

// Candidate is one volume that passed the signature check for a kind.
type Candidate struct {
	Root      string  `json:"root"`
	Kind      pe.Kind `json:"kind"`
	Version   string  `json:"version"`
	Compat    bool    `json:"compat"` // matched via the Cloud-PE compatibility rule
	FreeBytes uint64  `json:"freeBytes"`
	Writable  bool    `json:"writable"`
}

type Detector struct {
	log *logger.Logger

	// ExtraRoots are configured candidate roots scanned in addition to the
	// platform defaults. Preferred is listed first in the result when it
	// matches.
	ExtraRoots []string
	Preferred  string
}

func NewDetector(log *logger.Logger) *Detector {
	return &Detector{log: log}
}

// Detect enumerates candidate roots and returns every volume whose
// signature matches kind. One unreadable volume never aborts the scan; it
// is simply omitted. The result is deterministically ordered: preferred
// root first, then lexicographic.
func (d *Detector) Detect(ctx context.Context, kind pe.Kind) []Candidate {
	roots := d.candidateRoots()

	var found []Candidate
	for _, root := range roots {
		select {
		case <-ctx.Done():
			return found
		default:
		}

		sig := kind.Probe(root)
		if !sig.Match {
			continue
		}

		c := Candidate{
			Root:     root,
			Kind:     kind,
			Version:  sig.Version,
			Compat:   sig.Compat,
			Writable: probeWritable(root),
		}
		if free, err := freeBytes(root); err == nil {
			c.FreeBytes = free
		} else {
			d.log.Debug("free-space probe failed for %s: %v", root, err)
		}

		found = append(found, c)
	}

	sort.Slice(found, func(i, j int) bool {
		if (found[i].Root == d.Preferred) != (found[j].Root == d.Preferred) {
			return found[i].Root == d.Preferred
		}
		return found[i].Root < found[j].Root
	})

	return found
}

// candidateRoots merges configured roots with the platform defaults,
// de-duplicated, keeping only roots that exist.
func (d *Detector) candidateRoots() []string {
	var roots []string
	if d.Preferred != "" {
		roots = append(roots, d.Preferred)
	}
	roots = append(roots, d.ExtraRoots...)
	roots = append(roots, platformRoots()...)

	seen := make(map[string]bool)
	out := roots[:0]
	for _, r := range roots {
		r = filepath.Clean(r)
		if r == "." || seen[r] {
			continue
		}
		seen[r] = true
		if info, err := os.Stat(r); err == nil && info.IsDir() {
			out = append(out, r)
		}
	}
	return out
}

// probeWritable creates and removes a throwaway file at the volume root.
// Some boot media are read-only overlays; those must still be listed, just
// flagged. The probe file is removed on every exit path.
func probeWritable(root string) bool {
	f, err := os.CreateTemp(root, ".pemarket-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	defer os.Remove(name)

	_, werr := f.WriteString("probe")
	cerr := f.Close()

	return werr == nil && cerr == nil
}
