// Package installer places downloaded plugin archives onto a boot medium,
// maintains the on-medium registry, and implements the enable/disable
// activation mechanism for each environment kind.
package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/infra/logger"
	"github.com/cloudpe/pemarket/internal/pe"
	"github.com/cloudpe/pemarket/internal/registry"
)

type Installer struct {
	log   *logger.Logger
	locks *driveLocks
}

func New(log *logger.Logger) *Installer {
	return &Installer{log: log, locks: newDriveLocks()}
}

// Install verifies the archive against the catalog checksum and places it
// into the drive's plugin directory under the kind's naming scheme, then
// records it in the registry. Reinstalling an existing plugin replaces its
// files in place and preserves the previous enabled flag unless
// resetEnabled is set. A partial failure rolls back every file written.
func (ins *Installer) Install(ctx context.Context, archivePath string, p domain.Plugin, kind pe.Kind, driveRoot string, resetEnabled bool) (*domain.InstalledPlugin, error) {
	release := ins.locks.acquire(driveRoot)
	defer release()

	if err := verifyArchive(archivePath, p.Checksum); err != nil {
		return nil, err
	}

	reg, warn := registry.Load(kind, driveRoot)
	if warn != nil {
		ins.log.Warn("registry on %s was unreadable, starting fresh: %v", driveRoot, warn)
	}

	enabled := true
	if prev, ok := reg.Get(p.ID); ok && !resetEnabled {
		enabled = prev.Enabled
	}

	pluginsDir := kind.PluginsDir(driveRoot)
	if err := os.MkdirAll(pluginsDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create plugin directory: %v", domain.ErrInstallIO, err)
	}

	fileName := p.File
	if fileName == "" {
		fileName = kind.PluginFileName(p.Name, p.Version, p.Author, p.Description)
	}
	if !enabled {
		fileName = kind.DisabledName(fileName)
	} else {
		fileName = kind.EnabledName(fileName)
	}
	target := filepath.Join(pluginsDir, fileName)

	// Overwrite reinstall: clear the previous payload first so a renamed
	// file from an older version cannot linger.
	if prev, ok := reg.Get(p.ID); ok {
		ins.removeFiles(prev.Files)
	}

	var written []string
	rollback := func() {
		ins.removeFiles(written)
	}

	if err := copyFile(ctx, archivePath, target); err != nil {
		rollback()
		return nil, fmt.Errorf("%w: %v", domain.ErrInstallIO, err)
	}
	written = append(written, target)

	rec := &domain.InstalledPlugin{
		ID:          p.ID,
		Name:        p.Name,
		Version:     p.Version,
		Author:      p.Author,
		Checksum:    p.Checksum,
		Enabled:     enabled,
		InstalledAt: time.Now(),
		Files:       written,
	}
	reg.Put(rec)

	if err := registry.Save(kind, driveRoot, reg); err != nil {
		rollback()
		return nil, err
	}

	ins.log.Info("installed %s %s to %s (enabled=%v)", p.ID, p.Version, driveRoot, enabled)
	return rec, nil
}

// Enable activates an installed plugin by renaming its files to the
// kind's active form.
func (ins *Installer) Enable(kind pe.Kind, driveRoot, pluginID string) error {
	return ins.setEnabled(kind, driveRoot, pluginID, true)
}

// Disable deactivates an installed plugin; Enable reverses it exactly,
// with no file loss.
func (ins *Installer) Disable(kind pe.Kind, driveRoot, pluginID string) error {
	return ins.setEnabled(kind, driveRoot, pluginID, false)
}

func (ins *Installer) setEnabled(kind pe.Kind, driveRoot, pluginID string, enabled bool) error {
	release := ins.locks.acquire(driveRoot)
	defer release()

	reg, warn := registry.Load(kind, driveRoot)
	if warn != nil {
		ins.log.Warn("registry on %s was unreadable: %v", driveRoot, warn)
	}

	rec, ok := reg.Get(pluginID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPluginNotFound, pluginID)
	}

	if rec.Enabled == enabled {
		return nil
	}

	renamed := make([]string, 0, len(rec.Files))
	for _, path := range rec.Files {
		dir, name := filepath.Split(path)
		var newName string
		if enabled {
			newName = kind.EnabledName(name)
		} else {
			newName = kind.DisabledName(name)
		}
		newPath := filepath.Join(dir, newName)

		if err := os.Rename(path, newPath); err != nil {
			// roll the already-renamed files back so the plugin stays in a
			// single consistent state
			for i, done := range renamed {
				_ = os.Rename(done, rec.Files[i])
			}
			return fmt.Errorf("%w: %v", domain.ErrInstallIO, err)
		}
		renamed = append(renamed, newPath)
	}

	rec.Enabled = enabled
	rec.Files = renamed

	return registry.Save(kind, driveRoot, reg)
}

// Uninstall removes every file recorded for the plugin and deletes its
// registry record. Files already gone are tolerated and logged.
func (ins *Installer) Uninstall(kind pe.Kind, driveRoot, pluginID string) error {
	release := ins.locks.acquire(driveRoot)
	defer release()

	reg, warn := registry.Load(kind, driveRoot)
	if warn != nil {
		ins.log.Warn("registry on %s was unreadable: %v", driveRoot, warn)
	}

	rec, ok := reg.Get(pluginID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrPluginNotFound, pluginID)
	}

	ins.removeFiles(rec.Files)
	reg.Delete(pluginID)

	if err := registry.Save(kind, driveRoot, reg); err != nil {
		return err
	}

	ins.log.Info("uninstalled %s from %s", pluginID, driveRoot)
	return nil
}

// Installed returns the registry records for a drive, reconciled with the
// files actually present. The returned warning distinguishes a recovered
// corrupt registry from a plain empty one.
func (ins *Installer) Installed(kind pe.Kind, driveRoot string) ([]*domain.InstalledPlugin, error) {
	release := ins.locks.acquire(driveRoot)
	defer release()

	reg, warn := registry.Load(kind, driveRoot)

	if reg.Adopt(kind, driveRoot) {
		if err := registry.Save(kind, driveRoot, reg); err != nil {
			ins.log.Warn("could not persist adopted registry entries on %s: %v", driveRoot, err)
		}
	}

	return reg.List(), warn
}

func (ins *Installer) removeFiles(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				ins.log.Debug("file already gone during removal: %s", path)
				continue
			}
			ins.log.Warn("could not remove %s: %v", path, err)
		}
	}
}

// verifyArchive recomputes the archive's SHA-256. The downloader already
// checked it, but the installer can be handed any path.
func verifyArchive(path, wantChecksum string) error {
	want := strings.ToLower(wantChecksum)
	if want == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInstallIO, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInstallIO, err)
	}

	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return fmt.Errorf("%w: archive %s: got %s want %s", domain.ErrIntegrityMismatch, path, got, want)
	}

	return nil
}

// copyFile copies src to dst, honoring cancellation between blocks. dst is
// removed on failure.
func copyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	buf := make([]byte, 256<<10)
	for {
		if err := ctx.Err(); err != nil {
			out.Close()
			os.Remove(dst)
			return err
		}

		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				out.Close()
				os.Remove(dst)
				return werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			os.Remove(dst)
			return rerr
		}
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
