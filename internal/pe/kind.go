// Package pe holds the capability table for the supported boot-environment
// kinds. Everything layout-specific (signature paths, plugin directory,
// enable/disable naming, catalog endpoints) lives here so the detector,
// installer and catalog client stay environment-agnostic.
package pe

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Kind string

const (
	CloudPE Kind = "cloudpe"
	HotPE   Kind = "hotpe"
)

// Kinds lists the supported environments in a stable order.
func Kinds() []Kind { return []Kind{CloudPE, HotPE} }

func Parse(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cloudpe", "cloud-pe", "ce":
		return CloudPE, nil
	case "hotpe", "hot-pe", "hpm":
		return HotPE, nil
	}
	return "", fmt.Errorf("unknown environment kind %q (want cloudpe or hotpe)", s)
}

type layout struct {
	display     string
	pluginsDir  string
	enabledExt  string // extension of an active plugin file
	disabledExt string // extension of a deactivated plugin file
	catalogURL  string
	pingURL     string
}

var layouts = map[Kind]layout{
	CloudPE: {
		display:     "Cloud-PE",
		pluginsDir:  "ce-apps",
		enabledExt:  ".ce",
		disabledExt: ".CBK",
		catalogURL:  "https://api.cloud-pe.cn/GetPlugins/",
		pingURL:     "https://api.cloud-pe.cn/Hub/connecttest/",
	},
	HotPE: {
		display:     "HotPE",
		pluginsDir:  "HotPEModule",
		enabledExt:  ".HPM",
		disabledExt: ".hpm.off",
		catalogURL:  "https://api.hotpe.top/API/HotPE/GetHPMList/",
		pingURL:     "https://api.hotpe.top/API/HotPE/GetHPMList/",
	},
}

func (k Kind) String() string  { return string(k) }
func (k Kind) Display() string { return layouts[k].display }

// PluginsDir returns the plugin directory on a medium rooted at root.
func (k Kind) PluginsDir(root string) string {
	return filepath.Join(root, layouts[k].pluginsDir)
}

func (k Kind) CatalogURL() string { return layouts[k].catalogURL }
func (k Kind) PingURL() string    { return layouts[k].pingURL }

func (k Kind) EnabledExt() string  { return layouts[k].enabledExt }
func (k Kind) DisabledExt() string { return layouts[k].disabledExt }

// EnabledName converts a plugin file name to its active form.
// Already-active names pass through unchanged. The extension check is
// case-insensitive, matching how the boot environments treat the files.
func (k Kind) EnabledName(name string) string {
	l := layouts[k]
	if k.IsEnabledName(name) {
		return name
	}
	if k.IsDisabledName(name) {
		return name[:len(name)-len(l.disabledExt)] + l.enabledExt
	}
	return name + l.enabledExt
}

// DisabledName converts a plugin file name to its deactivated form.
// The mapping is the exact inverse of EnabledName so disable→enable is
// lossless.
func (k Kind) DisabledName(name string) string {
	l := layouts[k]
	if k.IsDisabledName(name) {
		return name
	}
	if k.IsEnabledName(name) {
		return name[:len(name)-len(l.enabledExt)] + l.disabledExt
	}
	return name + l.disabledExt
}

func (k Kind) IsEnabledName(name string) bool {
	l := layouts[k]
	// HotPE disabled files still end in .HPM.off, so the disabled check
	// must win.
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(l.enabledExt)) &&
		!k.IsDisabledName(name)
}

func (k Kind) IsDisabledName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), strings.ToLower(layouts[k].disabledExt))
}

// PluginFileName builds the published archive file name for a catalog
// entry, used when the catalog does not carry one. Field order follows the
// upstream conventions: Cloud-PE packs name_version_author_describe,
// HotPE packs name_author_version_describe.
func (k Kind) PluginFileName(name, version, author, describe string) string {
	switch k {
	case HotPE:
		return joinFields(name, author, version, describe) + layouts[k].enabledExt
	default:
		return joinFields(name, version, author, describe) + layouts[k].enabledExt
	}
}

func joinFields(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(strings.TrimSpace(f), "_", "-")
		if f == "" {
			f = "-"
		}
		parts = append(parts, f)
	}
	// trailing empty describe is dropped
	for len(parts) > 3 && parts[len(parts)-1] == "-" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "_")
}
