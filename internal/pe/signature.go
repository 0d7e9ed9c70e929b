package pe

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Signature is the result of probing one volume root for a boot-medium
// marker.
type Signature struct {
	Match   bool
	Version string // medium version when the marker carries one
	Compat  bool   // matched via the Cloud-PE compatibility rule
}

// Probe checks whether the volume rooted at root is a prepared boot medium
// of this kind. A Cloud-PE medium also counts as a HotPE target; HotPE
// tooling reads modules from any Cloud-PE stick.
func (k Kind) Probe(root string) Signature {
	switch k {
	case CloudPE:
		if v, ok := cloudPEMarker(root); ok {
			return Signature{Match: true, Version: v}
		}
	case HotPE:
		if dirExists(filepath.Join(root, "HotPEModule")) {
			return Signature{Match: true, Version: "HotPE"}
		}
		if v, ok := cloudPEMarker(root); ok {
			return Signature{Match: true, Version: v, Compat: true}
		}
	}
	return Signature{}
}

// cloudPEMarker requires both the config file and the boot image, matching
// how prepared media are laid out.
func cloudPEMarker(root string) (string, bool) {
	cfgPath := filepath.Join(root, "cloud-pe", "config.json")
	isoPath := filepath.Join(root, "Cloud-PE.iso")

	if !fileExists(cfgPath) || !fileExists(isoPath) {
		return "", false
	}

	return readCloudPEVersion(cfgPath), true
}

// readCloudPEVersion pulls pe.version out of the medium config. A medium
// with an unreadable config is still a valid target, just unversioned.
func readCloudPEVersion(cfgPath string) string {
	raw, err := os.ReadFile(cfgPath)
	if err != nil {
		return ""
	}

	var cfg struct {
		PE struct {
			Version string `json:"version"`
		} `json:"pe"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ""
	}

	return cfg.PE.Version
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
