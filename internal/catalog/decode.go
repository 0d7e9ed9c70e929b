package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/pe"
)

// The two upstream catalogs use different envelopes. Cloud-PE wraps the
// category list in {code,message,data}; HotPE uses {state,data} and packs
// the plugin metadata into the module file name.

type cloudPEEnvelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    []cloudPECategory `json:"data"`
}

type cloudPECategory struct {
	Class string          `json:"class"`
	List  []cloudPEPlugin `json:"list"`
}

type cloudPEPlugin struct {
	Name     string `json:"name"`
	Size     string `json:"size"`
	Version  string `json:"version"`
	Author   string `json:"author"`
	Describe string `json:"describe"`
	File     string `json:"file"`
	Link     string `json:"link"`
	Checksum string `json:"sha256"`
}

type hotPEEnvelope struct {
	State string          `json:"state"`
	Data  []hotPECategory `json:"data"`
}

type hotPECategory struct {
	Class string        `json:"class"`
	List  []hotPEModule `json:"list"`
}

type hotPEModule struct {
	Name     string          `json:"name"`
	Size     json.RawMessage `json:"size"` // number or string, upstream is inconsistent
	Link     string          `json:"link"`
	Checksum string          `json:"sha256"`
}

// Decode parses a catalog document for kind into the flat, ordered plugin
// list. Category order and in-category order are preserved; duplicate
// entries are dropped.
func Decode(kind pe.Kind, r io.Reader) ([]domain.Plugin, error) {
	switch kind {
	case pe.CloudPE:
		return decodeCloudPE(r)
	case pe.HotPE:
		return decodeHotPE(r)
	}
	return nil, fmt.Errorf("%w: unsupported kind %q", domain.ErrCatalogParse, kind)
}

func decodeCloudPE(r io.Reader) ([]domain.Plugin, error) {
	var env cloudPEEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogParse, err)
	}

	if env.Code != 200 {
		return nil, fmt.Errorf("%w: catalog rejected request: %s", domain.ErrCatalogParse, env.Message)
	}

	var out []domain.Plugin
	seen := make(map[string]bool)

	for _, cat := range env.Data {
		for _, p := range cat.List {
			plugin := domain.Plugin{
				ID:          domain.PluginID(p.Name, p.Author),
				Name:        p.Name,
				Version:     p.Version,
				Author:      p.Author,
				Category:    cat.Class,
				Description: p.Describe,
				File:        p.File,
				Size:        parseSizeText(p.Size),
				SizeText:    p.Size,
				Checksum:    strings.ToLower(p.Checksum),
				DownloadURL: p.Link,
			}
			if seen[plugin.DedupeKey()] {
				continue
			}
			seen[plugin.DedupeKey()] = true
			out = append(out, plugin)
		}
	}

	return out, nil
}

func decodeHotPE(r io.Reader) ([]domain.Plugin, error) {
	var env hotPEEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogParse, err)
	}

	if env.State != "success" {
		return nil, fmt.Errorf("%w: catalog state %q", domain.ErrCatalogParse, env.State)
	}

	var out []domain.Plugin
	seen := make(map[string]bool)

	for _, cat := range env.Data {
		for _, m := range cat.List {
			name, author, version, describe := parseHPMName(m.Name)
			sizeBytes, sizeText := parseHotPESize(m.Size)

			plugin := domain.Plugin{
				ID:          domain.PluginID(name, author),
				Name:        name,
				Version:     version,
				Author:      author,
				Category:    cat.Class,
				Description: describe,
				File:        m.Name,
				Size:        sizeBytes,
				SizeText:    sizeText,
				Checksum:    strings.ToLower(m.Checksum),
				DownloadURL: m.Link,
			}
			if seen[plugin.DedupeKey()] {
				continue
			}
			seen[plugin.DedupeKey()] = true
			out = append(out, plugin)
		}
	}

	return out, nil
}

// parseHPMName splits "name_author_version[_describe].HPM". Files that do
// not follow the convention keep the whole file name as the plugin name.
func parseHPMName(fileName string) (name, author, version, describe string) {
	base := strings.TrimSuffix(fileName, ".HPM")
	parts := strings.Split(base, "_")

	switch {
	case len(parts) >= 4:
		return parts[0], parts[1], parts[2], strings.Join(parts[3:], "_")
	case len(parts) == 3:
		return parts[0], parts[1], parts[2], ""
	default:
		return fileName, "", "", ""
	}
}

// parseHotPESize normalizes the size field, which upstream serves as either
// a byte count or a pre-formatted string.
func parseHotPESize(raw json.RawMessage) (int64, string) {
	if len(raw) == 0 {
		return 0, ""
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, formatSize(n)
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int64(f), formatSize(int64(f))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseSizeText(s), s
	}

	return 0, ""
}
