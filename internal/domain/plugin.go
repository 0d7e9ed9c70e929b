package domain

import (
	"fmt"
	"time"
)

// Plugin describes one catalog entry. Immutable once fetched; uniquely
// identified by ID within a catalog.
type Plugin struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	Description string `json:"describe"`
	File        string `json:"file"` // archive file name as published, may be empty
	Size        int64  `json:"size"` // bytes; 0 when the catalog did not report it
	SizeText    string `json:"sizeText"`
	Checksum    string `json:"checksum"` // hex SHA-256; empty when the catalog omits it
	DownloadURL string `json:"link"`
}

// PluginID builds the stable identifier used to key catalog entries and
// registry records.
func PluginID(name, author string) string {
	return fmt.Sprintf("%s_%s", name, author)
}

// DedupeKey distinguishes re-published entries the upstream catalogs
// sometimes list twice.
func (p Plugin) DedupeKey() string {
	return fmt.Sprintf("%s_%s_%s_%s", p.Name, p.Version, p.Author, p.SizeText)
}

// InstalledPlugin is the persistent record of one installed plugin on a
// boot medium. Files holds every path written during install so removal
// and disable can operate without guessing.
type InstalledPlugin struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Author      string    `json:"author"`
	Checksum    string    `json:"checksum,omitempty"`
	Enabled     bool      `json:"enabled"`
	InstalledAt time.Time `json:"installedAt"`
	Files       []string  `json:"files"`
}
