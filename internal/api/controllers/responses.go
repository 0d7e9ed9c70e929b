package controllers

import (
	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/drive"
)

type CatalogResponse struct {
	Kind       string          `json:"kind"`
	Count      int             `json:"count"`
	Categories []string        `json:"categories"`
	Plugins    []domain.Plugin `json:"plugins"`
}

type DrivesResponse struct {
	Drives []drive.Candidate `json:"drives"`
}

type InstallRequest struct {
	PluginID string `json:"pluginId"`
	Drive    string `json:"drive,omitempty"`
	Threads  int    `json:"threads,omitempty"`
}

type QueueResponse struct {
	Jobs []domain.JobSnapshot `json:"jobs"`
}

// InstalledView decorates a registry record with the newer catalog
// version, when one is known.
type InstalledView struct {
	*domain.InstalledPlugin
	UpdateTo string `json:"updateTo,omitempty"`
}

type InstalledResponse struct {
	Drive   string          `json:"drive"`
	Warning string          `json:"warning,omitempty"`
	Plugins []InstalledView `json:"plugins"`
}

type ErrorResponse struct {
	Error *domain.StatusError `json:"error"`
}
