package app

import (
	"context"
	"time"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/drive"
	"github.com/cloudpe/pemarket/internal/infra/config"
	"github.com/cloudpe/pemarket/internal/infra/logger"
	"github.com/cloudpe/pemarket/internal/pe"
)

// Market is the catalog surface the UI layers consume.
type Market interface {
	Fetch(ctx context.Context, kind pe.Kind) ([]domain.Plugin, error)
	Cached(kind pe.Kind) ([]domain.Plugin, time.Time, error)
	Ping(ctx context.Context, kind pe.Kind) bool
}

// Queue is the job-manager surface: enqueue, observe, cancel. Observers
// only ever see value snapshots of the jobs.
type Queue interface {
	Add(p domain.Plugin, driveRoot string, threads int) domain.JobSnapshot
	Items() []domain.JobSnapshot
	Active() (domain.JobSnapshot, bool)
	Cancel(id string) bool
}

// PluginManager covers the registry-mutating operations against one drive.
type PluginManager interface {
	Enable(kind pe.Kind, driveRoot, pluginID string) error
	Disable(kind pe.Kind, driveRoot, pluginID string) error
	Uninstall(kind pe.Kind, driveRoot, pluginID string) error
	Installed(kind pe.Kind, driveRoot string) ([]*domain.InstalledPlugin, error)
}

// Detector finds valid boot media for a kind.
type Detector interface {
	Detect(ctx context.Context, kind pe.Kind) []drive.Candidate
}

// Context holds the shared environment for one run: configuration, the
// logger, and the engine services behind narrow interfaces so consumers
// (CLI, HTTP API) never import the concrete packages.
type Context struct {
	Config *config.Config
	Logger *logger.Logger
	Kind   pe.Kind

	Market   Market
	Queue    Queue
	Plugins  PluginManager
	Detector Detector
	Progress <-chan domain.ProgressEvent
}

func NewContext(cfg *config.Config, log *logger.Logger, kind pe.Kind) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
		Kind:   kind,
	}
}
