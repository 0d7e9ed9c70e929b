package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudpe/pemarket/internal/app"
	"github.com/cloudpe/pemarket/internal/catalog"
	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/drive"
	"github.com/cloudpe/pemarket/internal/engine"
	"github.com/cloudpe/pemarket/internal/infra/config"
	"github.com/cloudpe/pemarket/internal/infra/logger"
	"github.com/cloudpe/pemarket/internal/installer"
	"github.com/cloudpe/pemarket/internal/pe"
)

var (
	flagConfig string
	flagMode   string
)

var rootCmd = &cobra.Command{
	Use:          "pemarket",
	Short:        "Browse and install plugins for Cloud-PE and HotPE boot media",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "environment kind: cloudpe or hotpe")

	rootCmd.AddCommand(drivesCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(serveCmd)
}

// runtime bundles the wired engine services for one command invocation.
type runtime struct {
	app     *app.Context
	manager *engine.Manager
	sink    *engine.ProgressSink
	close   func()
}

// bootstrap loads config, builds the engine stack, and wires it into an
// app.Context.
func bootstrap() (*runtime, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	mode := cfg.Mode
	if flagMode != "" {
		mode = flagMode
	}
	kind, err := pe.Parse(mode)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}

	var cache *catalog.Cache
	cache, err = catalog.OpenCache(cfg.Cache.Path)
	if err != nil {
		log.Warn("catalog cache unavailable: %v", err)
		cache = nil
	}

	client := catalog.NewClient(log, cache)
	client.Overrides = map[pe.Kind]string{
		pe.CloudPE: cfg.Sources.CloudPE,
		pe.HotPE:   cfg.Sources.HotPE,
	}

	detector := drive.NewDetector(log)
	detector.Preferred = cfg.Drive.Default
	detector.ExtraRoots = cfg.Drive.ExtraRoots

	ins := installer.New(log)

	sink := engine.NewProgressSink(64)
	writer := engine.NewFileWriter()
	dl := engine.NewDownloader(log, writer, sink)

	install := func(ctx context.Context, archivePath string, job *domain.Job) error {
		_, err := ins.Install(ctx, archivePath, job.Plugin, kind, job.DriveRoot, false)
		return err
	}
	manager := engine.NewManager(log, dl, install, sink, cfg.Download.StagingDir)

	appCtx := app.NewContext(cfg, log, kind)
	appCtx.Market = client
	appCtx.Queue = manager
	appCtx.Plugins = ins
	appCtx.Detector = detector
	appCtx.Progress = sink.Events()

	closeFn := func() {
		if cache != nil {
			cache.Close()
		}
	}

	return &runtime{app: appCtx, manager: manager, sink: sink, close: closeFn}, nil
}
