package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudpe/pemarket/internal/catalog"
	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/infra/config"
)

var (
	flagDrive   string
	flagThreads int
)

var installCmd = &cobra.Command{
	Use:   "install <plugin-id>",
	Short: "Download a plugin and install it onto a boot medium",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		plugins, err := rt.app.Market.Fetch(ctx, rt.app.Kind)
		if err != nil {
			return err
		}

		p, ok := catalog.FindByID(plugins, args[0])
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrPluginNotFound, args[0])
		}

		driveRoot := flagDrive
		if driveRoot == "" {
			candidates := rt.app.Detector.Detect(ctx, rt.app.Kind)
			if len(candidates) == 0 {
				return domain.ErrNoValidDrive
			}
			if !candidates[0].Writable {
				return fmt.Errorf("%w: %s", domain.ErrDriveNotWritable, candidates[0].Root)
			}
			driveRoot = candidates[0].Root
			fmt.Printf("Using boot medium %s (%s)\n", driveRoot, candidates[0].Version)
		}

		threads := config.ClampThreads(flagThreads)
		if flagThreads == 0 {
			threads = rt.app.Config.Download.Threads
		}

		job := rt.manager.Add(p, driveRoot, threads)
		fmt.Printf("Installing %s %s with %d workers...\n", p.ID, p.Version, threads)

		go rt.manager.Start(ctx)

		return watchJob(ctx, rt.sink.Events(), job.ID)
	},
}

func init() {
	installCmd.Flags().StringVarP(&flagDrive, "drive", "d", "", "target drive root (default: first detected)")
	installCmd.Flags().IntVarP(&flagThreads, "threads", "t", 0, "download worker count (1/2/4/8/16/32)")
}

// watchJob renders progress events for one job until it reaches a terminal
// phase.
func watchJob(ctx context.Context, events <-chan domain.ProgressEvent, jobID string) error {
	started := time.Now()

	for {
		select {
		case <-ctx.Done():
			return domain.ErrDownloadCancelled
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.JobID != jobID {
				continue
			}

			switch ev.Phase {
			case domain.PhaseDownloading:
				renderProgress(ev, started)
			case domain.PhaseInstalling:
				fmt.Printf("\nInstalling...")
			case domain.PhaseDone:
				fmt.Printf("\nDone in %s.\n", time.Since(started).Truncate(time.Second))
				return nil
			case domain.PhaseError:
				fmt.Println()
				return ev.Err
			}
		}
	}
}

// renderProgress draws a single-line bar:
// [====>    ]  42.0% | 12/30 MB
func renderProgress(ev domain.ProgressEvent, started time.Time) {
	const barWidth = 20

	percent := ev.Percent()
	completedWidth := int(percent / 100 * barWidth)
	bar := strings.Repeat("=", completedWidth)
	if completedWidth < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-completedWidth-1)
	}

	elapsed := time.Since(started).Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(ev.Done) / elapsed / (1 << 20)
	}

	fmt.Printf("\r[%s] %5.1f%% | %6.2f MB/s | %d/%d MB      ",
		bar, percent, speed, ev.Done/(1<<20), ev.Total/(1<<20))
}
