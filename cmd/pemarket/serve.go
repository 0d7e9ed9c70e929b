package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"

	"github.com/cloudpe/pemarket/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API the graphical shell talks to",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// job loop runs for the lifetime of the server
		go rt.manager.Start(ctx)

		e := echo.New()
		api.RegisterRoutes(e, rt.app)

		rt.app.Logger.Info("listening on :%s", rt.app.Config.Port)

		// cancelling ctx triggers the graceful shutdown inside Start
		start := echo.StartConfig{
			Address:         ":" + rt.app.Config.Port,
			HideBanner:      true,
			GracefulTimeout: 5 * time.Second,
		}
		return start.Start(ctx, e)
	},
}
