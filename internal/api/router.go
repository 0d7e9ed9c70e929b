package api

import (
	"github.com/cloudpe/pemarket/internal/api/controllers"
	"github.com/cloudpe/pemarket/internal/app"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

// RegisterRoutes wires the local status/control API consumed by the
// graphical shell.
func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	ctrl := &controllers.MarketController{App: app}

	e.GET("/api/catalog", ctrl.HandleCatalog)
	e.GET("/api/drives", ctrl.HandleDrives)
	e.GET("/api/queue", ctrl.HandleQueue)
	e.POST("/api/install", ctrl.HandleInstall)
	e.DELETE("/api/queue/:id", ctrl.HandleCancel)

	e.GET("/api/plugins", ctrl.HandleInstalled)
	e.POST("/api/plugins/:id/enable", ctrl.HandleEnable)
	e.POST("/api/plugins/:id/disable", ctrl.HandleDisable)
	e.DELETE("/api/plugins/:id", ctrl.HandleUninstall)
}
