package controllers

import (
	"net/http"

	"github.com/cloudpe/pemarket/internal/app"
	"github.com/cloudpe/pemarket/internal/catalog"
	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/infra/config"
	"github.com/cloudpe/pemarket/internal/pe"
	"github.com/labstack/echo/v5"
)

type MarketController struct {
	App *app.Context
}

// HandleCatalog serves the plugin catalog, filtered by the optional q and
// category query params.
func (ctrl *MarketController) HandleCatalog(c *echo.Context) error {
	plugins, err := ctrl.App.Market.Fetch(c.Request().Context(), ctrl.App.Kind)
	if err != nil {
		return ctrl.fail(c, err)
	}

	plugins = catalog.Search(plugins, c.QueryParam("q"), c.QueryParam("category"))

	return c.JSON(http.StatusOK, CatalogResponse{
		Kind:       ctrl.App.Kind.String(),
		Count:      len(plugins),
		Categories: catalog.Categories(plugins),
		Plugins:    plugins,
	})
}

// HandleDrives lists boot media currently valid for the selected kind.
func (ctrl *MarketController) HandleDrives(c *echo.Context) error {
	candidates := ctrl.App.Detector.Detect(c.Request().Context(), ctrl.App.Kind)
	return c.JSON(http.StatusOK, DrivesResponse{Drives: candidates})
}

// HandleQueue reports the job queue with live progress counters.
func (ctrl *MarketController) HandleQueue(c *echo.Context) error {
	return c.JSON(http.StatusOK, QueueResponse{Jobs: ctrl.App.Queue.Items()})
}

// HandleInstall enqueues a download+install job for a catalog plugin.
func (ctrl *MarketController) HandleInstall(c *echo.Context) error {
	var req InstallRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: &domain.StatusError{Kind: "BadRequest", Message: "invalid request body"}})
	}

	plugins, err := ctrl.App.Market.Fetch(c.Request().Context(), ctrl.App.Kind)
	if err != nil {
		return ctrl.fail(c, err)
	}

	p, ok := catalog.FindByID(plugins, req.PluginID)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: domain.DescribeError(domain.ErrPluginNotFound)})
	}

	driveRoot := req.Drive
	if driveRoot == "" {
		candidates := ctrl.App.Detector.Detect(c.Request().Context(), ctrl.App.Kind)
		if len(candidates) == 0 {
			return ctrl.fail(c, domain.ErrNoValidDrive)
		}
		driveRoot = candidates[0].Root
	}

	threads := req.Threads
	if threads == 0 {
		threads = ctrl.App.Config.Download.Threads
	}
	threads = config.ClampThreads(threads)

	job := ctrl.App.Queue.Add(p, driveRoot, threads)
	return c.JSON(http.StatusAccepted, job)
}

// HandleCancel cancels a queued or running job.
func (ctrl *MarketController) HandleCancel(c *echo.Context) error {
	if !ctrl.App.Queue.Cancel(c.Param("id")) {
		return c.NoContent(http.StatusNotFound)
	}
	return c.NoContent(http.StatusAccepted)
}

// HandleInstalled lists the registry of a drive.
func (ctrl *MarketController) HandleInstalled(c *echo.Context) error {
	driveRoot := c.QueryParam("drive")
	if driveRoot == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: &domain.StatusError{Kind: "BadRequest", Message: "missing drive query param"}})
	}

	records, warn := ctrl.App.Plugins.Installed(ctrl.App.Kind, driveRoot)

	// annotate with newer catalog versions; the cached catalog is enough
	// and keeps this endpoint off the network
	available, _, _ := ctrl.App.Market.Cached(ctrl.App.Kind)

	views := make([]InstalledView, 0, len(records))
	for _, rec := range records {
		view := InstalledView{InstalledPlugin: rec}
		if p, ok := catalog.FindByID(available, rec.ID); ok && catalog.UpdateAvailable(rec.Version, p.Version) {
			view.UpdateTo = p.Version
		}
		views = append(views, view)
	}

	resp := InstalledResponse{Drive: driveRoot, Plugins: views}
	if warn != nil {
		resp.Warning = warn.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleEnable / HandleDisable / HandleUninstall mutate one installed
// plugin on a drive.
func (ctrl *MarketController) HandleEnable(c *echo.Context) error {
	return ctrl.mutate(c, ctrl.App.Plugins.Enable)
}

func (ctrl *MarketController) HandleDisable(c *echo.Context) error {
	return ctrl.mutate(c, ctrl.App.Plugins.Disable)
}

func (ctrl *MarketController) HandleUninstall(c *echo.Context) error {
	return ctrl.mutate(c, ctrl.App.Plugins.Uninstall)
}

func (ctrl *MarketController) mutate(c *echo.Context, op func(kind pe.Kind, driveRoot, pluginID string) error) error {
	driveRoot := c.QueryParam("drive")
	if driveRoot == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: &domain.StatusError{Kind: "BadRequest", Message: "missing drive query param"}})
	}

	if err := op(ctrl.App.Kind, driveRoot, c.Param("id")); err != nil {
		return ctrl.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// fail converts engine errors to the structured wire form with a status
// code matching the error kind.
func (ctrl *MarketController) fail(c *echo.Context, err error) error {
	status := domain.DescribeError(err)

	code := http.StatusInternalServerError
	switch status.Kind {
	case "NetworkUnavailable":
		code = http.StatusBadGateway
	case "CatalogParseError":
		code = http.StatusBadGateway
	case "PluginNotFound", "NoValidDrive":
		code = http.StatusNotFound
	case "DriveNotWritable":
		code = http.StatusConflict
	}

	return c.JSON(code, ErrorResponse{Error: status})
}
