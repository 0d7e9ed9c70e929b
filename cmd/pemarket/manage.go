package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudpe/pemarket/internal/catalog"
	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/pe"
)

var flagManageDrive string

func init() {
	for _, c := range []*cobra.Command{listCmd, enableCmd, disableCmd, uninstallCmd} {
		c.Flags().StringVarP(&flagManageDrive, "drive", "d", "", "drive root (default: first detected)")
	}
}

// resolveDrive picks the target drive for a manage operation.
func resolveDrive(cmd *cobra.Command, rt *runtime) (string, error) {
	if flagManageDrive != "" {
		return flagManageDrive, nil
	}
	candidates := rt.app.Detector.Detect(cmd.Context(), rt.app.Kind)
	if len(candidates) == 0 {
		return "", domain.ErrNoValidDrive
	}
	return candidates[0].Root, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List plugins installed on a boot medium",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		driveRoot, err := resolveDrive(cmd, rt)
		if err != nil {
			return err
		}

		records, warn := rt.app.Plugins.Installed(rt.app.Kind, driveRoot)
		if warn != nil {
			fmt.Printf("Warning: %v (registry was rebuilt)\n", warn)
		}

		if len(records) == 0 {
			fmt.Printf("No plugins installed on %s.\n", driveRoot)
			return nil
		}

		available, _, _ := rt.app.Market.Cached(rt.app.Kind)

		for _, rec := range records {
			state := "disabled"
			if rec.Enabled {
				state = "enabled"
			}
			update := ""
			if p, ok := catalog.FindByID(available, rec.ID); ok && catalog.UpdateAvailable(rec.Version, p.Version) {
				update = fmt.Sprintf("  update %s available", p.Version)
			}
			fmt.Printf("%-40s %-10s %-9s installed %s%s\n",
				rec.ID, rec.Version, state, rec.InstalledAt.Format("2006-01-02"), update)
		}
		return nil
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable <plugin-id>",
	Short: "Activate an installed plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return managePlugin(cmd, args[0], func(rt *runtime, kind pe.Kind, driveRoot string) error {
			return rt.app.Plugins.Enable(kind, driveRoot, args[0])
		})
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <plugin-id>",
	Short: "Deactivate an installed plugin without removing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return managePlugin(cmd, args[0], func(rt *runtime, kind pe.Kind, driveRoot string) error {
			return rt.app.Plugins.Disable(kind, driveRoot, args[0])
		})
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <plugin-id>",
	Short: "Remove an installed plugin and its registry record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return managePlugin(cmd, args[0], func(rt *runtime, kind pe.Kind, driveRoot string) error {
			return rt.app.Plugins.Uninstall(kind, driveRoot, args[0])
		})
	},
}

func managePlugin(cmd *cobra.Command, pluginID string, op func(rt *runtime, kind pe.Kind, driveRoot string) error) error {
	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close()

	driveRoot, err := resolveDrive(cmd, rt)
	if err != nil {
		return err
	}

	if err := op(rt, rt.app.Kind, driveRoot); err != nil {
		return err
	}

	fmt.Printf("%s: ok\n", pluginID)
	return nil
}
