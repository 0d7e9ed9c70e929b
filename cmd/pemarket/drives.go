package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var drivesCmd = &cobra.Command{
	Use:   "drives",
	Short: "List attached boot media valid for the selected environment",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		candidates := rt.app.Detector.Detect(cmd.Context(), rt.app.Kind)
		if len(candidates) == 0 {
			fmt.Printf("No %s boot media found.\n", rt.app.Kind.Display())
			return nil
		}

		for _, c := range candidates {
			writable := "read-only"
			if c.Writable {
				writable = "writable"
			}
			note := ""
			if c.Compat {
				note = " (Cloud-PE compatible)"
			}
			fmt.Printf("%-24s %-12s %8.2f GB free  %s%s\n",
				c.Root, c.Version, float64(c.FreeBytes)/(1<<30), writable, note)
		}
		return nil
	},
}
