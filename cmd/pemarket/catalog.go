package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudpe/pemarket/internal/catalog"
	"github.com/cloudpe/pemarket/internal/domain"
)

var (
	flagSearch   string
	flagCategory string
	flagOffline  bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List available plugins from the marketplace",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.close()

		var plugins []domain.Plugin
		if flagOffline {
			cached, ts, err := rt.app.Market.Cached(rt.app.Kind)
			if err != nil {
				return err
			}
			if len(cached) == 0 {
				return fmt.Errorf("no cached catalog for %s; run once online first", rt.app.Kind)
			}
			fmt.Printf("Using cached catalog from %s\n", ts.Format("2006-01-02 15:04"))
			plugins = cached
		} else {
			plugins, err = rt.app.Market.Fetch(cmd.Context(), rt.app.Kind)
			if err != nil {
				return err
			}
		}

		plugins = catalog.Search(plugins, flagSearch, flagCategory)

		if len(plugins) == 0 {
			fmt.Println("No plugins matched.")
			return nil
		}

		lastCategory := ""
		for _, p := range plugins {
			if p.Category != lastCategory {
				fmt.Printf("\n[%s]\n", p.Category)
				lastCategory = p.Category
			}
			fmt.Printf("  %-40s %-10s %-12s %s\n", p.ID, p.Version, p.SizeText, p.Description)
		}
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&flagSearch, "search", "s", "", "substring search on name/author/description")
	catalogCmd.Flags().StringVarP(&flagCategory, "category", "c", "", "exact category filter")
	catalogCmd.Flags().BoolVar(&flagOffline, "offline", false, "use the cached catalog, skip the network")
}
