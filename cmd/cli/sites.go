package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/hamed0406/sitewatch/internal/domain"
)

var showOptions bool

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List monitored sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showOptions {
			var opts []domain.Site
			if err := call(http.MethodGet, "/api/sites/options", nil, &opts); err != nil {
				return err
			}
			printSites(opts)
			return nil
		}
		var out struct {
			Enabled bool          `json:"enabled"`
			Sites   []domain.Site `json:"sites"`
		}
		if err := call(http.MethodGet, "/api/sites", nil, &out); err != nil {
			return err
		}
		if !out.Enabled {
			fmt.Println("Monitoring is disabled: no site selected.")
			return nil
		}
		fmt.Printf("Monitored sites (%d):\n\n", len(out.Sites))
		printSites(out.Sites)
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <site-id>",
	Short: "Stop monitoring a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out struct {
			Enabled bool `json:"enabled"`
		}
		if err := call(http.MethodDelete, "/api/sites/"+url.PathEscape(args[0]), nil, &out); err != nil {
			return err
		}
		fmt.Printf("Site %s removed.\n", args[0])
		if !out.Enabled {
			fmt.Println("No site left; scheduled scans are paused.")
		}
		return nil
	},
}

func printSites(sites []domain.Site) {
	for _, s := range sites {
		fmt.Printf("  %-8s %-24s %s\n", s.ID, s.DisplayName(), s.Domain)
	}
}

func init() {
	sitesCmd.Flags().BoolVar(&showOptions, "all", false, "list every selectable site")
	rootCmd.AddCommand(sitesCmd, removeCmd)
}
