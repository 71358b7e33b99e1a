package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hamed0406/sitewatch/internal/domain"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle now",
	RunE: func(cmd *cobra.Command, args []string) error {
		var out struct {
			Report domain.CycleReport `json:"report"`
			Error  string             `json:"error"`
		}
		if err := call(http.MethodPost, "/api/scan", nil, &out); err != nil {
			return err
		}
		r := out.Report
		fmt.Printf("Cycle %s: probed %d site(s), %d probe error(s), threshold %d\n",
			r.ID, r.Probed, r.ProbeErrors, r.Threshold)
		if len(r.Failing) == 0 {
			fmt.Println("No site reached the failure threshold.")
		} else {
			fmt.Printf("Failing: %s\n", strings.Join(r.Failing, ", "))
		}
		if r.Alert != nil {
			fmt.Printf("\n%s\n%s\n", r.Alert.Title, r.Alert.Body)
		}
		if out.Error != "" {
			fmt.Printf("\nwarning: %s\n", out.Error)
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear stored history, alerts and logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := call(http.MethodDelete, "/api/history", nil, nil); err != nil {
			return err
		}
		fmt.Println("History cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd, resetCmd)
}
