package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/hamed0406/sitewatch/internal/domain"
)

var alertLimit int

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show recent alerts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var alerts []domain.Alert
		if err := call(http.MethodGet, fmt.Sprintf("/api/alerts?limit=%d", alertLimit), nil, &alerts); err != nil {
			return err
		}
		if len(alerts) == 0 {
			fmt.Println("No alerts.")
			return nil
		}
		for _, a := range alerts {
			fmt.Printf("[%s] %s\n%s\n\n", a.CreatedAt.Local().Format("2006-01-02 15:04:05"), a.Title, a.Body)
		}
		return nil
	},
}

var thresholdCmd = &cobra.Command{
	Use:   "threshold [value]",
	Short: "Show or set the failure threshold",
	Long: `Without an argument, print the failure threshold in effect. With one, apply
it; the value must be a whole number of at least 1 and also sets how many
outcomes are kept per site.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var out struct {
			Threshold  int `json:"threshold"`
			MaxRecords int `json:"max_records"`
		}
		var err error
		if len(args) == 1 {
			err = call(http.MethodPut, "/api/config/threshold", map[string]string{"threshold": args[0]}, &out)
		} else {
			err = call(http.MethodGet, "/api/config/threshold", nil, &out)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Threshold: %d (keeping %d outcomes per site)\n", out.Threshold, out.MaxRecords)
		return nil
	},
}

func init() {
	alertsCmd.Flags().IntVar(&alertLimit, "limit", 20, "how many alerts to show")
	rootCmd.AddCommand(alertsCmd, thresholdCmd)
}
