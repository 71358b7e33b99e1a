package main

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hamed0406/sitewatch/internal/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history [domain]",
	Short: "Show recorded outcomes, for every site or one domain",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			var h struct {
				Domain    string           `json:"domain"`
				Threshold int              `json:"threshold"`
				Failures  int              `json:"failures"`
				Failing   bool             `json:"failing"`
				Outcomes  []domain.Outcome `json:"outcomes"`
			}
			if err := call(http.MethodGet, "/api/history/"+url.PathEscape(args[0]), nil, &h); err != nil {
				return err
			}
			fmt.Printf("%s: %d/%d failures (threshold %d)\n", h.Domain, h.Failures, len(h.Outcomes), h.Threshold)
			printOutcomes(h.Outcomes)
			return nil
		}

		var state domain.HistoryState
		if err := call(http.MethodGet, "/api/history", nil, &state); err != nil {
			return err
		}
		if len(state) == 0 {
			fmt.Println("No history recorded yet.")
			return nil
		}
		keys := make([]string, 0, len(state))
		for d := range state {
			keys = append(keys, d)
		}
		sort.Strings(keys)
		for _, d := range keys {
			fmt.Printf("%s\n", d)
			printOutcomes(state[d])
			fmt.Println()
		}
		return nil
	},
}

func printOutcomes(outcomes []domain.Outcome) {
	for _, o := range outcomes {
		mark := "ok  "
		if !o.Succeeded {
			mark = "FAIL"
		}
		fmt.Printf("  %s  %s  %s\n", o.ObservedAt.Local().Format("2006-01-02 15:04:05"), mark, o.Message)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
