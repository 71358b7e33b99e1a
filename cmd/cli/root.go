package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiBase string
	apiKey  string
)

var rootCmd = &cobra.Command{
	Use:   "sitewatch",
	Short: "Talk to a running sitewatch API",
	Long: `sitewatch probes a list of sites on a schedule and raises one alert per
cycle for every site whose recent history holds too many failed checks.

This client drives a running instance: trigger scans, inspect history and
alerts, change the failure threshold or stop monitoring a site.`,
	SilenceUsage: true,
}

func init() {
	base := os.Getenv("API_BASE")
	if base == "" {
		base = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", base, "API base URL (env API_BASE)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "key", os.Getenv("API_KEY"), "API key (env API_KEY)")
}

var client = &http.Client{Timeout: 2 * time.Minute} // a scan can take a while

// call sends a request and decodes a JSON response into out when non-nil.
func call(method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(apiBase, "/")+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error contacting API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error != "" {
			return fmt.Errorf("API returned %s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("API returned %s", resp.Status)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
