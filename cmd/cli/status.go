package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wbnlp/docmap/pkg/config"
)

func newStatusCmd(configFile *string) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the status of the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = serviceURL(config.Load(*configFile))
			}

			if err := checkHealth(&http.Client{Timeout: 2 * time.Second}, url); err != nil {
				return fmt.Errorf("%w\nHint: docmap-service might not be running", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Service is running at %s\n", url)
			return err
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Service base URL (default from config)")
	return cmd
}

func checkHealth(client *http.Client, baseURL string) error {
	resp, err := client.Get(strings.TrimRight(baseURL, "/") + "/api/health")
	if err != nil {
		return fmt.Errorf("service is not reachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return fmt.Errorf("service is unhealthy (code=%d, status=%q)", resp.StatusCode, body.Status)
	}
	return nil
}
