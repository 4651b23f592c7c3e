package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"sitecrew.com.au/sitecrew/client"
	"sitecrew.com.au/sitecrew/client/queue"
)

var rootCmd = &cobra.Command{
	Use:   "sitecrew",
	Short: "SiteCrew field CLI – offline-first clock-in and clock-out",
	Long: `sitecrew is the field-device command line for SiteCrew time tracking.
Clock events are written to a local queue first and submitted to the
server when connectivity allows, so nothing is lost on a dead spot.`,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(clockInCmd)
	rootCmd.AddCommand(clockOutCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}

func queuePath() (string, error) {
	if p := os.Getenv("SITECREW_QUEUE_PATH"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".sitecrew")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return filepath.Join(dir, "queue.db"), nil
}

func openQueue() (*queue.Queue, error) {
	path, err := queuePath()
	if err != nil {
		return nil, err
	}
	return queue.Open(path)
}

func newClient() (*client.SiteCrewClient, error) {
	baseURL := os.Getenv("SITECREW_API_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("SITECREW_API_URL is not set")
	}
	token := os.Getenv("SITECREW_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("SITECREW_TOKEN is not set")
	}
	return client.NewSiteCrewClient(baseURL, token), nil
}
