package main

import (
	"fmt"
	"os"

	"github.com/artpar/cmsdesk/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP API",
	Long: `Start the local HTTP API over the editor.

The server will:
  - Load configuration from cmsdesk.yaml (or --config)
  - Or load configuration from CMSDESK_* environment variables
  - Open the local snapshot database
  - Serve the editor API under /api, health checks and metrics
  - Reload the config file on change or SIGHUP

Environment variables:
  CMSDESK_CMS_URL         - CMS admin API URL (required unless --offline)
  CMSDESK_CMS_TOKEN       - API token (default: the one stored by login)
  CMSDESK_SERVER_PORT     - Server port (default: 7070)
  CMSDESK_DATABASE_PATH   - Snapshot database (default: ~/.cmsdesk/cmsdesk.db)
  CMSDESK_LOG_LEVEL       - Log level: debug, info, warn, error

Examples:
  cmsdesk serve
  cmsdesk serve --config /etc/cmsdesk/cmsdesk.yaml
  cmsdesk serve --offline articles.json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if offlineBundle == "" {
		if _, err := os.Stat(cfgFile); err != nil && !config.HasEnvConfig() {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "No configuration found.")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Option 1: Create %s with a cms.url\n", cfgFile)
			fmt.Fprintln(out, "Option 2: Set the CMSDESK_CMS_URL environment variable")
			fmt.Fprintln(out, "Option 3: Serve a bundle file with --offline")
			return nil
		}
	}

	a, err := openApp(cmd)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return a.Run(cmd.Context())
}
