package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/artpar/cmsdesk/config"
	"github.com/artpar/cmsdesk/core/formatter"
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the cmsdesk configuration.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - The CMS answers and accepts the token (optional)
  - Model schemas are well formed (optional, warnings only)

Examples:
  cmsdesk validate
  cmsdesk validate --check-cms --config /etc/cmsdesk/cmsdesk.yaml
  cmsdesk validate --check-schemas --offline articles.json`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var (
	validateCheckCMS     bool
	validateCheckSchemas bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckCMS, "check-cms", false, "check that the CMS is reachable")
	validateCmd.Flags().BoolVar(&validateCheckSchemas, "check-schemas", false, "report problems in model schemas")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if offlineBundle != "" {
		if validateCheckCMS {
			return fmt.Errorf("--check-cms cannot be combined with --offline")
		}
		fmt.Fprintf(out, "  %s Offline bundle: %s\n", checkMark, offlineBundle)
		if err := checkSchemas(cmd); err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Configuration is valid.")
		return nil
	}

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) && !config.HasEnvConfig() {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	fmt.Fprintf(out, "  %s CMS: %s\n", checkMark, cfg.CMS.URL)
	fmt.Fprintf(out, "  %s Database: %s\n", checkMark, cfg.Database.Path)
	fmt.Fprintf(out, "  %s Server: %s\n", checkMark, cfg.Addr())
	fmt.Fprintf(out, "  %s Undo history: %d steps\n", checkMark, cfg.Editor.HistoryLimit)

	if validateCheckCMS {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Shutdown()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		if err := a.Client.HealthCheck(ctx); err != nil {
			fmt.Fprintf(out, "  %s CMS reachable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s CMS reachable\n", checkMark)
		}
	}

	if err := checkSchemas(cmd); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

// checkSchemas prints the schema problems of every model when
// --check-schemas is set. Problems are warnings; they do not fail validate.
func checkSchemas(cmd *cobra.Command) error {
	if !validateCheckSchemas {
		return nil
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	out := cmd.OutOrStdout()
	pg := content.Page{Limit: content.MaxPageSize}.Normalize()
	for {
		res, err := a.Editor.Models(cmd.Context(), pg)
		if err != nil {
			fmt.Fprintf(out, "  %s Model schemas\n", crossMark)
			return err
		}
		for _, m := range res.Items {
			warnings := formatter.SchemaWarnings(m.Fields)
			if len(warnings) == 0 {
				fmt.Fprintf(out, "  %s Schema %s\n", checkMark, m.ID)
				continue
			}
			fmt.Fprintf(out, "  %s Schema %s\n", warnMark, m.ID)
			for _, w := range warnings {
				fmt.Fprintf(out, "      Warning: %s\n", w)
			}
		}
		if !res.HasMore(pg) {
			return nil
		}
		pg = pg.Next()
	}
}
