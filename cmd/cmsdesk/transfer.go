package main

import (
	"fmt"
	"os"

	"github.com/artpar/cmsdesk/domain/content"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <model-id>",
	Short: "Export a model and all its entries to a bundle",
	Long: `Export a model with all of its entries as a bundle document.

The bundle can be imported into another CMS, or edited without a CMS
with --offline.

Examples:
  cmsdesk export mdl_article > articles.json
  cmsdesk export mdl_article -f articles.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <bundle-file>",
	Short: "Import the entries of a bundle",
	Long: `Import the entries of a bundle file.

Entries whose ID already exists are updated when their data differs;
the others are created. The report shows the changed paths of every
update. Entries missing required fields, or whose ID belongs to an entry
of another model, are skipped.

Examples:
  cmsdesk import articles.json --dry-run
  cmsdesk import articles.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	exportFile   string
	exportFormat string
	importDryRun bool
)

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)

	exportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "write to this file instead of stdout")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "bundle format: json or yaml (default from file extension, else json)")

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "report what would change without writing")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	format := content.Format(exportFormat)
	if format == "" {
		format = content.FormatFromPath(exportFile)
	}

	b, err := a.Editor.Export(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if exportFile == "" {
		return content.EncodeBundle(cmd.OutOrStdout(), b, format)
	}

	f, err := os.Create(exportFile)
	if err != nil {
		return err
	}
	if err := content.EncodeBundle(f, b, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s Exported %d entries of %s to %s\n", checkMark, len(b.Entries), b.Model.ID, exportFile)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	f, opts, err := output(cmd)
	if err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	b, err := content.DecodeBundle(file, content.FormatFromPath(args[0]))
	if err != nil {
		return err
	}

	report, err := a.Editor.Import(cmd.Context(), b, importDryRun)
	if err != nil {
		return err
	}
	return f.FormatImport(cmd.OutOrStdout(), report, opts)
}
