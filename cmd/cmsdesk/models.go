package main

import (
	"github.com/artpar/cmsdesk/domain/content"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect content models",
	Long: `Inspect the content models defined in the CMS.

Examples:
  cmsdesk models list
  cmsdesk models show mdl_article
  cmsdesk models show mdl_article -o yaml`,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List content models",
	Args:  cobra.NoArgs,
	RunE:  runModelsList,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show <model-id>",
	Short: "Show a model and its fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsShow,
}

var (
	listLimit  int
	listOffset int
)

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd, modelsShowCmd)

	modelsListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of models (default from config)")
	modelsListCmd.Flags().IntVar(&listOffset, "offset", 0, "number of models to skip")
}

func runModelsList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	f, opts, err := output(cmd)
	if err != nil {
		return err
	}

	res, err := a.Editor.Models(cmd.Context(), page(a.Config.Editor.PageSize))
	if err != nil {
		return err
	}
	return f.FormatModels(cmd.OutOrStdout(), res.Items, opts)
}

func runModelsShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	f, opts, err := output(cmd)
	if err != nil {
		return err
	}

	m, err := a.Editor.Model(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return f.FormatModel(cmd.OutOrStdout(), m, opts)
}

// page builds the page from --limit and --offset.
func page(defaultSize int) content.Page {
	limit := listLimit
	if limit <= 0 {
		limit = defaultSize
	}
	return content.Page{Limit: limit, Offset: listOffset}.Normalize()
}
