package main

import (
	"fmt"

	"github.com/artpar/cmsdesk/adapters/tui"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse <entry-id>",
	Short: "Browse and edit an entry interactively",
	Long: `Open an entry in a full-screen tree browser.

Keys:
  ↑/↓ j/k     move
  enter/space expand or collapse, edit a leaf
  e           edit the value under the cursor
  x           delete the node under the cursor
  u / r       undo / redo
  s           save
  d           show pending changes
  q           quit`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	s, err := a.Editor.Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer a.Editor.Close(s.ID())

	if err := tui.Run(cmd.Context(), s); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	if s.Dirty() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s Unsaved changes to %s were discarded\n", crossMark, args[0])
	}
	return nil
}
