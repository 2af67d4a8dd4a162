package main

import (
	"errors"
	"fmt"

	"github.com/artpar/cmsdesk/app"
	"github.com/artpar/cmsdesk/domain/diff"
	"github.com/artpar/cmsdesk/domain/node"
	"github.com/artpar/cmsdesk/domain/path"
	"github.com/spf13/cobra"
)

var entriesCmd = &cobra.Command{
	Use:     "entries",
	Aliases: []string{"entry"},
	Short:   "List, inspect, edit and diff entries",
	Long: `Work with the entries of a content model.

Paths address nested data with dots and brackets: seo.slug, tags[0],
blocks[2].title. Edits are applied to a working copy, shown as a diff and
then saved as a complete replacement of the entry data.

Examples:
  cmsdesk entries list mdl_article -q launch
  cmsdesk entries tree ent_42 --depth 1
  cmsdesk entries set ent_42 seo.slug launch-day
  cmsdesk entries set ent_42 tags '["go","cms"]' --json
  cmsdesk entries diff ent_42 ent_43 --changes-only
  cmsdesk entries diff ent_42 --snapshot 3f9a0c1b2d4e`,
}

var entriesListCmd = &cobra.Command{
	Use:   "list <model-id>",
	Short: "List the entries of a model",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntriesList,
}

var entriesShowCmd = &cobra.Command{
	Use:   "show <entry-id>",
	Short: "Show an entry with its data",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntriesShow,
}

var entriesTreeCmd = &cobra.Command{
	Use:   "tree <entry-id>",
	Short: "Show entry data as a tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntriesTree,
}

var entriesSetCmd = &cobra.Command{
	Use:   "set <entry-id> <path> <value>",
	Short: "Set the value at a path and save",
	Args:  cobra.ExactArgs(3),
	RunE:  runEntriesSet,
}

var entriesAppendCmd = &cobra.Command{
	Use:   "append <entry-id> <path> [value]",
	Short: "Append a value to the list at a path and save",
	Long: `Append a value to the list at a path and save.

Without a value the new element is built from the list's field definition:
an object with the default of each sub-field, or null.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runEntriesAppend,
}

var entriesUnsetCmd = &cobra.Command{
	Use:   "unset <entry-id> <path>",
	Short: "Remove the value at a path and save",
	Args:  cobra.ExactArgs(2),
	RunE:  runEntriesUnset,
}

var entriesDeleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntriesDelete,
}

var entriesDiffCmd = &cobra.Command{
	Use:   "diff <entry-id> [other-entry-id]",
	Short: "Diff two entries, or an entry against a snapshot",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runEntriesDiff,
}

var entriesHistoryCmd = &cobra.Command{
	Use:   "history <entry-id>",
	Short: "List locally recorded snapshots of an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntriesHistory,
}

var (
	entriesQuery    string
	treeDepth       int
	setJSON         bool
	editDryRun      bool
	deleteYes       bool
	diffSnapshot    string
	diffChangesOnly bool
)

func init() {
	rootCmd.AddCommand(entriesCmd)
	entriesCmd.AddCommand(
		entriesListCmd,
		entriesShowCmd,
		entriesTreeCmd,
		entriesSetCmd,
		entriesAppendCmd,
		entriesUnsetCmd,
		entriesDeleteCmd,
		entriesDiffCmd,
		entriesHistoryCmd,
	)

	entriesListCmd.Flags().StringVarP(&entriesQuery, "query", "q", "", "only entries whose data contains this text")
	entriesListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of entries (default from config)")
	entriesListCmd.Flags().IntVar(&listOffset, "offset", 0, "number of entries to skip")

	entriesTreeCmd.Flags().IntVar(&treeDepth, "depth", -1, "levels to expand; -1 expands everything")

	for _, c := range []*cobra.Command{entriesSetCmd, entriesAppendCmd} {
		c.Flags().BoolVar(&setJSON, "json", false, "parse the value as a JSON literal")
	}
	for _, c := range []*cobra.Command{entriesSetCmd, entriesAppendCmd, entriesUnsetCmd} {
		c.Flags().BoolVar(&editDryRun, "dry-run", false, "show the change without saving")
	}

	entriesDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "do not ask for confirmation")

	entriesDiffCmd.Flags().StringVar(&diffSnapshot, "snapshot", "", "compare against this snapshot of the entry")
	entriesDiffCmd.Flags().BoolVar(&diffChangesOnly, "changes-only", false, "leave equal paths out")
}

func runEntriesList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	f, opts, err := output(cmd)
	if err != nil {
		return err
	}

	res, err := a.Editor.Search(cmd.Context(), args[0], entriesQuery, page(a.Config.Editor.PageSize))
	if err != nil {
		return err
	}
	return f.FormatEntries(cmd.OutOrStdout(), res.Items, opts)
}

func runEntriesShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	f, opts, err := output(cmd)
	if err != nil {
		return err
	}

	e, err := a.Editor.Entry(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return f.FormatEntry(cmd.OutOrStdout(), e, opts)
}

func runEntriesTree(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	f, opts, err := output(cmd)
	if err != nil {
		return err
	}

	s, err := a.Editor.Open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer a.Editor.Close(s.ID())

	s.ExpandAll(treeDepth)
	return f.FormatRows(cmd.OutOrStdout(), s.Rows(), opts)
}

func runEntriesSet(cmd *cobra.Command, args []string) error {
	p, err := path.Parse(args[1])
	if err != nil {
		return err
	}
	return editEntry(cmd, args[0], func(s *app.Session) error {
		if setJSON {
			v, err := node.Parse([]byte(args[2]))
			if err != nil {
				return fmt.Errorf("value is not valid JSON: %w", err)
			}
			return s.Set(p, v)
		}
		return s.SetRaw(p, args[2])
	})
}

func runEntriesAppend(cmd *cobra.Command, args []string) error {
	p, err := path.Parse(args[1])
	if err != nil {
		return err
	}
	return editEntry(cmd, args[0], func(s *app.Session) error {
		if len(args) < 3 {
			return s.Append(p, s.NewItem(p))
		}
		v := node.String(args[2])
		if setJSON {
			var err error
			if v, err = node.Parse([]byte(args[2])); err != nil {
				return fmt.Errorf("value is not valid JSON: %w", err)
			}
		}
		return s.Append(p, v)
	})
}

func runEntriesUnset(cmd *cobra.Command, args []string) error {
	p, err := path.Parse(args[1])
	if err != nil {
		return err
	}
	return editEntry(cmd, args[0], func(s *app.Session) error {
		return s.Delete(p)
	})
}

// editEntry applies fn in a session, prints the pending diff and saves
// unless --dry-run is set.
func editEntry(cmd *cobra.Command, entryID string, fn func(*app.Session) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	f, opts, err := output(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := a.Editor.Open(ctx, entryID)
	if err != nil {
		return err
	}
	defer a.Editor.Close(s.ID())

	if err := fn(s); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pending := s.Pending()
	if len(pending) == 0 {
		fmt.Fprintln(out, "No changes.")
		return nil
	}
	opts.ChangesOnly = true
	if err := f.FormatDiff(out, pending, opts); err != nil {
		return err
	}

	if editDryRun {
		fmt.Fprintln(cmd.ErrOrStderr(), "Dry run: nothing saved.")
		return nil
	}

	if _, err := s.Save(ctx); err != nil {
		var missing *app.MissingFieldsError
		if errors.As(err, &missing) {
			return fmt.Errorf("not saved: %w", err)
		}
		return err
	}
	if a.Offline() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s Saved entry %s in memory only; %s is unchanged (use export to keep it)\n", checkMark, entryID, offlineBundle)
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s Saved entry %s\n", checkMark, entryID)
	return nil
}

func runEntriesDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if !deleteYes && !confirm(cmd, fmt.Sprintf("Delete entry %s?", args[0])) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	if err := a.Editor.DeleteEntry(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted entry: %s\n", checkMark, args[0])
	return nil
}

func runEntriesDiff(cmd *cobra.Command, args []string) error {
	if (len(args) == 2) == (diffSnapshot != "") {
		return errors.New("give either a second entry or --snapshot")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	f, opts, err := output(cmd)
	if err != nil {
		return err
	}
	opts.ChangesOnly = diffChangesOnly

	var results []diff.Result
	if diffSnapshot != "" {
		results, err = a.Editor.CompareSnapshot(cmd.Context(), args[0], diffSnapshot)
	} else {
		results, err = a.Editor.Compare(cmd.Context(), args[0], args[1])
	}
	if err != nil {
		return err
	}
	return f.FormatDiff(cmd.OutOrStdout(), results, opts)
}

func runEntriesHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	f, opts, err := output(cmd)
	if err != nil {
		return err
	}

	snaps, err := a.Editor.History(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return f.FormatSnapshots(cmd.OutOrStdout(), snaps, opts)
}
