package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/artpar/cmsdesk/bootstrap"
	"github.com/artpar/cmsdesk/config"
	"github.com/artpar/cmsdesk/core/formatter"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	checkMark = "✓"
	crossMark = "✗"
	warnMark  = "!"
)

var (
	// Global flags
	cfgFile       string
	outputFormat  string
	offlineBundle string
	noHeader      bool
	colorMode     string
	maxWidth      int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cmsdesk",
	Short: "Browse, edit and diff headless CMS content from the terminal",
	Long: `cmsdesk is an admin client for a headless CMS.

It lists content models and entries, shows entry data as a nested tree,
edits values by path with undo, and diffs entries against each other or
against locally recorded snapshots.

Quick start:
  cmsdesk login                  # Store an API token
  cmsdesk models list            # List content models
  cmsdesk entries tree <id>      # Show an entry as a tree
  cmsdesk browse <id>            # Edit interactively
  cmsdesk serve                  # Start the local HTTP API

Work without a CMS:
  cmsdesk --offline bundle.json entries list <model-id>`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultFile, "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: "+strings.Join(formatter.List(), ", "))
	rootCmd.PersistentFlags().StringVar(&offlineBundle, "offline", "", "edit an exported bundle file instead of the CMS")
	rootCmd.PersistentFlags().BoolVar(&noHeader, "no-header", false, "omit table headers")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, never")
	rootCmd.PersistentFlags().IntVar(&maxWidth, "max-width", 0, "truncate table values to this many characters")
}

// openApp builds the application for one command. Callers close it with
// Shutdown.
func openApp(cmd *cobra.Command) (*bootstrap.App, error) {
	a, err := bootstrap.New(cmd.Context(), bootstrap.Options{
		ConfigPath: cfgFile,
		Offline:    offlineBundle,
		Version:    version,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// output returns the selected formatter and its options.
func output(cmd *cobra.Command) (formatter.Formatter, formatter.FormatOptions, error) {
	f, err := formatter.Lookup(outputFormat)
	if err != nil {
		return nil, formatter.FormatOptions{}, err
	}
	opts := formatter.FormatOptions{
		NoHeader: noHeader,
		MaxWidth: maxWidth,
		Color:    useColor(cmd.OutOrStdout()),
	}
	return f, opts, nil
}

func useColor(w io.Writer) bool {
	switch colorMode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// confirm asks a yes/no question on stdin.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
