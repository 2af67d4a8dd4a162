package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the CMS and store the API token",
	Long: `Sign in to the CMS with an email and password.

The issued token is stored in the local database and used by later
commands unless cms.token is configured.

Examples:
  cmsdesk login
  cmsdesk login --email editor@example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored API token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var loginEmail string

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when empty)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	in := bufio.NewReader(cmd.InOrStdin())
	email := loginEmail
	if email == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Email: ")
		line, err := in.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	password, err := promptPassword(cmd, in, "Password: ")
	if err != nil {
		return err
	}

	if err := a.Login(cmd.Context(), email, password); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Logged in to %s\n", checkMark, a.Config.CMS.URL)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if err := a.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Stored token removed\n", checkMark)
	return nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout()) // Print newline after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
