package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/unionhall/gameshelf/gateway"
	"golang.org/x/term"
)

func newLoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Authenticate against the remote store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()

			if err := app.Sessions.Login(ctx, args[0], password); err != nil {
				if errors.Is(err, gateway.ErrInvalidCredentials) {
					return errors.New("invalid username or password")
				}
				return fmt.Errorf("service unavailable: %w", err)
			}
			cur := app.Sessions.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s), session valid until %s\n",
				cur.Identity, cur.Role, cur.Expiry.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session and the persisted credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Sessions.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cur := app.Sessions.Current()
			if cur == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in (guest)")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s), session valid until %s\n",
				cur.Identity, cur.Role, cur.Expiry.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
