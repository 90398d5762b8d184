package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// loginTimeout bounds a single login or logout round trip.
const loginTimeout = 30 * time.Second

// loginCommand creates the login command.
func (c *CLI) loginCommand() *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a ubus session and store it",
		Long: `Log in to rpcd with ubus.username and ubus.password and store the session
token under ~/.config/meshtower/sessions/. Later fetches reuse the token
until the router expires it.

Without a username, fetches use the anonymous session and need no login.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.newUbusClient(src)
			if err != nil {
				return err
			}
			if client.Anonymous() {
				printInfo("No ubus username configured; fetches use the anonymous session")
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
			defer cancel()

			spinner := newSpinnerWithContext(ctx, "Logging in to "+client.URL()+"...")
			spinner.Start()
			sess, err := client.Login(ctx)
			if err != nil {
				spinner.StopWithError("Login failed")
				return fmt.Errorf("login: %w", err)
			}
			spinner.Stop()

			printSuccess("Logged in")
			printKeyValue("Router", client.URL())
			printKeyValue("Username", sess.Username)
			printKeyValue("Expires", sess.ExpiresAt.Format(time.DateTime))
			return nil
		},
	}
	src.registerRouter(cmd)
	return cmd
}

// logoutCommand creates the logout command.
func (c *CLI) logoutCommand() *cobra.Command {
	var src sourceFlags

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Destroy the stored ubus session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.newUbusClient(src)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
			defer cancel()

			if err := client.Logout(ctx); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
	src.registerRouter(cmd)
	return cmd
}
