package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/erpdesk/source/rest"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in to the dashboard API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, closeFn, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		ident, err := rest.Login(ctx, cfg.APIURL, args[0])
		if err != nil {
			return err
		}
		if err := mgr.Login(ctx, ident); err != nil {
			return err
		}
		cliLogger().Info("logged in", "user_id", ident.ID, "role", mgr.State().ActiveRole)
		printState(cmd.OutOrStdout(), mgr.State(), time.Now())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, closeFn, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		return mgr.Logout(ctx)
	},
}

var whoamiRole string

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, closeFn, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		if whoamiRole != "" && mgr.IsValid() {
			if err := mgr.SwitchRole(whoamiRole); err != nil {
				return err
			}
		}
		printState(cmd.OutOrStdout(), mgr.State(), time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	whoamiCmd.Flags().StringVar(&whoamiRole, "role", "", "Show the session acting as this role")
}
