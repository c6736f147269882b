package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionUser string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage bearer token sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session and print its bearer token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := deps.engine.Sessions.Create(commandContext(cmd), sessionUser)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var sessionRevokeCmd = &cobra.Command{
	Use:     "revoke <token>",
	Aliases: []string{"rm"},
	Short:   "Revoke a bearer token",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := deps.engine.Sessions.Revoke(commandContext(cmd), args[0])
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), removed, "session revoked: %t", removed)
		return nil
	},
}

var sessionCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := deps.engine.Sessions.ScanAndClean(commandContext(cmd))
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), true, "%d expired sessions removed", removed)
		return nil
	},
}

func init() {
	sessionCreateCmd.Flags().StringVar(&sessionUser, "user", "", "user id")
	_ = sessionCreateCmd.MarkFlagRequired("user")

	sessionCmd.AddCommand(sessionCreateCmd, sessionRevokeCmd, sessionCleanCmd)
	rootCmd.AddCommand(sessionCmd)
}
