package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/purse/internal/cli"
	"github.com/Veraticus/purse/internal/model"
	"github.com/spf13/cobra"
)

func registerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register <login>",
		Short: "Create a new user",
		Long: `Create a user with the password given by --password.

Both login and password must be at least 3 characters long.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withServices(cmd, func(ctx context.Context, svc *services) error {
				user, err := svc.auth.Register(ctx, args[0], a.cfg.Session.Password)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Registered "+user.Login))
				return nil
			})
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, false, func(_ context.Context, _ *services, sess *model.Session) error {
				fmt.Fprintln(cmd.OutOrStdout(), sess.Login)
				return nil
			})
		},
	}
}

func usersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered logins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(cmd, func(ctx context.Context, svc *services) error {
				logins, err := svc.store.ListUsers(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderList(logins))
				return nil
			})
		},
	}
}
