package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"loadsheet/infrastructure/identity"
	"loadsheet/infrastructure/rbac"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(userAddCmd())
	cmd.AddCommand(userListCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var username, name, role, password string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create or update a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" {
				return errors.New("--username is required")
			}
			parsed, err := rbac.ParseRole(role)
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv("LOADSHEET_USER_PASSWORD")
			}
			if err := identity.ValidatePassword(password); err != nil {
				return err
			}

			_, log, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.Close()

			user, err := identity.NewDirectory(db).AddUser(cmd.Context(), username, name, string(parsed), password)
			if err != nil {
				return err
			}
			fmt.Printf("%s user %s (%s)\n", color.GreenString("SAVED"), user.Username, color.CyanString(user.Role))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&name, "name", "", "display name stamped on sheets")
	cmd.Flags().StringVar(&role, "role", string(rbac.Roles()[1]), "ADMIN, STAGING_SUPERVISOR or LOADING_SUPERVISOR")
	cmd.Flags().StringVar(&password, "password", "", "password (or LOADSHEET_USER_PASSWORD)")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, db, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			defer db.Close()

			users, err := identity.NewDirectory(db).Users(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tNAME\tROLE")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Username, u.Name(), u.Role)
			}
			return tw.Flush()
		},
	}
}
