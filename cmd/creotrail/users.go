package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"creotrail/validator/pkg/cli"
	"creotrail/validator/pkg/config"
	"creotrail/validator/pkg/store"
)

var usersFlags struct {
	name     string
	email    string
	password string
	role     string
	format   string
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users directly in the database",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user without going through the signup endpoint. Useful for
bootstrapping the first admin account.

Examples:
  creotrail users create --name Root --email root@example.com --password s3cret --role admin`,
	Args: cobra.NoArgs,
	RunE: runUsersCreate,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateCmd, usersListCmd)

	usersCreateCmd.Flags().StringVar(&usersFlags.name, "name", "", "display name (required)")
	usersCreateCmd.Flags().StringVar(&usersFlags.email, "email", "", "login email (required)")
	usersCreateCmd.Flags().StringVar(&usersFlags.password, "password", "", "password (required)")
	usersCreateCmd.Flags().StringVar(&usersFlags.role, "role", store.RoleValidator, "role: validator, viewer or admin")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersListCmd.Flags().StringVarP(&usersFlags.format, "format", "f", "table", "output format: table, json or csv")
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, s *store.SQLStore, _ *config.Config, logger *slog.Logger) error {
		u, err := s.CreateUser(ctx, store.NewUser{
			Name:     usersFlags.name,
			Email:    usersFlags.email,
			Password: usersFlags.password,
			Role:     usersFlags.role,
		})
		if err != nil {
			return cli.NewCommandError("users create", err)
		}
		logger.Info("user created", "user_id", u.ID, "email", u.Email, "role", u.Role)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created user %d (%s, %s)\n", u.ID, u.Email, u.Role)
		return nil
	})
}

func runUsersList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(usersFlags.format)
	if err != nil {
		return err
	}

	return withStore(cmd, func(ctx context.Context, s *store.SQLStore, _ *config.Config, _ *slog.Logger) error {
		users, err := s.ListUsers(ctx)
		if err != nil {
			return cli.NewCommandError("users list", err)
		}

		t := &cli.Table{
			Header: []string{"id", "name", "email", "role", "last_processed_cmd_id", "last_seen"},
			Data:   users,
		}
		for _, u := range users {
			t.Append(
				strconv.FormatInt(u.ID, 10),
				u.Name,
				u.Email,
				u.Role,
				strconv.FormatInt(u.LastProcessedCmdID, 10),
				formatTime(u.LastSeen),
			)
		}
		return cli.Print(cmd.OutOrStdout(), format, t)
	})
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}
