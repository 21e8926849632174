// Package cli implements bookletctl, the operator tool for schema setup and
// role management.  Promoting the first admin has no HTTP route, so it is
// done here against the database directly.
package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/bookletify-api/internal/model"
	"github.com/iliyamo/bookletify-api/internal/repository"
)

// UserFinder resolves a username to its account.
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// RoleAdmin lists accounts and changes roles.
type RoleAdmin interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ChangeRole(ctx context.Context, id uint64, role string) (model.User, error)
}

// Backend is what the commands operate on.
type Backend struct {
	Users   UserFinder
	Admin   RoleAdmin
	Migrate func(ctx context.Context) error
}

// Opener connects to the backend.  The returned func releases it.
type Opener func(ctx context.Context) (Backend, func(), error)

const opTimeout = 30 * time.Second

// NewRootCmd builds the bookletctl command tree.  The backend is opened
// lazily so --help works without a database.
func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "bookletctl",
		Short: "Operator tool for the Bookletify API",
		Long: `bookletctl manages the Bookletify database outside the HTTP API.

It applies the schema and grants or revokes the admin role.  Connection
settings are read from DB_DSN or the DB_* variables, the same as the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(open),
		newRoleCmd(open, "promote", model.RoleAdmin),
		newRoleCmd(open, "demote", model.RoleUser),
		newUsersCmd(open),
	)
	return root
}

// withBackend opens the backend, runs fn and releases it.
func withBackend(cmd *cobra.Command, open Opener, fn func(ctx context.Context, b Backend) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opTimeout)
	defer cancel()
	b, closeFn, err := open(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer closeFn()
	return fn(ctx, b)
}

func newMigrateCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users, reviews and favorites tables if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				if b.Migrate == nil {
					return errors.New("migrations are not available for this backend")
				}
				if err := b.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			})
		},
	}
}

func newRoleCmd(open Opener, use, role string) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <username>",
		Short:   fmt.Sprintf("Set a user's role to %s", role),
		Example: fmt.Sprintf("  bookletctl %s alice", use),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				u, err := b.Users.GetByUsername(ctx, args[0])
				if err != nil {
					if errors.Is(err, repository.ErrUserNotFound) {
						return fmt.Errorf("user %q not found", args[0])
					}
					return err
				}
				if u.Role == role {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already %s\n", u.Username, role)
					return nil
				}
				if _, err := b.Admin.ChangeRole(ctx, u.ID, role); err != nil {
					return fmt.Errorf("change role: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Username, role)
				return nil
			})
		},
	}
}

func newUsersCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b Backend) error {
				users, err := b.Admin.ListUsers(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tCREATED")
				for _, u := range users {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
						u.ID, u.Username, u.Email, u.Role, u.CreatedAt.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
}
