package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carepoint-health/carepoint/internal/cli/client"
	"github.com/carepoint-health/carepoint/internal/roles"
)

// NewUsersCmd creates the users command (admin only)
func NewUsersCmd(opts *GlobalOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"ls"},
		Short:   "List portal users (admin only)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsers(cmd, opts, role)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Only list users with this role")

	return cmd
}

func runUsers(cmd *cobra.Command, opts *GlobalOptions, role string) error {
	if role != "" {
		if _, err := roles.Parse(role); err != nil {
			return err
		}
	}

	p, err := openPortal(opts)
	if err != nil {
		return err
	}

	s, err := p.requireSession(cmd.Context())
	if err != nil {
		return err
	}
	if s.Role() != roles.Admin {
		return fmt.Errorf("listing users requires an admin account (signed in as %s)", s.Role())
	}

	users, err := p.api.ListUsers(cmd.Context(), role)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "No users found.")
		return nil
	}

	fmt.Fprintf(out, "Users on %s (%s):\n\n", p.server.Alias, p.server.URL)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tCREATED AT")
	fmt.Fprintln(w, "─────\t────\t────\t──────────")
	for _, user := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", user.Email(), user.FullName(), user.Role(), createdAt(user))
	}
	return w.Flush()
}

func createdAt(user client.Profile) string {
	raw := user.Field("createdAt")
	if len(raw) >= len("2006-01-02") {
		return raw[:len("2006-01-02")]
	}
	return raw
}
