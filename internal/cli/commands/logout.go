package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPortal(opts)
			if err != nil {
				return err
			}

			// Revocation on the server is best effort; the local token is always removed
			p.session.Logout(cmd.Context())

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged out of %s (%s)\n", p.server.Alias, p.server.URL)
			return nil
		},
	}
}
