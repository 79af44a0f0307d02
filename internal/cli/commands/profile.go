package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carepoint-health/carepoint/internal/cli/client"
)

// NewProfileCmd creates the profile command group
func NewProfileCmd(opts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	cmd.AddCommand(newProfileUpdateCmd(opts))

	return cmd
}

// profileFlags maps CLI flags to API profile fields
var profileFlags = []struct {
	flag  string
	field string
	usage string
}{
	{"first-name", "firstName", "First name"},
	{"last-name", "lastName", "Last name"},
	{"phone", "phone", "Phone number"},
}

func newProfileUpdateCmd(opts *GlobalOptions) *cobra.Command {
	values := make(map[string]*string, len(profileFlags))

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		Long: `Update profile fields. Only the flags you pass are sent.

Examples:
  $ carepoint profile update --phone "+1 555 0100"
  $ carepoint profile update --first-name Jane --last-name Doe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			partial := client.Profile{}
			for _, f := range profileFlags {
				if cmd.Flags().Changed(f.flag) {
					partial[f.field] = *values[f.flag]
				}
			}
			if len(partial) == 0 {
				return fmt.Errorf("nothing to update (use --first-name, --last-name or --phone)")
			}

			p, err := openPortal(opts)
			if err != nil {
				return err
			}

			if _, err := p.requireSession(cmd.Context()); err != nil {
				return err
			}

			user, err := p.session.UpdateProfile(cmd.Context(), partial)
			if err != nil {
				return sessionError("profile update", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✓ Profile updated")
			printSignedIn(out, p, user)
			return nil
		},
	}

	for _, f := range profileFlags {
		values[f.flag] = cmd.Flags().String(f.flag, "", f.usage)
	}

	return cmd
}
