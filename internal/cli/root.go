package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carepoint-health/carepoint/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the carepoint command tree
func NewRootCmd() *cobra.Command {
	opts := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "carepoint",
		Short: "CarePoint - patient and doctor portal from the terminal",
		Long: `CarePoint CLI - Sign in to a CarePoint portal and manage your account.

Sessions are remembered per server for 7 days in the OS keychain, or in a
cookie jar under ~/.config/carepoint when token_store is set to cookie.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.Server, "server", "", "Server URL or alias from carepoint.yaml")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log session activity to stderr")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "carepoint version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd(opts))
	rootCmd.AddCommand(commands.NewRegisterCmd(opts))
	rootCmd.AddCommand(commands.NewLogoutCmd(opts))
	rootCmd.AddCommand(commands.NewWhoamiCmd(opts))
	rootCmd.AddCommand(commands.NewProfileCmd(opts))
	rootCmd.AddCommand(commands.NewUsersCmd(opts))
	rootCmd.AddCommand(commands.NewDashCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
