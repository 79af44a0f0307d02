package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carepoint-health/carepoint/internal/cli/client"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts *GlobalOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a CarePoint portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set CAREPOINT_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CAREPOINT_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, opts *GlobalOptions, email, password string) error {
	out := cmd.OutOrStdout()

	// Environment variables are useful for CI/CD
	if email == "" {
		email = os.Getenv("CAREPOINT_EMAIL")
	}
	if password == "" {
		password = os.Getenv("CAREPOINT_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or CAREPOINT_EMAIL env var)")
	}

	p, err := openPortal(opts)
	if err != nil {
		return err
	}

	if password == "" {
		password, err = readPassword(out, "CAREPOINT_PASSWORD")
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Logging in to %s (%s)...\n", p.server.Alias, p.server.URL)

	user, err := p.session.Login(cmd.Context(), client.Credentials{Email: email, Password: password})
	if err != nil {
		return sessionError("login", err)
	}

	fmt.Fprintln(out, "✓ Login successful!")
	printSignedIn(out, p, user)
	return nil
}
