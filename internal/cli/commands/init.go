package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/carepoint-health/carepoint/internal/cli/auth"
	"github.com/carepoint-health/carepoint/internal/cli/config"
)

type initOptions struct {
	alias      string
	tokenStore string
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <url>",
		Short: "Add a CarePoint portal to carepoint.yaml",
		Long: `Add a CarePoint portal to carepoint.yaml in the current directory,
creating the file if needed.

Examples:
  $ carepoint init portal.example.com
  $ carepoint init http://localhost:8080 --alias local --token-store cookie`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.alias, "alias", "", "Name for this server (default server-N)")
	cmd.Flags().StringVar(&opts.tokenStore, "token-store", "", "Where to keep tokens: keyring or cookie")

	return cmd
}

func runInit(cmd *cobra.Command, rawURL string, opts *initOptions) error {
	out := cmd.OutOrStdout()

	serverURL := config.NormalizeURL(rawURL)
	if serverURL == "" {
		return fmt.Errorf("server URL is required")
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	cfg := &config.Config{}
	isNewConfig := true
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		isNewConfig = false
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	}

	switch opts.tokenStore {
	case "":
	case auth.BackendKeyring, auth.BackendCookie:
		cfg.TokenStore = opts.tokenStore
	default:
		return fmt.Errorf("invalid --token-store '%s', must be one of: keyring, cookie", opts.tokenStore)
	}

	server, added := cfg.AddServer(serverURL, opts.alias)
	if !added && opts.tokenStore == "" {
		fmt.Fprintf(out, "Server %s already exists in %s (%s)\n", server.URL, config.ConfigFileName, server.Alias)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	switch {
	case isNewConfig:
		fmt.Fprintf(out, "✓ Created ./%s with server %s (%s)\n", config.ConfigFileName, server.URL, server.Alias)
	case added:
		fmt.Fprintf(out, "✓ Added server %s (%s) to ./%s\n", server.URL, server.Alias, config.ConfigFileName)
	default:
		fmt.Fprintf(out, "✓ Updated ./%s\n", config.ConfigFileName)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  Run 'carepoint register' to create an account, or 'carepoint login' to sign in")

	return nil
}
