package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carepoint-health/carepoint/internal/cli/config"
	"github.com/carepoint-health/carepoint/internal/cli/serverselect"
	"github.com/carepoint-health/carepoint/internal/cli/userconfig"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ carepoint select-server                             # Interactive selection
  $ carepoint select-server https://portal.example.com  # Select by URL
  $ carepoint select-server production                  # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(cmd, urlOrAlias)
		},
	}

	return cmd
}

func runSelectServer(cmd *cobra.Command, urlOrAlias string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var server *config.Server
	if urlOrAlias != "" {
		server, err = cfg.GetServerByURLOrAlias(urlOrAlias)
	} else {
		server, err = serverselect.PromptServerSelection(cfg)
	}
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}
