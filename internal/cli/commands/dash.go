package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

// NewDashCmd creates the dash command
func NewDashCmd(opts *GlobalOptions) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open your role's dashboard in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPortal(opts)
			if err != nil {
				return err
			}

			// Signed-out users land on the login page
			s := p.session.Initialize(cmd.Context())
			dashboardURL := p.dashboardURL(s)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "URL: %s\n", dashboardURL)
			if printOnly {
				return nil
			}

			if err := openBrowser(dashboardURL); err != nil {
				return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, dashboardURL)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the URL instead of opening a browser")

	return cmd
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
