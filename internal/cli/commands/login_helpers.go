package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/carepoint-health/carepoint/internal/cli/auth"
	"github.com/carepoint-health/carepoint/internal/cli/client"
	"github.com/carepoint-health/carepoint/internal/session"
)

// stdinIsTerminal is swapped out in tests
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readPassword prompts without echo. It refuses to block on a pipe.
func readPassword(out io.Writer, envVar string) (string, error) {
	if !stdinIsTerminal() {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or %s env var)", envVar)
	}

	fmt.Fprint(out, "Password: ")
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// printSignedIn summarizes a fresh session
func printSignedIn(out io.Writer, p *portal, user client.Profile) {
	s := p.session.Snapshot()

	name := user.FullName()
	if name == "" {
		name = user.Email()
	}
	fmt.Fprintf(out, "  User: %s (%s)\n", name, user.Email())
	if role := user.Role(); role != "" {
		fmt.Fprintf(out, "  Role: %s\n", role)
	}
	fmt.Fprintf(out, "  Dashboard: %s\n", p.dashboardURL(s))
}

// sessionError turns container errors into CLI errors. A *session.Error
// prints as the API's message.
func sessionError(action string, err error) error {
	if errors.Is(err, session.ErrNotAuthenticated) {
		return auth.ErrNotAuthenticated
	}
	return fmt.Errorf("%s failed: %w", action, err)
}
