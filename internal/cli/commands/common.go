package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/carepoint-health/carepoint/internal/cli/auth"
	"github.com/carepoint-health/carepoint/internal/cli/client"
	"github.com/carepoint-health/carepoint/internal/cli/config"
	"github.com/carepoint-health/carepoint/internal/cli/serverselect"
	"github.com/carepoint-health/carepoint/internal/logger"
	"github.com/carepoint-health/carepoint/internal/session"
)

// GlobalOptions holds the root command's persistent flags
type GlobalOptions struct {
	Server  string
	Verbose bool
}

// openTokenStore is swapped out in tests
var openTokenStore = auth.Open

// portal is everything a command needs to talk to the selected server
type portal struct {
	server  *config.Server
	api     *client.Client
	session *session.Container
}

// loadConfig finds carepoint.yaml or explains how to create one
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'carepoint init <url>' to create a configuration file", err)
	}
	return cfg, nil
}

// openPortal resolves the server, opens its token store and builds the session container.
// The container is not initialized.
func openPortal(opts *GlobalOptions) (*portal, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	server, err := serverselect.ResolveServer(cfg, opts.Server)
	if err != nil {
		return nil, err
	}

	if server.URL == "" {
		return nil, fmt.Errorf("server URL is empty. Please edit %s and add a valid URL", config.ConfigFileName)
	}

	store, err := openTokenStore(cfg.TokenStore)
	if err != nil {
		return nil, err
	}

	api := client.New(server.URL)
	log := newCLILogger(os.Stderr, opts.Verbose)

	return &portal{
		server:  server,
		api:     api,
		session: session.New(api, store, api.BaseURL(), log),
	}, nil
}

// newCLILogger writes human-readable logs to w; only warnings unless verbose
func newCLILogger(w io.Writer, verbose bool) zerolog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.New(w, level, "console")
}

// requireSession initializes the container and fails when nobody is signed in
func (p *portal) requireSession(ctx context.Context) (session.Session, error) {
	s := p.session.Initialize(ctx)
	if !s.IsAuthenticated {
		return s, auth.ErrNotAuthenticated
	}
	return s, nil
}

// dashboardURL is the absolute URL of the signed-in user's landing page
func (p *portal) dashboardURL(s session.Session) string {
	return p.api.BaseURL() + s.DashboardPath()
}
