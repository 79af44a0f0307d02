package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "carepoint.yaml"

// Server represents a CarePoint portal the CLI can sign in to
type Server struct {
	URL   string `yaml:"url"`
	Alias string `yaml:"alias"`
}

// Config represents the project configuration file
type Config struct {
	Servers []Server `yaml:"servers"`
	// TokenStore is "keyring" (default) or "cookie"
	TokenStore string `yaml:"token_store,omitempty"`
}

// FindConfigFile searches for carepoint.yaml in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find carepoint.yaml or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the token store name and that server entries are usable
func (c *Config) Validate() error {
	switch c.TokenStore {
	case "", "keyring", "cookie":
	default:
		return fmt.Errorf("invalid token_store '%s', must be one of: keyring, cookie", c.TokenStore)
	}

	seen := make(map[string]bool, len(c.Servers))
	for _, server := range c.Servers {
		if server.Alias == "" {
			continue
		}
		if seen[server.Alias] {
			return fmt.Errorf("duplicate server alias '%s' in %s", server.Alias, ConfigFileName)
		}
		seen[server.Alias] = true
	}
	return nil
}

// NormalizeURL trims trailing slashes and adds https:// to bare hosts
func NormalizeURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

// AddServer appends a server unless one with the same URL exists. It reports whether it added one.
func (c *Config) AddServer(url, alias string) (*Server, bool) {
	url = NormalizeURL(url)
	for i := range c.Servers {
		if NormalizeURL(c.Servers[i].URL) == url {
			return &c.Servers[i], false
		}
	}

	if alias == "" {
		alias = fmt.Sprintf("server-%d", len(c.Servers)+1)
	}
	c.Servers = append(c.Servers, Server{URL: url, Alias: alias})
	return &c.Servers[len(c.Servers)-1], true
}

// ErrServerNotFound is returned when no configured server matches
var ErrServerNotFound = errors.New("server not found")

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s': %w", alias, ErrServerNotFound)
}

// GetServerByURL returns a server by its URL, ignoring a trailing slash or missing scheme
func (c *Config) GetServerByURL(url string) (*Server, error) {
	url = NormalizeURL(url)
	for i := range c.Servers {
		if NormalizeURL(c.Servers[i].URL) == url {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with URL '%s': %w", url, ErrServerNotFound)
}

// GetServerByURLOrAlias finds a server by URL first, then by alias
func (c *Config) GetServerByURLOrAlias(urlOrAlias string) (*Server, error) {
	if server, err := c.GetServerByURL(urlOrAlias); err == nil {
		return server, nil
	}
	if server, err := c.GetServerByAlias(urlOrAlias); err == nil {
		return server, nil
	}
	return nil, fmt.Errorf("server with URL or alias '%s': %w", urlOrAlias, ErrServerNotFound)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}
