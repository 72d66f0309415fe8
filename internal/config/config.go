// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	DBURL    string `mapstructure:"DB_URL"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	GithubAPIURL            string   `mapstructure:"GITHUB_API_URL"`
	GithubGraphQLURL        string   `mapstructure:"GITHUB_GRAPHQL_URL"`
	GithubToken             string   `mapstructure:"GITHUB_TOKEN"`
	GithubAppID             int64    `mapstructure:"GITHUB_APP_ID"`
	GithubAppInstallationID int64    `mapstructure:"GITHUB_APP_INSTALLATION_ID"`
	GithubAppPrivateKeyPath string   `mapstructure:"GITHUB_APP_PRIVATE_KEY_PATH"`
	RequiredScopes          []string `mapstructure:"GITHUB_REQUIRED_SCOPES"`
	UpstreamRPS             float64  `mapstructure:"UPSTREAM_RPS"`
	UpstreamBurst           int      `mapstructure:"UPSTREAM_BURST"`

	SessionSecret string `mapstructure:"SESSION_SECRET"`

	CacheTTL                 time.Duration `mapstructure:"CACHE_TTL"`
	PageMaxRetries           uint64        `mapstructure:"PAGE_MAX_RETRIES"`
	PageRetryInitialInterval time.Duration `mapstructure:"PAGE_RETRY_INITIAL_INTERVAL"`
	LoaderWait               time.Duration `mapstructure:"LOADER_WAIT"`

	WriteQueueDriver        string        `mapstructure:"WRITE_QUEUE_DRIVER"`
	WriteQueueMaxRetries    int           `mapstructure:"WRITE_QUEUE_MAX_RETRIES"`
	WriteQueueRetryInterval time.Duration `mapstructure:"WRITE_QUEUE_RETRY_INTERVAL"`

	AccountsDriver string `mapstructure:"ACCOUNTS_DRIVER"`
	// AccountsDSN defaults to DB_URL.
	AccountsDSN string `mapstructure:"ACCOUNTS_DSN"`

	TrackedLogins []string      `mapstructure:"TRACKED_LOGINS"`
	TrackedRepos  []string      `mapstructure:"TRACKED_REPOS"`
	SyncInterval  time.Duration `mapstructure:"SYNC_INTERVAL"`
}

// HasAppCredentials reports whether GitHub App installation tokens can be minted.
func (c *Config) HasAppCredentials() bool {
	return c.GithubAppID != 0 && c.GithubAppInstallationID != 0 && c.GithubAppPrivateKeyPath != ""
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("DB_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GITHUB_API_URL", "")
	v.SetDefault("GITHUB_GRAPHQL_URL", "")
	v.SetDefault("GITHUB_TOKEN", "")
	v.SetDefault("GITHUB_APP_ID", 0)
	v.SetDefault("GITHUB_APP_INSTALLATION_ID", 0)
	v.SetDefault("GITHUB_APP_PRIVATE_KEY_PATH", "")
	v.SetDefault("GITHUB_REQUIRED_SCOPES", "read:org,read:user")
	v.SetDefault("UPSTREAM_RPS", 10)
	v.SetDefault("UPSTREAM_BURST", 20)
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("CACHE_TTL", "15m")
	v.SetDefault("PAGE_MAX_RETRIES", 3)
	v.SetDefault("PAGE_RETRY_INITIAL_INTERVAL", "500ms")
	v.SetDefault("LOADER_WAIT", "2ms")
	v.SetDefault("WRITE_QUEUE_DRIVER", "watermill")
	v.SetDefault("WRITE_QUEUE_MAX_RETRIES", 5)
	v.SetDefault("WRITE_QUEUE_RETRY_INTERVAL", "200ms")
	v.SetDefault("ACCOUNTS_DRIVER", "postgres")
	v.SetDefault("ACCOUNTS_DSN", "")
	v.SetDefault("TRACKED_LOGINS", "")
	v.SetDefault("TRACKED_REPOS", "")
	v.SetDefault("SYNC_INTERVAL", "1h")

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.RequiredScopes = splitList(cfg.RequiredScopes)
	cfg.TrackedLogins = splitList(cfg.TrackedLogins)
	cfg.TrackedRepos = splitList(cfg.TrackedRepos)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DBURL == "" {
		return errors.New("DB_URL is a required configuration field")
	}
	appFields := 0
	for _, set := range []bool{c.GithubAppID != 0, c.GithubAppInstallationID != 0, c.GithubAppPrivateKeyPath != ""} {
		if set {
			appFields++
		}
	}
	if appFields != 0 && appFields != 3 {
		return errors.New("GITHUB_APP_ID, GITHUB_APP_INSTALLATION_ID and GITHUB_APP_PRIVATE_KEY_PATH must be set together")
	}
	if c.GithubToken == "" && appFields == 0 {
		return errors.New("either GITHUB_TOKEN or GitHub App credentials are required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is a required configuration field")
	}
	switch c.WriteQueueDriver {
	case "watermill", "river":
	default:
		return fmt.Errorf("WRITE_QUEUE_DRIVER must be watermill or river, got %q", c.WriteQueueDriver)
	}
	switch c.AccountsDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("ACCOUNTS_DRIVER must be postgres, mysql or sqlite, got %q", c.AccountsDriver)
	}
	if c.AccountsDSN == "" {
		c.AccountsDSN = c.DBURL
	}
	for _, r := range c.TrackedRepos {
		parts := strings.Split(r, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("TRACKED_REPOS entry %q must be in owner/name format", r)
		}
	}
	return nil
}

// splitList normalises list values that viper reads from the environment as
// a single comma or space separated string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			out = append(out, part)
		}
	}
	return out
}
