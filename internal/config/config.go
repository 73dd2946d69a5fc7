package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration. It is loaded once at process
// start and treated as immutable afterwards; constructors receive it
// explicitly rather than reading ambient state.
type Config struct {
	// BaseURL is the root URL of the JMAP backend.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Username and AppPassword form the basic-auth credential pair.
	Username    string `mapstructure:"username" yaml:"username"`
	AppPassword string `mapstructure:"app_password" yaml:"app_password"`

	// Token is an optional bearer token. When set it takes precedence
	// over basic auth.
	Token string `mapstructure:"token" yaml:"token"`

	// EnableWrite gates the (placeholder) send-message operation.
	EnableWrite bool `mapstructure:"enable_write" yaml:"enable_write"`

	// FixtureDir is the directory holding fallback sample data. The
	// per-resource paths override individual files when set.
	FixtureDir      string `mapstructure:"fixture_dir" yaml:"fixture_dir"`
	MessagesFixture string `mapstructure:"messages_fixture" yaml:"messages_fixture"`
	ContactsFixture string `mapstructure:"contacts_fixture" yaml:"contacts_fixture"`
	EventsFixture   string `mapstructure:"events_fixture" yaml:"events_fixture"`

	// RequestTimeoutSec bounds every discovery and API call.
	RequestTimeoutSec int `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`

	// TCPHost and TCPPort configure the TCP transport mode.
	TCPHost string `mapstructure:"tcp_host" yaml:"tcp_host"`
	TCPPort int    `mapstructure:"tcp_port" yaml:"tcp_port"`
}

// RequestTimeout returns the per-call timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// MessagesFixturePath resolves the messages fixture file.
func (c *Config) MessagesFixturePath() string {
	return c.fixturePath(c.MessagesFixture, "messages_sample.json")
}

// ContactsFixturePath resolves the contacts fixture file.
func (c *Config) ContactsFixturePath() string {
	return c.fixturePath(c.ContactsFixture, "contacts_sample.json")
}

// EventsFixturePath resolves the events fixture file.
func (c *Config) EventsFixturePath() string {
	return c.fixturePath(c.EventsFixture, "events_sample.json")
}

func (c *Config) fixturePath(override, name string) string {
	if override != "" {
		return override
	}
	return filepath.Join(c.FixtureDir, name)
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/fmbridge/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "fmbridge", "config.yaml")
}

func defaultConfig() *Config {
	return &Config{
		BaseURL:           "https://api.fastmail.com",
		Username:          "local-user",
		AppPassword:       "local-app-password",
		FixtureDir:        "assets",
		RequestTimeoutSec: 10,
		TCPHost:           "0.0.0.0",
		TCPPort:           4000,
	}
}

// envBindings maps config keys to the environment variables the original
// deployment scripts already use.
var envBindings = map[string]string{
	"base_url":         "FASTMAIL_BASE_URL",
	"username":         "FASTMAIL_USERNAME",
	"app_password":     "FASTMAIL_APP_PASSWORD",
	"token":            "FASTMAIL_TOKEN",
	"enable_write":     "FASTMAIL_ENABLE_WRITE",
	"messages_fixture": "FASTMAIL_SAMPLE_DATA",
	"contacts_fixture": "FASTMAIL_CONTACT_SAMPLE_DATA",
	"events_fixture":   "FASTMAIL_EVENT_SAMPLE_DATA",
}

// Load reads configuration from the given YAML file path using Viper,
// layering FASTMAIL_* environment variables over file values. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("base_url", "https://api.fastmail.com")
	v.SetDefault("username", "local-user")
	v.SetDefault("app_password", "local-app-password")
	v.SetDefault("fixture_dir", "assets")
	v.SetDefault("request_timeout_sec", 10)
	v.SetDefault("tcp_host", "0.0.0.0")
	v.SetDefault("tcp_port", 4000)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.RequestTimeoutSec <= 0 {
		cfg.RequestTimeoutSec = 10
	}

	return cfg, nil
}
