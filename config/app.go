package config

import (
	"fmt"
	"time"

	"github.com/skillsenselab/meetscribe/server"
)

// ASRConfig configures the speech-recognition provider.
type ASRConfig struct {
	// Provider selects the recognition backend, e.g. "assemblyai".
	Provider string        `yaml:"provider" mapstructure:"provider"`
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey   string        `yaml:"api_key" mapstructure:"api_key"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// PollInterval is the delay between job status polls.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	// PollTimeout bounds how long a job may stay non-terminal.
	PollTimeout time.Duration `yaml:"poll_timeout" mapstructure:"poll_timeout"`
}

// RewriteConfig configures the text-generation provider used for
// model-based transcript rewrites.
type RewriteConfig struct {
	// Provider selects the rewrite backend, e.g. "ollama".
	Provider    string        `yaml:"provider" mapstructure:"provider"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// StoreConfig configures transcript persistence.
type StoreConfig struct {
	// Driver selects the store implementation: "sqlite" or "memory".
	Driver string `yaml:"driver" mapstructure:"driver"`
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`
}

// AppConfig is the full service configuration.
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server  server.Config `yaml:"server" mapstructure:"server"`
	ASR     ASRConfig     `yaml:"asr" mapstructure:"asr"`
	Rewrite RewriteConfig `yaml:"rewrite" mapstructure:"rewrite"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
}

// Load reads the service configuration from config files and environment,
// applies defaults, and validates it.
func Load(serviceName string, opts ...LoaderOption) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults applies default values to all sections.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()

	if c.ASR.Provider == "" {
		c.ASR.Provider = "assemblyai"
	}
	if c.ASR.PollInterval == 0 {
		c.ASR.PollInterval = 3 * time.Second
	}
	if c.ASR.PollTimeout == 0 {
		c.ASR.PollTimeout = 30 * time.Minute
	}

	if c.Rewrite.Provider == "" {
		c.Rewrite.Provider = "ollama"
	}
	if c.Rewrite.Timeout == 0 {
		c.Rewrite.Timeout = 60 * time.Second
	}

	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		c.Store.Path = "data/meetscribe.db"
	}
}

// Validate validates all sections.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("store.driver must be one of [sqlite, memory] (got: %s)", c.Store.Driver)
	}
	if c.Store.Driver == "sqlite" && c.Store.Path == "" {
		return fmt.Errorf("store.path is required for the sqlite driver")
	}
	if c.ASR.PollInterval < 0 || c.ASR.PollTimeout < 0 {
		return fmt.Errorf("asr poll settings must be non-negative")
	}
	if c.Rewrite.Timeout < 0 {
		return fmt.Errorf("rewrite.timeout must be non-negative")
	}
	return nil
}
