package datahub

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ConfigProvider decouples the hub from any one configuration source, so
// callers can swap in a fixed value, a file loader, or a test double.
type ConfigProvider interface {
	GetConfig() any
}

// StdConfigProvider wraps a fixed configuration value. It returns the same
// reference on every call, so callers sharing a StdConfigProvider share
// mutations to the underlying value.
type StdConfigProvider struct {
	cfg any
}

// NewStdConfigProvider wraps cfg.
func NewStdConfigProvider(cfg any) *StdConfigProvider {
	return &StdConfigProvider{cfg: cfg}
}

func (p *StdConfigProvider) GetConfig() any { return p.cfg }

// KMSDriverConfig configures one entry in Config.KMSDrivers: a provider
// name and the exec helper used to reach it.
type KMSDriverConfig struct {
	Provider string   `yaml:"provider" toml:"provider"`
	Command  string   `yaml:"command" toml:"command"`
	Args     []string `yaml:"args,omitempty" toml:"args,omitempty"`
}

// Config is the hub's top-level configuration.
type Config struct {
	// KBSHostURL is the base URL of the Key Broker Service this hub
	// attests to, e.g. "https://kbs.example.com:8080".
	KBSHostURL string `yaml:"kbs_host_url" toml:"kbs_host_url"`

	// AttestationAgentSocket is the Unix socket path of the local
	// evidence-producing agent. Defaults to tee.DefaultSocketPath.
	AttestationAgentSocket string `yaml:"attestation_agent_socket" toml:"attestation_agent_socket"`

	// RequestTimeoutSeconds bounds every KBS HTTP round trip.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`

	// KMSDrivers configures the KMS drivers the hub should wire at
	// startup, keyed by the provider name annotation packets/secrets
	// route on.
	KMSDrivers []KMSDriverConfig `yaml:"kms_drivers,omitempty" toml:"kms_drivers,omitempty"`

	// Socket is the Unix socket the hub's transport listens on.
	Socket string `yaml:"socket" toml:"socket"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// DefaultRequestTimeoutSeconds is used when Config.RequestTimeoutSeconds is
// unset or non-positive.
const DefaultRequestTimeoutSeconds = 60

// Validate checks required fields and fills in defaults.
func (c *Config) Validate() error {
	if c.KBSHostURL == "" {
		return fmt.Errorf("%w: kbs_host_url is required", ErrInvalidConfig)
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	seen := make(map[string]bool, len(c.KMSDrivers))
	for _, d := range c.KMSDrivers {
		if d.Provider == "" || d.Command == "" {
			return fmt.Errorf("%w: kms_drivers entries require provider and command", ErrInvalidConfig)
		}
		if seen[d.Provider] {
			return fmt.Errorf("%w: duplicate kms driver provider %q", ErrInvalidConfig, d.Provider)
		}
		seen[d.Provider] = true
	}
	return nil
}

// LoadConfig reads path (YAML or TOML, chosen by extension) into a Config
// and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	switch ext := fileExt(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func fileExt(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}
