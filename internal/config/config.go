// Package config loads and validates netscan configuration files.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/netscan/internal/errors"
	"github.com/anstrom/netscan/internal/logging"
	"github.com/anstrom/netscan/internal/ports"
)

const (
	configDirPerm  = 0755
	configFilePerm = 0644

	// DefaultMaxHosts caps target expansion at a /16.
	DefaultMaxHosts = 65536
)

// Output formats.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Config represents the complete netscan configuration
type Config struct {
	Scanning ScanningConfig `yaml:"scanning" json:"scanning"`
	Logging  logging.Config `yaml:"logging" json:"logging"`
	Output   OutputConfig   `yaml:"output" json:"output"`
	Metrics  MetricsConfig  `yaml:"metrics" json:"metrics"`
	Resolve  ResolveConfig  `yaml:"resolve" json:"resolve"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
}

// ScanningConfig holds scanning-related settings
type ScanningConfig struct {
	// Number of concurrent probe workers
	Workers int `yaml:"workers" json:"workers" validate:"min=1,max=65536"`

	// Jobs allowed to wait for a worker before submission blocks
	QueueSize int `yaml:"queue_size" json:"queue_size" validate:"min=0"`

	// Ports scanned when none are given on the command line
	DefaultPorts string `yaml:"default_ports" json:"default_ports"`

	// Skip the ICMP liveness gate and probe every expanded host
	SkipPing bool `yaml:"skip_ping" json:"skip_ping"`

	// Identify services on open ports
	GrabBanners bool `yaml:"grab_banners" json:"grab_banners"`

	PingTimeout    time.Duration `yaml:"ping_timeout" json:"ping_timeout" validate:"gt=0"`
	PingAttempts   uint          `yaml:"ping_attempts" json:"ping_attempts" validate:"min=1,max=10"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout" validate:"gt=0"`
	BannerTimeout  time.Duration `yaml:"banner_timeout" json:"banner_timeout" validate:"gt=0"`

	// Aggregate deadline for a whole scan (0 = none)
	ScanTimeout time.Duration `yaml:"scan_timeout" json:"scan_timeout" validate:"gte=0"`

	// Probes started per second (0 = unlimited)
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit" validate:"gte=0"`

	// Largest target accepted (0 = unlimited)
	MaxHosts int `yaml:"max_hosts" json:"max_hosts" validate:"gte=0"`
}

// OutputConfig controls how reports are rendered
type OutputConfig struct {
	Format string `yaml:"format" json:"format" validate:"oneof=text table json yaml"`
	// Color is one of auto, always or never
	Color string `yaml:"color" json:"color" validate:"oneof=auto always never"`
	// Print the startup banner and scan header in text output
	Banner bool `yaml:"banner" json:"banner"`
	// Append a scan summary to text and table output
	Stats bool `yaml:"stats" json:"stats"`
}

// MetricsConfig holds Prometheus textfile export settings
type MetricsConfig struct {
	// Path of the textfile written after each scan (empty = disabled)
	Textfile string `yaml:"textfile" json:"textfile"`
}

// ResolveConfig holds reverse DNS settings
type ResolveConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// DNS server as host:port; empty uses /etc/resolv.conf
	Server      string        `yaml:"server" json:"server" validate:"omitempty,hostname_port"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
	Concurrency int           `yaml:"concurrency" json:"concurrency" validate:"min=1,max=1024"`
}

// WatchConfig holds settings for recurring scans
type WatchConfig struct {
	// Standard five field cron expression
	Schedule string `yaml:"schedule" json:"schedule"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	workers := runtime.NumCPU() * 8
	return &Config{
		Scanning: ScanningConfig{
			Workers:        workers,
			QueueSize:      workers * 2,
			DefaultPorts:   ports.DefaultSpec,
			SkipPing:       false,
			GrabBanners:    true,
			PingTimeout:    time.Second,
			PingAttempts:   3,
			ConnectTimeout: 3 * time.Second,
			BannerTimeout:  2 * time.Second,
			ScanTimeout:    0,
			RateLimit:      0,
			MaxHosts:       DefaultMaxHosts,
		},
		Logging: logging.DefaultConfig(),
		Output: OutputConfig{
			Format: FormatText,
			Color:  "auto",
			Banner: true,
		},
		Resolve: ResolveConfig{
			Enabled:     false,
			Timeout:     2 * time.Second,
			Concurrency: 16,
		},
		Watch: WatchConfig{
			Schedule: "@every 1h",
		},
	}
}

// Load loads configuration from a file. Missing files yield defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file", err)
	}

	// JSON is a subset of YAML, so one decoder serves both extensions.
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to parse config file %s", filepath.Base(path)), err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, configFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.ErrConfigInvalid(fe.Namespace(), fe.Value())
		}
		return errors.WrapConfigError(errors.CodeValidation, "configuration validation failed", err)
	}

	if _, err := ports.Parse(c.Scanning.DefaultPorts, ""); err != nil {
		return errors.ErrConfigInvalid("Config.Scanning.DefaultPorts", c.Scanning.DefaultPorts)
	}

	if c.Watch.Schedule != "" {
		if _, err := cron.ParseStandard(c.Watch.Schedule); err != nil {
			return errors.ErrConfigInvalid("Config.Watch.Schedule", c.Watch.Schedule)
		}
	}

	return nil
}

