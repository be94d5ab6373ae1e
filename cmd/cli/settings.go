package cli

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anstrom/netscan/internal/config"
	"github.com/anstrom/netscan/internal/logging"
	"github.com/anstrom/netscan/internal/scanning"
)

// loadSettings resolves the effective configuration. Values from the config
// file are loaded first, then every key set through the environment or an
// explicit flag replaces them.
func loadSettings(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v.ConfigFileUsed())
	if err != nil {
		return nil, err
	}

	applyOverrides(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides copies keys viper knows about into cfg. Flag defaults do
// not count as set, so an untouched flag never masks the config file.
func applyOverrides(v *viper.Viper, cfg *config.Config) {
	s := &cfg.Scanning
	if v.IsSet("scanning.workers") {
		s.Workers = v.GetInt("scanning.workers")
		s.QueueSize = s.Workers * 2
	}
	if v.IsSet("scanning.queue_size") {
		s.QueueSize = v.GetInt("scanning.queue_size")
	}
	if v.IsSet("scanning.default_ports") {
		s.DefaultPorts = v.GetString("scanning.default_ports")
	}
	if v.IsSet("scanning.skip_ping") {
		s.SkipPing = v.GetBool("scanning.skip_ping")
	}
	if v.IsSet("scanning.grab_banners") {
		s.GrabBanners = v.GetBool("scanning.grab_banners")
	}
	if v.IsSet("scanning.ping_timeout") {
		s.PingTimeout = v.GetDuration("scanning.ping_timeout")
	}
	if v.IsSet("scanning.ping_attempts") {
		s.PingAttempts = v.GetUint("scanning.ping_attempts")
	}
	if v.IsSet("scanning.connect_timeout") {
		s.ConnectTimeout = v.GetDuration("scanning.connect_timeout")
	}
	if v.IsSet("scanning.banner_timeout") {
		s.BannerTimeout = v.GetDuration("scanning.banner_timeout")
	}
	if v.IsSet("scanning.scan_timeout") {
		s.ScanTimeout = v.GetDuration("scanning.scan_timeout")
	}
	if v.IsSet("scanning.rate_limit") {
		s.RateLimit = v.GetFloat64("scanning.rate_limit")
	}
	if v.IsSet("scanning.max_hosts") {
		s.MaxHosts = v.GetInt("scanning.max_hosts")
	}

	if v.IsSet("output.format") {
		cfg.Output.Format = v.GetString("output.format")
	}
	if v.IsSet("output.color") {
		cfg.Output.Color = v.GetString("output.color")
	}
	if v.IsSet("output.banner") {
		cfg.Output.Banner = v.GetBool("output.banner")
	}
	if v.IsSet("output.stats") {
		cfg.Output.Stats = v.GetBool("output.stats")
	}

	if v.IsSet("logging.level") {
		cfg.Logging.Level = logging.LogLevel(v.GetString("logging.level"))
	}
	if v.IsSet("logging.format") {
		cfg.Logging.Format = logging.LogFormat(v.GetString("logging.format"))
	}
	if v.IsSet("logging.output") {
		cfg.Logging.Output = v.GetString("logging.output")
	}

	if v.IsSet("metrics.textfile") {
		cfg.Metrics.Textfile = v.GetString("metrics.textfile")
	}

	if v.IsSet("resolve.enabled") {
		cfg.Resolve.Enabled = v.GetBool("resolve.enabled")
	}
	if v.IsSet("resolve.server") {
		cfg.Resolve.Server = v.GetString("resolve.server")
	}
	if v.IsSet("resolve.timeout") {
		cfg.Resolve.Timeout = v.GetDuration("resolve.timeout")
	}
	if v.IsSet("resolve.concurrency") {
		cfg.Resolve.Concurrency = v.GetInt("resolve.concurrency")
	}

	if v.IsSet("watch.schedule") {
		cfg.Watch.Schedule = v.GetString("watch.schedule")
	}
}

// bindFlags binds flag names to configuration keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", name, err)
		}
	}
}

// scannerConfig converts the resolved configuration into scanner settings.
func scannerConfig(cfg *config.Config) scanning.Config {
	s := cfg.Scanning
	sc := scanning.DefaultConfig()
	sc.Workers = s.Workers
	sc.QueueSize = s.QueueSize
	sc.SkipPing = s.SkipPing
	sc.GrabBanners = s.GrabBanners
	sc.Resolve = cfg.Resolve.Enabled
	sc.PingTimeout = s.PingTimeout
	sc.PingAttempts = s.PingAttempts
	sc.ConnectTimeout = s.ConnectTimeout
	sc.BannerTimeout = s.BannerTimeout
	sc.ScanTimeout = s.ScanTimeout
	sc.RateLimit = s.RateLimit
	sc.MaxHosts = s.MaxHosts
	return sc
}
