// Package cli provides the command-line interface for netscan.
// It implements the Cobra command tree for one-shot scans, recurring scans
// and configuration management.
package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/netscan/internal/logging"
)

const (
	envPrefix      = "NETSCAN"
	configName     = "netscan"
	exitFailure    = 1
	exitInputError = 2
)

var (
	cfgFile string
	verbose bool
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "netscan",
	Short: "Host discovery and TCP port scanner",
	Long: `netscan expands a single IPv4 address or a CIDR block, checks which hosts
answer an ICMP echo, connects to the requested TCP ports on those hosts and
identifies the services behind open ports from their banners.`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries the process exit status for a failed command. Its
// diagnostic has already been written when it is returned.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to a process exit status. Errors raised by
// cobra itself are usage errors and are printed here.
func exitCode(err error) int {
	var exitErr *exitError
	if stderrors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitInputError
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./netscan.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.config/netscan")
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(configName)
	}

	// NETSCAN_SCANNING_WORKERS overrides scanning.workers, and so on.
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	initLogging()
}

// initLogging installs the default logger. Commands reinstall it once the
// full configuration has been resolved.
func initLogging() {
	cfg := logging.DefaultConfig()
	if verbose {
		cfg.Level = logging.LevelDebug
	}
	logging.SetDefault(logging.NewWithWriter(cfg, os.Stderr))
}

// configureLogging builds the default logger from resolved settings.
func configureLogging(cfg logging.Config) {
	if verbose {
		cfg.Level = logging.LevelDebug
		cfg.AddSource = true
	}

	logger, err := logging.New(cfg)
	if err != nil {
		logging.SetDefault(logging.NewDefault())
		logging.Warn("Failed to initialize logging, using defaults", "error", err)
		return
	}
	logging.SetDefault(logger)

	if verbose {
		logging.Debug("Structured logging initialized", "level", cfg.Level, "format", cfg.Format)
	}
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}
