package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/netscan/internal/config"
	"github.com/anstrom/netscan/internal/errors"
)

const defaultConfigPath = configName + ".yaml"

var configForce bool

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, show and validate configuration files",
	Long: `Manage the netscan configuration file.

Settings are resolved in this order, later sources winning: built-in
defaults, the config file, NETSCAN_* environment variables and command line
flags. For example NETSCAN_SCANNING_WORKERS=64 overrides scanning.workers.

Examples:
  # Write a config file with the default settings
  netscan config init

  # Show the effective settings
  NETSCAN_OUTPUT_FORMAT=json netscan config show

  # Check a config file before deploying it
  netscan config validate /etc/netscan/netscan.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		return initConfigFile(path, configForce, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadSettings(viper.GetViper())
		if err != nil {
			return inputFailure(cmd.ErrOrStderr(), err)
		}
		return showConfig(cfg, cmd.OutOrStdout())
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a config file for errors",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.ConfigFileUsed()
		if len(args) == 1 {
			path = args[0]
		}
		return validateConfigFile(path, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd)

	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
}

func initConfigFile(path string, force bool, stdout, stderr io.Writer) error {
	if _, err := os.Stat(path); err == nil && !force {
		return inputFailure(stderr, errors.NewConfigFieldError(errors.CodeConfiguration,
			"Config file already exists, use --force to overwrite", "path", path))
	}
	if err := config.Default().Save(path); err != nil {
		return failure(stderr, err)
	}
	fmt.Fprintf(stdout, "Wrote default configuration to %s\n", path)
	return nil
}

func showConfig(cfg *config.Config, stdout io.Writer) error {
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

func validateConfigFile(path string, stdout, stderr io.Writer) error {
	if path == "" {
		return inputFailure(stderr, errors.NewConfigFieldError(errors.CodeConfiguration,
			"No config file found", "path", path))
	}
	if _, err := os.Stat(path); err != nil {
		return inputFailure(stderr, errors.WrapConfigError(errors.CodeConfiguration,
			"Config file not readable", err))
	}
	if _, err := config.Load(path); err != nil {
		return inputFailure(stderr, err)
	}
	fmt.Fprintf(stdout, "%s is valid\n", path)
	return nil
}
