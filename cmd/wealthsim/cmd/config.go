package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/wealth-builder/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate, show or validate configuration files",
	Long: `Manage configuration files shared by the server and wealthsim.

Subcommands:
  init     - Generate a default configuration file
  show     - Print the effective configuration
  validate - Validate an existing configuration file

Files ending in .yaml or .yml are written as YAML, anything else as JSON.

Examples:
  wealthsim config init -o config/config.yaml
  wealthsim config validate -f config/config.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configShowFormat   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "config/config.json", "output config file path")
	configShowCmd.Flags().StringVar(&configShowFormat, "format", "yaml", "json or yaml")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.SaveConfig(config.DefaultConfig(), configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	success.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  wealthsim simulate --config %s\n", configInitOutput)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var name string
	switch configShowFormat {
	case "yaml", "yml":
		name = "config.yaml"
	case "json":
		name = "config.json"
	default:
		return fmt.Errorf("unknown format %q", configShowFormat)
	}

	data, err := config.Encode(cfg, name)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	success.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Game: %s, %dms per game, tick every %dms\n", cfg.Game.DefaultDifficulty, cfg.Game.DurationMs, cfg.Game.TickIntervalMs)
	fmt.Fprintf(out, "  History: %s\n", cfg.Database.Driver)
	fmt.Fprintf(out, "  Snapshots: %s\n", cfg.Storage.Backend)
	return nil
}
