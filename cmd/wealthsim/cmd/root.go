package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/user/wealth-builder/config"
)

var rootCmd = &cobra.Command{
	Use:   "wealthsim",
	Short: "Headless runner for the wealth building game",
	Long: `Wealthsim plays complete games of the wealth building simulation without
a server or chat client attached.

It provides tools for:
  - Simulating a game with a scripted investing strategy
  - Recording simulated results in the history database
  - Listing the results recorded for a player
  - Generating configuration files`,
	SilenceUsage: true,
}

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

var configPath string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		danger.Fprintln(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (defaults are used when empty)")
}

// loadConfig reads --config, or returns the defaults when it is not set
func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(configPath)
}
