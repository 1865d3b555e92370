// Package cmd implements the oco CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openchatops/oco/internal/config"
)

const version = "0.1.0"
const logo = "🤖"

var cfgFile string

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:           "oco",
	Short:         logo + " oco: a chat robot that routes messages to callbacks",
	Long:          logo + " oco connects to a chat service and dispatches messages and events to local or remote callbacks.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default $"+config.EnvConfig+" or ~/.oco/config.json)")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(routesCmd)
	rootCmd.AddCommand(storageCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(emitCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
