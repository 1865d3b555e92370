package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openchatops/oco/internal/config"
)

var onboardForce bool

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and data directory",
	RunE:  runOnboard,
}

func init() {
	onboardCmd.Flags().BoolVar(&onboardForce, "force", false, "Overwrite an existing config with defaults")
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := configPath()

	if _, err := os.Stat(cfgPath); err == nil && !onboardForce {
		// Refresh: keep values, add any new defaults.
		existing, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("existing config is invalid (use --force to reset): %w", err)
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	fmt.Printf("✓ Data directory at %s\n", dataDir)

	fmt.Printf("\n%s oco is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Pick a chat adapter (shell, slack, telegram, bridge) in %s\n", cfgPath)
	fmt.Println("  2. Add routes under \"routes\" or keep the built-in ones")
	fmt.Println("  3. Start: oco run")
	return nil
}
