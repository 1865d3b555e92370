package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openchatops/oco/internal/config"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List configured chat and event routes in dispatch order",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Validates patterns and addresses the same way run does.
		if _, err := config.BuildTable(cfg.Routes); err != nil {
			return err
		}

		fmt.Println("Chat routes:")
		if len(cfg.Routes.Chat) == 0 {
			fmt.Println("  (none)")
		}
		for i, r := range cfg.Routes.Chat {
			fmt.Printf("  %2d. %-24s → %s\n", i+1, r.Pattern, r.Address)
		}

		fmt.Println("\nEvent routes:")
		if len(cfg.Routes.Events) == 0 {
			fmt.Println("  (none)")
		}
		for i, r := range cfg.Routes.Events {
			fmt.Printf("  %2d. %-24s → %s\n", i+1, r.Event, r.Address)
		}
		fmt.Println(strings.Repeat("-", 40))
		fmt.Printf("%d chat, %d event\n", len(cfg.Routes.Chat), len(cfg.Routes.Events))
		return nil
	},
}
