package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/openchatops/oco/internal/dependency"
	"github.com/openchatops/oco/internal/event"
)

var emitTimeout time.Duration

var emitCmd = &cobra.Command{
	Use:   "emit <event> [key=value...]",
	Short: "Dispatch an event to its routes once, replying through the configured adapter",
	Example: `  oco emit announce room=general message="deploy finished"
  oco emit startup`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		payload, err := parsePayload(args[1:])
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := dependency.New(cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		ev := event.New(args[0], payload)
		if n := len(c.Brain().Routes().EventRoutes(ev.Name)); n == 0 {
			fmt.Printf("No routes for event %q.\n", ev.Name)
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := c.Brain().HandleEvent(ctx, ev); err != nil {
			return fmt.Errorf("emit %s: %w", ev.Name, err)
		}
		fmt.Printf("✓ Dispatched %s\n", ev.Name)
		return nil
	},
}

func init() {
	emitCmd.Flags().DurationVar(&emitTimeout, "timeout", 2*time.Minute, "Overall dispatch timeout")
}
