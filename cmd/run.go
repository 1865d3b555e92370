package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/openchatops/oco/internal/config"
	"github.com/openchatops/oco/internal/dependency"
)

var runNoWatch bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the chat service and start dispatching",
	RunE:  runRobot,
}

func init() {
	runCmd.Flags().BoolVar(&runNoWatch, "no-watch", false, "Do not reload routes when the config file changes")
}

func runRobot(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	brain := c.Brain()
	log := c.Logger().With("component", "run")
	log.Info("starting", "robot", brain.Name(), "adapter", c.Adapter().Name(), "storage", cfg.Storage.Driver)

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	// The robot stopping (end of chat input) stops everything else.
	g.Go(func() error {
		defer cancel()
		return brain.Run(gctx)
	})

	if cfg.Schedule.Enabled {
		g.Go(func() error { return c.Scheduler().Start(gctx) })
	}

	path := configPath()
	if _, statErr := os.Stat(path); statErr == nil && !runNoWatch {
		w := config.NewWatcher(path, func(next *config.Config) {
			t, err := config.BuildTable(next.Routes)
			if err != nil {
				log.Error("ignoring routes", "err", err)
				return
			}
			if err := brain.ReplaceRoutes(t); err != nil {
				log.Error("ignoring routes", "err", err)
				return
			}
			chatRoutes, eventRoutes := t.Len()
			log.Info("routes reloaded", "chat", chatRoutes, "events", eventRoutes)
		}, c.Logger())
		g.Go(func() error { return w.Run(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("robot stopped: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
