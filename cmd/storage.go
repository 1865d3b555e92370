package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/storage"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Read and write the robot's key/value storage",
}

func init() {
	storageCmd.AddCommand(storageGetCmd)
	storageCmd.AddCommand(storageSetCmd)
}

var storageGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value stored under key",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withStorage(func(ctx context.Context, s storage.Adapter) error {
			v, err := s.Get(ctx, args[0])
			if errors.Is(err, errs.ErrMissingData) {
				return fmt.Errorf("%s: no value stored", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		})
	},
}

var storageSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store value under key",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		return withStorage(func(ctx context.Context, s storage.Adapter) error {
			if err := s.Set(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("✓ %s set\n", args[0])
			return nil
		})
	},
}

func withStorage(fn func(context.Context, storage.Adapter) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == storage.DriverMemory {
		return errors.New("storage driver is memory; nothing persists between runs")
	}
	s, err := storage.Open(cfg.Storage.Driver, cfg.StoragePath())
	if err != nil {
		return err
	}
	defer storage.Close(s)
	return fn(context.Background(), s)
}
