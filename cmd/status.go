package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openchatops/oco/internal/config"
	"github.com/openchatops/oco/internal/config/channel"
	"github.com/openchatops/oco/internal/schedule"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show oco status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := configPath()

	fmt.Printf("%s oco status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	fmt.Printf("Config:    %s %s\n", cfgPath, mark(statErr == nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	fmt.Printf("Robot:     %s\n", cfg.Robot.Name)
	fmt.Printf("Adapter:   %s %s\n", cfg.Chat.Adapter, adapterDetail(cfg.Chat))
	storagePath := cfg.StoragePath()
	if storagePath == "" {
		storagePath = "(in memory)"
	}
	fmt.Printf("Storage:   %s %s\n", cfg.Storage.Driver, storagePath)
	fmt.Printf("Dispatch:  timeout %s, concurrency %d\n", cfg.Dispatch.CallbackTimeout, cfg.Dispatch.Concurrency)

	chatRoutes, eventRoutes := len(cfg.Routes.Chat), len(cfg.Routes.Events)
	fmt.Printf("Routes:    %d chat, %d event\n", chatRoutes, eventRoutes)

	if !cfg.Schedule.Enabled {
		fmt.Println("Schedule:  disabled")
		return nil
	}
	svc, err := schedule.NewService(cfg.SchedulePath(), nil)
	if err != nil {
		fmt.Printf("Schedule:  %s (%v)\n", cfg.SchedulePath(), err)
		return nil
	}
	fmt.Printf("Schedule:  %d enabled of %d jobs\n", len(svc.ListJobs(false)), len(svc.ListJobs(true)))
	return nil
}

func adapterDetail(c channel.ChatConfig) string {
	switch c.Adapter {
	case channel.AdapterSlack:
		return fmt.Sprintf("(bot %s, app %s)", tokenHint(c.Slack.BotToken), tokenHint(c.Slack.AppToken))
	case channel.AdapterTelegram:
		return fmt.Sprintf("(token %s)", tokenHint(c.Telegram.Token))
	case channel.AdapterBridge:
		return "(" + c.Bridge.URL + ")"
	case channel.AdapterShell:
		return fmt.Sprintf("(user %s, room %s)", c.Shell.User, c.Shell.Room)
	}
	return ""
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func tokenHint(s string) string {
	if s == "" {
		return "not set"
	}
	if len(s) > 8 {
		return s[:4] + "…" + s[len(s)-4:]
	}
	return "set"
}
