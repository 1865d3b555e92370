package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/openchatops/oco/internal/config"
	"github.com/openchatops/oco/internal/dependency"
	"github.com/openchatops/oco/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	Aliases: []string{"cron"},
	Short:   "Manage scheduled events",
	Long: "Manage jobs that emit events on a schedule. Changes are picked up " +
		"the next time `oco run` starts.",
}

func init() {
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleRemoveCmd)
	scheduleCmd.AddCommand(scheduleEnableCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
}

// ---- list ------------------------------------------------------------------

var scheduleListAll bool

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	RunE: func(_ *cobra.Command, _ []string) error {
		svc, _, err := openSchedule(nil)
		if err != nil {
			return err
		}
		jobs := svc.ListJobs(scheduleListAll)
		if len(jobs) == 0 {
			fmt.Println("No scheduled jobs.")
			return nil
		}
		fmt.Printf("%-10s %-18s %-28s %-14s %-9s %-17s\n", "ID", "Name", "Schedule", "Event", "Status", "Next Run")
		fmt.Println(strings.Repeat("-", 100))
		for _, j := range jobs {
			status := "enabled"
			if !j.Enabled {
				status = "disabled"
			}
			nextRun := ""
			if j.State.NextRunAtMs != 0 {
				nextRun = time.UnixMilli(j.State.NextRunAtMs).Format("2006-01-02 15:04")
			}
			fmt.Printf("%-10s %-18s %-28s %-14s %-9s %-17s\n",
				j.ID, truncStr(j.Name, 17), truncStr(j.Schedule.String(), 27), truncStr(j.Event, 13), status, nextRun)
		}
		return nil
	},
}

func init() {
	scheduleListCmd.Flags().BoolVarP(&scheduleListAll, "all", "a", false, "Include disabled jobs")
}

// ---- add -------------------------------------------------------------------

var (
	scheduleAddName    string
	scheduleAddEvent   string
	scheduleAddEvery   time.Duration
	scheduleAddCron    string
	scheduleAddTZ      string
	scheduleAddAt      string
	scheduleAddPayload []string
	scheduleAddRoom    string
	scheduleAddMessage string
	scheduleAddKeep    bool
)

var scheduleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a job that emits an event",
	Example: `  oco schedule add --event announce --room general --message "standup!" --cron "0 9 * * 1-5"
  oco schedule add --event tick --every 10m`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if scheduleAddTZ != "" && scheduleAddCron == "" {
			return fmt.Errorf("--tz can only be used with --cron")
		}

		var sched schedule.Schedule
		switch {
		case scheduleAddEvery > 0:
			sched = schedule.Every(scheduleAddEvery)
		case scheduleAddCron != "":
			sched = schedule.Cron(scheduleAddCron, scheduleAddTZ)
		case scheduleAddAt != "":
			at, err := parseAt(scheduleAddAt)
			if err != nil {
				return err
			}
			sched = schedule.At(at)
		default:
			return fmt.Errorf("must specify --every, --cron, or --at")
		}

		payload, err := parsePayload(scheduleAddPayload)
		if err != nil {
			return err
		}
		if scheduleAddRoom != "" {
			payload["room"] = scheduleAddRoom
		}
		if scheduleAddMessage != "" {
			payload["message"] = scheduleAddMessage
		}

		svc, _, err := openSchedule(nil)
		if err != nil {
			return err
		}
		job, err := svc.AddJob(schedule.JobSpec{
			Name:           scheduleAddName,
			Schedule:       sched,
			Event:          scheduleAddEvent,
			Payload:        payload,
			DeleteAfterRun: sched.Kind == schedule.KindAt && !scheduleAddKeep,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Added job '%s' (%s), %s\n", job.Name, job.ID, job.Schedule)
		return nil
	},
}

func init() {
	f := scheduleAddCmd.Flags()
	f.StringVarP(&scheduleAddName, "name", "n", "", "Job name (default: the event name)")
	f.StringVarP(&scheduleAddEvent, "event", "e", "", "Event to emit (required)")
	f.DurationVar(&scheduleAddEvery, "every", 0, "Emit every interval, e.g. 30s or 1h")
	f.StringVar(&scheduleAddCron, "cron", "", "Cron expression, e.g. '0 9 * * *' or @daily")
	f.StringVar(&scheduleAddTZ, "tz", "", "IANA timezone for --cron")
	f.StringVar(&scheduleAddAt, "at", "", "Emit once at a local datetime (2006-01-02T15:04:05) or RFC 3339 time")
	f.StringArrayVarP(&scheduleAddPayload, "payload", "p", nil, "Payload entry key=value (repeatable)")
	f.StringVar(&scheduleAddRoom, "room", "", "Shorthand for --payload room=<room>")
	f.StringVarP(&scheduleAddMessage, "message", "m", "", "Shorthand for --payload message=<text>")
	f.BoolVar(&scheduleAddKeep, "keep", false, "Keep one-time jobs (disabled) after they run")

	_ = scheduleAddCmd.MarkFlagRequired("event")
}

// ---- remove / enable -------------------------------------------------------

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove <job-id>",
	Short: "Remove a scheduled job",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		svc, _, err := openSchedule(nil)
		if err != nil {
			return err
		}
		if err := svc.RemoveJob(args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Removed job %s\n", args[0])
		return nil
	},
}

var scheduleEnableDisable bool

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable <job-id>",
	Short: "Enable (or disable) a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		svc, _, err := openSchedule(nil)
		if err != nil {
			return err
		}
		job, err := svc.EnableJob(args[0], !scheduleEnableDisable)
		if err != nil {
			return err
		}
		action := "enabled"
		if scheduleEnableDisable {
			action = "disabled"
		}
		fmt.Printf("✓ Job '%s' %s\n", job.Name, action)
		return nil
	},
}

func init() {
	scheduleEnableCmd.Flags().BoolVar(&scheduleEnableDisable, "disable", false, "Disable instead of enable")
}

// ---- run -------------------------------------------------------------------

var scheduleRunForce bool

var scheduleRunCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Emit a job's event now and dispatch it through the configured adapter",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := dependency.New(cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		// Dispatch synchronously; no dispatch loop is running here.
		svc, _, err := openSchedule(c.Brain().HandleEvent)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := svc.RunJob(ctx, args[0], scheduleRunForce); err != nil {
			return err
		}
		fmt.Println("✓ Job executed")
		return nil
	},
}

func init() {
	scheduleRunCmd.Flags().BoolVarP(&scheduleRunForce, "force", "f", false, "Run even if disabled")
}

// ---- helpers ---------------------------------------------------------------

func openSchedule(emit schedule.EmitFunc) (*schedule.Service, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	svc, err := schedule.NewService(cfg.SchedulePath(), emit)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func parseAt(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at value %q: %w", s, err)
	}
	return t, nil
}

// parsePayload turns key=value pairs into a map.
func parsePayload(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("payload entry %q is not key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

func truncStr(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
