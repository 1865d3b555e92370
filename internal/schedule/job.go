package schedule

import (
	"fmt"
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

// Schedule kinds.
const (
	KindEvery = "every"
	KindCron  = "cron"
	KindAt    = "at"
)

// Last run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Schedule says when a job fires.
type Schedule struct {
	Kind    string `json:"kind"`
	AtMs    int64  `json:"atMs,omitempty"`    // at: unix millis
	EveryMs int64  `json:"everyMs,omitempty"` // every: interval
	Expr    string `json:"expr,omitempty"`    // cron: five-field expression or descriptor
	TZ      string `json:"tz,omitempty"`      // cron: IANA zone, default local
}

// Every fires every d.
func Every(d time.Duration) Schedule { return Schedule{Kind: KindEvery, EveryMs: d.Milliseconds()} }

// Cron fires on a cron expression evaluated in tz.
func Cron(expr, tz string) Schedule { return Schedule{Kind: KindCron, Expr: expr, TZ: tz} }

// At fires once at t.
func At(t time.Time) Schedule { return Schedule{Kind: KindAt, AtMs: t.UnixMilli()} }

func (s Schedule) String() string {
	switch s.Kind {
	case KindEvery:
		return "every " + (time.Duration(s.EveryMs) * time.Millisecond).String()
	case KindCron:
		if s.TZ != "" {
			return fmt.Sprintf("cron %q (%s)", s.Expr, s.TZ)
		}
		return fmt.Sprintf("cron %q", s.Expr)
	case KindAt:
		return "at " + time.UnixMilli(s.AtMs).Format(time.RFC3339)
	}
	return s.Kind
}

// Validate checks the schedule is well formed. now is used to reject
// one-shot schedules in the past.
func (s Schedule) Validate(now time.Time) error {
	switch s.Kind {
	case KindEvery:
		if s.EveryMs <= 0 {
			return fmt.Errorf("every: interval must be positive")
		}
	case KindCron:
		if _, err := s.cronSchedule(); err != nil {
			return err
		}
	case KindAt:
		if s.AtMs <= now.UnixMilli() {
			return fmt.Errorf("at: %s is in the past", time.UnixMilli(s.AtMs).Format(time.RFC3339))
		}
	default:
		return fmt.Errorf("unknown schedule kind %q", s.Kind)
	}
	return nil
}

var cronParser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow | robfigcron.Descriptor,
)

func (s Schedule) cronSchedule() (robfigcron.Schedule, error) {
	parsed, err := cronParser.Parse(s.Expr)
	if err != nil {
		return nil, fmt.Errorf("cron %q: %w", s.Expr, err)
	}
	loc := time.Local
	if s.TZ != "" {
		l, err := time.LoadLocation(s.TZ)
		if err != nil {
			return nil, fmt.Errorf("cron timezone %q: %w", s.TZ, err)
		}
		loc = l
	}
	return locSchedule{inner: parsed, loc: loc}, nil
}

// Next returns the next fire time after now in unix millis, or 0 when the
// schedule never fires again.
func (s Schedule) Next(now time.Time) int64 {
	switch s.Kind {
	case KindAt:
		if s.AtMs > now.UnixMilli() {
			return s.AtMs
		}
	case KindEvery:
		if s.EveryMs > 0 {
			return now.UnixMilli() + s.EveryMs
		}
	case KindCron:
		if cs, err := s.cronSchedule(); err == nil {
			return cs.Next(now).UnixMilli()
		}
	}
	return 0
}

// locSchedule evaluates a cron schedule in a fixed location.
type locSchedule struct {
	inner robfigcron.Schedule
	loc   *time.Location
}

func (l locSchedule) Next(t time.Time) time.Time { return l.inner.Next(t.In(l.loc)) }

// JobState is the run bookkeeping of a job.
type JobState struct {
	NextRunAtMs int64  `json:"nextRunAtMs,omitempty"`
	LastRunAtMs int64  `json:"lastRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

// Job emits Event with Payload each time its schedule fires.
type Job struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Enabled        bool              `json:"enabled"`
	Schedule       Schedule          `json:"schedule"`
	Event          string            `json:"event"`
	Payload        map[string]string `json:"payload,omitempty"`
	State          JobState          `json:"state"`
	CreatedAtMs    int64             `json:"createdAtMs"`
	UpdatedAtMs    int64             `json:"updatedAtMs"`
	DeleteAfterRun bool              `json:"deleteAfterRun"`
}

// JobSpec describes a job to add.
type JobSpec struct {
	Name           string
	Schedule       Schedule
	Event          string
	Payload        map[string]string
	DeleteAfterRun bool
}

// store is the on-disk layout of the jobs file.
type store struct {
	Version int   `json:"version"`
	Jobs    []Job `json:"jobs"`
}
