// Package schedule fires robot events on timers and cron expressions.
//
// Jobs persist to a JSON file:
//
//	{ "version": 1, "jobs": [ { "id":"…", "name":"…", "enabled":true,
//	    "schedule":{"kind":"every","everyMs":…},
//	    "event":"announce", "payload":{"room":"…","message":"…"},
//	    "state":{"nextRunAtMs":…,"lastRunAtMs":…,"lastStatus":"ok"},
//	    "createdAtMs":…, "updatedAtMs":…, "deleteAfterRun":false } ] }
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	robfigcron "github.com/robfig/cron/v3"

	"github.com/openchatops/oco/internal/event"
)

var (
	ErrNotFound = errors.New("job not found")
	ErrDisabled = errors.New("job is disabled")
	ErrRunning  = errors.New("scheduler already running")
)

// PayloadJobKey is added to every fired event's payload with the job ID.
const PayloadJobKey = "job"

// EmitFunc delivers the event of a fired job.
type EmitFunc func(ctx context.Context, ev event.Event) error

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service owns the job list and arms timers for enabled jobs while Start
// runs. All methods are safe for concurrent use.
type Service struct {
	path   string
	emit   EmitFunc
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	store   store
	runCtx  context.Context // non-nil while Start runs
	timers  map[string]*time.Timer
	robfig  *robfigcron.Cron
	entries map[string]robfigcron.EntryID
}

// NewService loads the jobs file at path. A missing file starts empty.
func NewService(path string, emit EmitFunc, opts ...Option) (*Service, error) {
	s := &Service{
		path:    path,
		emit:    emit,
		logger:  slog.Default(),
		now:     time.Now,
		timers:  make(map[string]*time.Timer),
		entries: make(map[string]robfigcron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "schedule")
	cl := cronLogger{s.logger}
	s.robfig = robfigcron.New(robfigcron.WithLogger(cl), robfigcron.WithChain(robfigcron.Recover(cl)))

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the jobs file location.
func (s *Service) Path() string { return s.path }

// Start arms every enabled job and blocks until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.runCtx != nil {
		s.mu.Unlock()
		return ErrRunning
	}
	s.runCtx = ctx
	now := s.now()
	for i := range s.store.Jobs {
		j := &s.store.Jobs[i]
		if !j.Enabled {
			continue
		}
		j.State.NextRunAtMs = j.Schedule.Next(now)
		if j.State.NextRunAtMs == 0 {
			s.logger.Warn("job will not fire", "job", j.ID, "name", j.Name, "schedule", j.Schedule.String())
		}
	}
	if err := s.saveLocked(); err != nil {
		s.logger.Warn("save failed", "err", err)
	}
	for _, j := range s.store.Jobs {
		s.armLocked(j)
	}
	count := len(s.store.Jobs)
	s.mu.Unlock()

	s.robfig.Start()
	s.logger.Info("started", "jobs", count)

	<-ctx.Done()

	<-s.robfig.Stop().Done()
	s.mu.Lock()
	for _, j := range s.store.Jobs {
		s.cancelLocked(j.ID)
	}
	s.runCtx = nil
	s.mu.Unlock()
	s.logger.Info("stopped")
	return nil
}

// AddJob validates spec, persists the new job and arms it if the service
// is running.
func (s *Service) AddJob(spec JobSpec) (Job, error) {
	if spec.Event == "" {
		return Job{}, errors.New("job event name is required")
	}
	now := s.now()
	if err := spec.Schedule.Validate(now); err != nil {
		return Job{}, err
	}
	name := spec.Name
	if name == "" {
		name = spec.Event
	}

	nowMs := now.UnixMilli()
	job := Job{
		ID:             uuid.NewString()[:8],
		Name:           name,
		Enabled:        true,
		Schedule:       spec.Schedule,
		Event:          spec.Event,
		Payload:        maps.Clone(spec.Payload),
		State:          JobState{NextRunAtMs: spec.Schedule.Next(now)},
		CreatedAtMs:    nowMs,
		UpdatedAtMs:    nowMs,
		DeleteAfterRun: spec.DeleteAfterRun,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Jobs = append(s.store.Jobs, job)
	if err := s.saveLocked(); err != nil {
		s.store.Jobs = s.store.Jobs[:len(s.store.Jobs)-1]
		return Job{}, err
	}
	s.armLocked(job)
	s.logger.Info("added job", "job", job.ID, "name", job.Name, "schedule", job.Schedule.String(), "event", job.Event)
	return cloneJob(job), nil
}

// Job returns the job with the given ID.
func (s *Service) Job(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return cloneJob(s.store.Jobs[i]), true
	}
	return Job{}, false
}

// ListJobs returns jobs ordered by next run; jobs that will not run sort last.
func (s *Service) ListJobs(includeDisabled bool) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var jobs []Job
	for _, j := range s.store.Jobs {
		if includeDisabled || j.Enabled {
			jobs = append(jobs, cloneJob(j))
		}
	}
	sort.SliceStable(jobs, func(a, b int) bool {
		na, nb := jobs[a].State.NextRunAtMs, jobs[b].State.NextRunAtMs
		if na == 0 || nb == 0 {
			return nb == 0 && na != 0
		}
		return na < nb
	})
	return jobs
}

// RemoveJob deletes a job.
func (s *Service) RemoveJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.cancelLocked(id)
	s.store.Jobs = append(s.store.Jobs[:i], s.store.Jobs[i+1:]...)
	return s.saveLocked()
}

// EnableJob enables or disables a job.
func (s *Service) EnableJob(id string, enabled bool) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	j := &s.store.Jobs[i]
	now := s.now()
	j.Enabled = enabled
	j.UpdatedAtMs = now.UnixMilli()
	if enabled {
		j.State.NextRunAtMs = j.Schedule.Next(now)
		s.armLocked(*j)
	} else {
		j.State.NextRunAtMs = 0
		s.cancelLocked(id)
	}
	if err := s.saveLocked(); err != nil {
		return Job{}, err
	}
	return cloneJob(*j), nil
}

// RunJob fires a job now. Disabled jobs run only when force is set.
func (s *Service) RunJob(ctx context.Context, id string, force bool) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job := cloneJob(s.store.Jobs[i])
	s.mu.Unlock()

	if !force && !job.Enabled {
		return fmt.Errorf("%w: %s", ErrDisabled, id)
	}
	return s.execute(ctx, job)
}

// ---------------------------------------------------------------------------
// Timers
// ---------------------------------------------------------------------------

func (s *Service) armLocked(job Job) {
	s.cancelLocked(job.ID)
	if s.runCtx == nil || !job.Enabled {
		return
	}

	id := job.ID
	switch job.Schedule.Kind {
	case KindEvery:
		if job.Schedule.EveryMs <= 0 {
			return
		}
		d := time.Duration(job.Schedule.EveryMs) * time.Millisecond
		s.timers[id] = time.AfterFunc(d, func() { s.fire(id) })
	case KindAt:
		delay := time.UnixMilli(job.Schedule.AtMs).Sub(s.now())
		if delay < 0 {
			return
		}
		s.timers[id] = time.AfterFunc(delay, func() { s.fire(id) })
	case KindCron:
		cs, err := job.Schedule.cronSchedule()
		if err != nil {
			s.logger.Warn("invalid cron schedule", "job", id, "err", err)
			return
		}
		s.entries[id] = s.robfig.Schedule(cs, robfigcron.FuncJob(func() { s.fire(id) }))
	}
}

func (s *Service) cancelLocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	if eid, ok := s.entries[id]; ok {
		s.robfig.Remove(eid)
		delete(s.entries, id)
	}
}

// fire runs the current version of job id and re-arms interval jobs.
func (s *Service) fire(id string) {
	s.mu.Lock()
	ctx := s.runCtx
	i := s.indexLocked(id)
	if ctx == nil || i < 0 || !s.store.Jobs[i].Enabled {
		s.mu.Unlock()
		return
	}
	job := cloneJob(s.store.Jobs[i])
	s.mu.Unlock()

	if err := s.execute(ctx, job); err != nil {
		s.logger.Error("job failed", "job", job.ID, "name", job.Name, "err", err)
	}

	if job.Schedule.Kind != KindEvery {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 && s.runCtx != nil {
		s.armLocked(s.store.Jobs[i])
	}
}

func (s *Service) execute(ctx context.Context, job Job) error {
	start := s.now()
	s.logger.Info("running job", "job", job.ID, "name", job.Name, "event", job.Event)

	payload := maps.Clone(job.Payload)
	if payload == nil {
		payload = make(map[string]string, 1)
	}
	payload[PayloadJobKey] = job.ID

	var err error
	if s.emit != nil {
		err = s.emit(ctx, event.New(job.Event, payload))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(job.ID)
	if i < 0 {
		return err
	}
	j := &s.store.Jobs[i]
	j.State.LastRunAtMs = start.UnixMilli()
	j.State.LastStatus = StatusOK
	j.State.LastError = ""
	if err != nil {
		j.State.LastStatus = StatusError
		j.State.LastError = err.Error()
	}
	now := s.now()
	j.UpdatedAtMs = now.UnixMilli()

	if j.Schedule.Kind == KindAt {
		s.cancelLocked(j.ID)
		if j.DeleteAfterRun {
			s.store.Jobs = append(s.store.Jobs[:i], s.store.Jobs[i+1:]...)
		} else {
			j.Enabled = false
			j.State.NextRunAtMs = 0
		}
	} else {
		j.State.NextRunAtMs = j.Schedule.Next(now)
	}
	if serr := s.saveLocked(); serr != nil {
		s.logger.Warn("save failed", "err", serr)
	}
	return err
}

func (s *Service) indexLocked(id string) int {
	for i := range s.store.Jobs {
		if s.store.Jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneJob(j Job) Job {
	j.Payload = maps.Clone(j.Payload)
	return j
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

func (s *Service) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.store = store{Version: 1}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read jobs: %w", err)
	}
	var st store
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("parse jobs %s: %w", s.path, err)
	}
	if st.Version == 0 {
		st.Version = 1
	}
	s.store = st
	return nil
}

func (s *Service) saveLocked() error {
	if s.store.Version == 0 {
		s.store.Version = 1
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create jobs dir: %w", err)
	}
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("encode jobs: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".jobs-*.json")
	if err != nil {
		return fmt.Errorf("write jobs: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write jobs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write jobs: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write jobs: %w", err)
	}
	return nil
}

// cronLogger adapts slog to robfig's logger interface.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
