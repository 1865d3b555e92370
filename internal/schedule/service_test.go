package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openchatops/oco/internal/event"
)

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (r *recorder) emit(_ context.Context, ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newTestService(t *testing.T) (*Service, *recorder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.json")
	rec := &recorder{}
	s, err := NewService(path, rec.emit)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s, rec, path
}

// startService runs Start in the background until the returned stop func
// is called.
func startService(t *testing.T, s *Service) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(time.Second)
	for {
		s.mu.Lock()
		running := s.runCtx != nil
		s.mu.Unlock()
		if running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("service did not start")
		}
		time.Sleep(time.Millisecond)
	}
	return func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Start returned %v", err)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ─── AddJob ────────────────────────────────────────────────────────────────

func TestAddJob_Every(t *testing.T) {
	s, _, _ := newTestService(t)
	job, err := s.AddJob(JobSpec{Name: "tick", Schedule: Every(5 * time.Second), Event: "tick"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected non-empty id")
	}
	jobs := s.ListJobs(false)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Schedule.Kind != KindEvery || jobs[0].Schedule.EveryMs != 5000 {
		t.Errorf("unexpected schedule: %+v", jobs[0].Schedule)
	}
	if jobs[0].State.NextRunAtMs == 0 {
		t.Error("expected next run to be computed")
	}
}

func TestAddJob_DefaultsNameToEvent(t *testing.T) {
	s, _, _ := newTestService(t)
	job, err := s.AddJob(JobSpec{Schedule: Every(time.Minute), Event: "announce"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Name != "announce" {
		t.Errorf("name = %q, want announce", job.Name)
	}
}

func TestAddJob_Cron(t *testing.T) {
	s, _, _ := newTestService(t)
	job, err := s.AddJob(JobSpec{
		Name:     "daily",
		Schedule: Cron("0 9 * * *", "UTC"),
		Event:    "announce",
		Payload:  map[string]string{"room": "general", "message": "standup"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := s.Job(job.ID)
	if !ok {
		t.Fatal("job not found")
	}
	if got.Payload["room"] != "general" {
		t.Errorf("unexpected payload: %v", got.Payload)
	}
	next := time.UnixMilli(got.State.NextRunAtMs).UTC()
	if next.Hour() != 9 || next.Minute() != 0 {
		t.Errorf("next run = %v, want 09:00 UTC", next)
	}
}

func TestAddJob_Invalid(t *testing.T) {
	s, _, _ := newTestService(t)
	tests := []struct {
		name string
		spec JobSpec
	}{
		{"unknown kind", JobSpec{Schedule: Schedule{Kind: "weekly"}, Event: "e"}},
		{"zero interval", JobSpec{Schedule: Every(0), Event: "e"}},
		{"bad cron", JobSpec{Schedule: Cron("not a cron", ""), Event: "e"}},
		{"bad timezone", JobSpec{Schedule: Cron("@daily", "Mars/Olympus"), Event: "e"}},
		{"past at", JobSpec{Schedule: At(time.Now().Add(-time.Hour)), Event: "e"}},
		{"no event", JobSpec{Schedule: Every(time.Second)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.AddJob(tt.spec); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if n := len(s.ListJobs(true)); n != 0 {
		t.Errorf("invalid jobs were stored: %d", n)
	}
}

// ─── RemoveJob / EnableJob ─────────────────────────────────────────────────

func TestRemoveJob(t *testing.T) {
	s, _, _ := newTestService(t)
	job, _ := s.AddJob(JobSpec{Schedule: Every(time.Second), Event: "e"})
	if err := s.RemoveJob(job.ID); err != nil {
		t.Fatalf("RemoveJob: %v", err)
	}
	if len(s.ListJobs(true)) != 0 {
		t.Error("expected empty job list after remove")
	}
	if err := s.RemoveJob(job.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove = %v, want ErrNotFound", err)
	}
}

func TestEnableJob_ToggleDisableEnable(t *testing.T) {
	s, _, _ := newTestService(t)
	job, _ := s.AddJob(JobSpec{Schedule: Every(time.Second), Event: "e"})

	job, err := s.EnableJob(job.ID, false)
	if err != nil {
		t.Fatalf("EnableJob: %v", err)
	}
	if job.Enabled || job.State.NextRunAtMs != 0 {
		t.Errorf("expected disabled job without next run, got %+v", job)
	}
	if len(s.ListJobs(false)) != 0 || len(s.ListJobs(true)) != 1 {
		t.Error("disabled job visibility is wrong")
	}

	job, err = s.EnableJob(job.ID, true)
	if err != nil {
		t.Fatalf("EnableJob: %v", err)
	}
	if !job.Enabled || job.State.NextRunAtMs == 0 {
		t.Errorf("expected enabled job with next run, got %+v", job)
	}

	if _, err := s.EnableJob("ghost", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("EnableJob(ghost) = %v, want ErrNotFound", err)
	}
}

func TestListJobs_SortedByNextRun(t *testing.T) {
	s, _, _ := newTestService(t)
	s.AddJob(JobSpec{Name: "slow", Schedule: Every(time.Minute), Event: "e"})
	s.AddJob(JobSpec{Name: "fast", Schedule: Every(time.Second), Event: "e"})
	off, _ := s.AddJob(JobSpec{Name: "off", Schedule: Every(time.Millisecond), Event: "e"})
	s.EnableJob(off.ID, false)

	jobs := s.ListJobs(true)
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	got := []string{jobs[0].Name, jobs[1].Name, jobs[2].Name}
	want := []string{"fast", "slow", "off"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

// ─── Persistence ───────────────────────────────────────────────────────────

func TestPersistence_RoundTrip(t *testing.T) {
	s, _, path := newTestService(t)
	job, _ := s.AddJob(JobSpec{Name: "persist", Schedule: Every(5 * time.Second), Event: "announce",
		Payload: map[string]string{"message": "hi"}})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read jobs.json: %v", err)
	}
	var st store
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.Version != 1 {
		t.Errorf("unexpected version: %d", st.Version)
	}
	if len(st.Jobs) != 1 || st.Jobs[0].ID != job.ID || st.Jobs[0].Event != "announce" {
		t.Fatalf("unexpected persisted jobs: %+v", st.Jobs)
	}

	reloaded, err := NewService(path, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got, ok := reloaded.Job(job.ID)
	if !ok || got.Payload["message"] != "hi" {
		t.Errorf("reloaded job = %+v, %v", got, ok)
	}
}

func TestPersistence_LoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	existing := `{"version":1,"jobs":[{"id":"aabbccdd","name":"loaded","enabled":true,
		"schedule":{"kind":"every","everyMs":3000},"event":"tick",
		"state":{},"createdAtMs":1000,"updatedAtMs":1000,"deleteAfterRun":false}]}`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewService(path, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	jobs := s.ListJobs(false)
	if len(jobs) != 1 || jobs[0].Name != "loaded" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}

func TestPersistence_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewService(path, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

// ─── Schedule.Next ─────────────────────────────────────────────────────────

func TestScheduleNext(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	if got := Every(5 * time.Second).Next(now); got != now.UnixMilli()+5000 {
		t.Errorf("every: got %d", got)
	}
	if got := At(now.Add(time.Hour)).Next(now); got != now.Add(time.Hour).UnixMilli() {
		t.Errorf("at future: got %d", got)
	}
	if got := At(now.Add(-time.Hour)).Next(now); got != 0 {
		t.Errorf("at past: got %d", got)
	}
	if got := Cron("0 12 * * *", "UTC").Next(now); got != time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("cron: got %v", time.UnixMilli(got).UTC())
	}
	if got := Cron("@hourly", "UTC").Next(now); got != time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("descriptor: got %v", time.UnixMilli(got).UTC())
	}
	if got := Cron("not a cron", "").Next(now); got != 0 {
		t.Errorf("invalid cron: got %d", got)
	}
}

// ─── Execution ─────────────────────────────────────────────────────────────

func TestRunJob_EmitsEvent(t *testing.T) {
	s, rec, _ := newTestService(t)
	job, _ := s.AddJob(JobSpec{Schedule: Every(time.Hour), Event: "announce",
		Payload: map[string]string{"room": "general"}})

	if err := s.RunJob(context.Background(), job.ID, false); err != nil {
		t.Fatalf("RunJob: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 event, got %d", rec.count())
	}
	ev := rec.events[0]
	if ev.Name != "announce" || ev.Get("room") != "general" || ev.Get(PayloadJobKey) != job.ID {
		t.Errorf("unexpected event: %+v", ev)
	}

	got, _ := s.Job(job.ID)
	if got.State.LastRunAtMs == 0 || got.State.LastStatus != StatusOK {
		t.Errorf("unexpected state: %+v", got.State)
	}
	if _, mutated := got.Payload[PayloadJobKey]; mutated {
		t.Error("job payload was mutated")
	}
}

func TestRunJob_RecordsError(t *testing.T) {
	s, rec, _ := newTestService(t)
	rec.err = errors.New("bus closed")
	job, _ := s.AddJob(JobSpec{Schedule: Every(time.Hour), Event: "e"})

	if err := s.RunJob(context.Background(), job.ID, false); err == nil {
		t.Fatal("expected emit error")
	}
	got, _ := s.Job(job.ID)
	if got.State.LastStatus != StatusError || got.State.LastError != "bus closed" {
		t.Errorf("unexpected state: %+v", got.State)
	}
}

func TestRunJob_DisabledAndMissing(t *testing.T) {
	s, rec, _ := newTestService(t)
	job, _ := s.AddJob(JobSpec{Schedule: Every(time.Hour), Event: "e"})
	s.EnableJob(job.ID, false)

	if err := s.RunJob(context.Background(), job.ID, false); !errors.Is(err, ErrDisabled) {
		t.Errorf("RunJob disabled = %v, want ErrDisabled", err)
	}
	if err := s.RunJob(context.Background(), job.ID, true); err != nil {
		t.Errorf("forced RunJob = %v", err)
	}
	if err := s.RunJob(context.Background(), "ghost", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("RunJob ghost = %v, want ErrNotFound", err)
	}
	if rec.count() != 1 {
		t.Errorf("expected 1 event, got %d", rec.count())
	}
}

func TestRunJob_AtDeleteAfterRun(t *testing.T) {
	s, _, _ := newTestService(t)
	keep, _ := s.AddJob(JobSpec{Schedule: At(time.Now().Add(time.Hour)), Event: "e"})
	drop, _ := s.AddJob(JobSpec{Schedule: At(time.Now().Add(time.Hour)), Event: "e", DeleteAfterRun: true})

	s.RunJob(context.Background(), keep.ID, false)
	s.RunJob(context.Background(), drop.ID, false)

	if _, ok := s.Job(drop.ID); ok {
		t.Error("expected job deleted after run")
	}
	got, ok := s.Job(keep.ID)
	if !ok || got.Enabled {
		t.Errorf("expected one-shot job kept but disabled, got %+v", got)
	}
}

// ─── Timers ────────────────────────────────────────────────────────────────

func TestEveryJob_FiresRepeatedly(t *testing.T) {
	s, rec, _ := newTestService(t)
	s.AddJob(JobSpec{Schedule: Every(30 * time.Millisecond), Event: "tick"})
	stop := startService(t, s)
	defer stop()

	waitFor(t, func() bool { return rec.count() >= 2 })
}

func TestAtJob_FiresOnce(t *testing.T) {
	s, rec, _ := newTestService(t)
	stop := startService(t, s)
	defer stop()

	// Added while running: armed immediately.
	job, err := s.AddJob(JobSpec{Schedule: At(time.Now().Add(30 * time.Millisecond)), Event: "once"})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	waitFor(t, func() bool { return rec.count() == 1 })
	time.Sleep(60 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Errorf("expected exactly 1 execution, got %d", n)
	}
	got, _ := s.Job(job.ID)
	if got.Enabled {
		t.Error("one-shot job should be disabled after firing")
	}
}

func TestDisabledJob_DoesNotFire(t *testing.T) {
	s, rec, _ := newTestService(t)
	job, _ := s.AddJob(JobSpec{Schedule: Every(20 * time.Millisecond), Event: "tick"})
	stop := startService(t, s)
	defer stop()

	if _, err := s.EnableJob(job.ID, false); err != nil {
		t.Fatal(err)
	}
	before := rec.count()
	time.Sleep(80 * time.Millisecond)
	if rec.count() > before+1 {
		t.Errorf("disabled job kept firing: %d -> %d", before, rec.count())
	}
}

func TestStart_Twice(t *testing.T) {
	s, _, _ := newTestService(t)
	stop := startService(t, s)
	defer stop()
	if err := s.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start = %v, want ErrRunning", err)
	}
}

func TestFire_CountsConcurrently(t *testing.T) {
	s, _, _ := newTestService(t)
	var n atomic.Int32
	s.emit = func(context.Context, event.Event) error { n.Add(1); return nil }
	job, _ := s.AddJob(JobSpec{Schedule: Every(time.Hour), Event: "e"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RunJob(context.Background(), job.ID, false)
		}()
	}
	wg.Wait()
	if n.Load() != 8 {
		t.Errorf("expected 8 runs, got %d", n.Load())
	}
}
