package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestShouldRunInterval(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		lastRun time.Time
		want    bool
	}{
		{"Never run", time.Time{}, true},
		{"Interval elapsed", now.Add(-10 * time.Minute), true},
		{"Exactly at interval", now.Add(-5 * time.Minute), true},
		{"Too recent", now.Add(-1 * time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &ScheduledJob{
				Name:     "fetch",
				Kind:     TriggerInterval,
				Interval: 5 * time.Minute,
				Enabled:  true,
				lastRun:  tt.lastRun,
			}
			if got := job.ShouldRun(now); got != tt.want {
				t.Errorf("ShouldRun() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRunDaily(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		now     time.Time
		lastRun time.Time
		want    bool
	}{
		{"At scheduled hour", day.Add(3 * time.Hour), time.Time{}, true},
		{"Inside window", day.Add(3*time.Hour + 4*time.Minute), time.Time{}, true},
		{"Past window", day.Add(3*time.Hour + 6*time.Minute), time.Time{}, false},
		{"Before hour", day.Add(2*time.Hour + 59*time.Minute), time.Time{}, false},
		{"Already ran this slot", day.Add(3*time.Hour + 2*time.Minute), day.Add(3*time.Hour + time.Minute), false},
		{"Ran yesterday", day.Add(3 * time.Hour), day.Add(-21 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &ScheduledJob{
				Name:    "retire",
				Kind:    TriggerDaily,
				Hours:   []int{3},
				Enabled: true,
				lastRun: tt.lastRun,
			}
			if got := job.ShouldRun(tt.now); got != tt.want {
				t.Errorf("ShouldRun(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestShouldRunDisabled(t *testing.T) {
	job := &ScheduledJob{
		Name:     "fetch",
		Kind:     TriggerInterval,
		Interval: time.Minute,
		Enabled:  false,
	}
	if job.ShouldRun(time.Now()) {
		t.Error("disabled job must never be due")
	}
}

func TestExecuteJobMarksLastRun(t *testing.T) {
	s := New(time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	job := &ScheduledJob{
		Name:     "fetch",
		Kind:     TriggerInterval,
		Interval: 5 * time.Minute,
		Enabled:  true,
		Run:      func(ctx context.Context) error { return nil },
	}

	s.executeJob(context.Background(), job, now)

	if job.ShouldRun(now.Add(time.Minute)) {
		t.Error("job should not be due again right after running")
	}
	if !job.ShouldRun(now.Add(6 * time.Minute)) {
		t.Error("job should be due once the interval elapses")
	}
}

func TestExecuteJobNeverOverlapsItself(t *testing.T) {
	s := New(time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var running int32
	var maxRunning int32
	release := make(chan struct{})

	job := &ScheduledJob{
		Name:     "slow",
		Kind:     TriggerInterval,
		Interval: time.Nanosecond,
		Enabled:  true,
		Run: func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&maxRunning)
				if n <= old || atomic.CompareAndSwapInt32(&maxRunning, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
			return nil
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.executeJob(context.Background(), job, time.Now())
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&maxRunning); got != 1 {
		t.Errorf("job ran %d times concurrently, want 1", got)
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	s := New(10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var runs int32
	s.AddJob(&ScheduledJob{
		Name:     "tick",
		Kind:     TriggerInterval,
		Interval: time.Nanosecond,
		Enabled:  true,
		Run: func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	if atomic.LoadInt32(&runs) == 0 {
		t.Error("job never ran before cancellation")
	}
}
