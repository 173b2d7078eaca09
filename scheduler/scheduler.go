package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TriggerKind selects how a job's next run is computed.
type TriggerKind string

const (
	// TriggerInterval runs the job every Interval after its last run.
	TriggerInterval TriggerKind = "interval"
	// TriggerDaily runs the job once within a window around each listed
	// hour of the day.
	TriggerDaily TriggerKind = "daily"
)

// dailyWindow is how far past the scheduled hour a daily job may still fire.
const dailyWindow = 5 * time.Minute

// ScheduledJob is one row of the scheduler's job table.
type ScheduledJob struct {
	Name     string
	Kind     TriggerKind
	Interval time.Duration
	Hours    []int
	Enabled  bool
	Run      func(ctx context.Context) error

	lastRun time.Time
	mu      sync.Mutex
}

// ShouldRun reports whether the job is due at now.
func (j *ScheduledJob) ShouldRun(now time.Time) bool {
	if !j.Enabled {
		return false
	}

	j.mu.Lock()
	lastRun := j.lastRun
	j.mu.Unlock()

	switch j.Kind {
	case TriggerInterval:
		return lastRun.IsZero() || now.Sub(lastRun) >= j.Interval
	case TriggerDaily:
		for _, hour := range j.Hours {
			slot := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
			withinWindow := !now.Before(slot) && now.Before(slot.Add(dailyWindow))
			if withinWindow && lastRun.Before(slot) {
				return true
			}
		}
		return false
	}
	return false
}

func (j *ScheduledJob) markRun(now time.Time) {
	j.mu.Lock()
	j.lastRun = now
	j.mu.Unlock()
}

// Scheduler drives the lifecycle jobs: a poll loop fires every job that is
// due. Different jobs may overlap each other, but runningJobs guarantees a
// job never overlaps itself.
type Scheduler struct {
	jobs          []*ScheduledJob
	checkInterval time.Duration
	logger        *slog.Logger

	runningJobs sync.Map
}

func New(checkInterval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		checkInterval: checkInterval,
		logger:        logger,
	}
}

// AddJob registers a job before Start is called.
func (s *Scheduler) AddJob(job *ScheduledJob) {
	s.jobs = append(s.jobs, job)
}

// Start runs the poll loop until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting lifecycle scheduler", slog.Int("jobs", len(s.jobs)))

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		now := time.Now()
		for _, job := range s.jobs {
			if job.ShouldRun(now) {
				go s.executeJob(ctx, job, now)
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			s.logger.Info("Scheduler stopping")
			return
		}
	}
}

func (s *Scheduler) executeJob(ctx context.Context, job *ScheduledJob, now time.Time) {
	if _, loaded := s.runningJobs.LoadOrStore(job.Name, struct{}{}); loaded {
		// Job is already running
		return
	}
	defer s.runningJobs.Delete(job.Name)

	job.markRun(now)

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("Job failed",
			slog.String("job", job.Name),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return
	}

	s.logger.Info("Job finished",
		slog.String("job", job.Name),
		slog.Duration("elapsed", time.Since(start)))
}
