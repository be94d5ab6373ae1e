// Package scheduler runs recurring jobs on cron schedules.
// A job is skipped while its previous run is still in progress, and
// stopping the scheduler cancels running jobs and waits for them.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/anstrom/netscan/internal/logging"
)

var (
	// ErrAlreadyRunning is returned by Start on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler is already running")
	// ErrJobNotFound is returned for unknown job IDs.
	ErrJobNotFound = errors.New("job not found")
)

// JobFunc is the work performed on each run.
type JobFunc func(ctx context.Context) error

// ScheduledJob describes a registered job and its run history.
type ScheduledJob struct {
	ID             uuid.UUID
	Name           string
	CronExpression string
	CronID         cron.EntryID
	LastRun        time.Time
	NextRun        time.Time
	LastError      error
	Runs           int
	Skipped        int
	Running        bool

	run JobFunc
}

// Scheduler manages recurring jobs.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[uuid.UUID]*ScheduledJob
	mu      sync.RWMutex
	wg      sync.WaitGroup
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *logging.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.WithComponent("scheduler")
	ctx, cancel := context.WithCancel(context.Background())

	cl := cronLogger{logger}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		jobs:   make(map[uuid.UUID]*ScheduledJob),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	s.cron.Start()
	s.running = true

	s.logger.Debug("Scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop cancels running jobs and waits for them to return. A stopped
// scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	// Canceling under the lock keeps prepareJobExecution from starting a
	// run after the wait below has begun.
	s.mu.Lock()
	wasRunning := s.running
	s.running = false
	s.cancel()
	s.mu.Unlock()

	if wasRunning {
		<-s.cron.Stop().Done()
	}
	s.wg.Wait()

	s.logger.Debug("Scheduler stopped")
}

// AddJob registers fn to run on the standard five field cron expression
// (descriptors such as "@every 5m" are accepted).
func (s *Scheduler) AddJob(name, cronExpr string, fn JobFunc) (uuid.UUID, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	job := &ScheduledJob{
		ID:             uuid.New(),
		Name:           name,
		CronExpression: cronExpr,
		NextRun:        schedule.Next(time.Now()),
		run:            fn,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job.CronID = s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.executeJob(job.ID)
	}))
	s.jobs[job.ID] = job

	s.logger.Debug("Added job", "name", name, "schedule", cronExpr, "next_run", job.NextRun)
	return job.ID, nil
}

// RemoveJob removes a scheduled job. A run in progress is not interrupted.
func (s *Scheduler) RemoveJob(jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}
	s.cron.Remove(job.CronID)
	delete(s.jobs, jobID)

	s.logger.Debug("Removed job", "name", job.Name)
	return nil
}

// RunNow runs a job immediately and waits for it. It returns false when
// the job was skipped because a previous run is still in progress.
func (s *Scheduler) RunNow(jobID uuid.UUID) (bool, error) {
	s.mu.RLock()
	_, exists := s.jobs[jobID]
	s.mu.RUnlock()
	if !exists {
		return false, ErrJobNotFound
	}
	return s.executeJob(jobID), nil
}

// GetJobs returns a snapshot of all jobs ordered by name.
func (s *Scheduler) GetJobs() []ScheduledJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]ScheduledJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		snapshot := *job
		snapshot.run = nil
		jobs = append(jobs, snapshot)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// executeJob runs a job unless it is already running.
func (s *Scheduler) executeJob(jobID uuid.UUID) (ran bool) {
	job, ok := s.prepareJobExecution(jobID)
	if !ok {
		return false
	}
	defer s.wg.Done()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
		s.cleanupJobExecution(jobID, err)
		if err != nil {
			s.logger.Warn("Job failed", "name", job.Name, "error", err)
		}
	}()

	ran = true
	err = job.run(s.ctx)
	return ran
}

// prepareJobExecution marks a job as running.
func (s *Scheduler) prepareJobExecution(jobID uuid.UUID) (*ScheduledJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists || s.ctx.Err() != nil {
		return nil, false
	}
	if job.Running {
		job.Skipped++
		s.logger.Info("Job is already running, skipping", "name", job.Name)
		return nil, false
	}

	job.Running = true
	job.LastRun = time.Now()
	s.wg.Add(1)
	return job, true
}

// cleanupJobExecution marks the job as no longer running.
func (s *Scheduler) cleanupJobExecution(jobID uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.jobs[jobID]; exists {
		job.Running = false
		job.Runs++
		job.LastError = err
		if entry := s.cron.Entry(job.CronID); entry.Valid() {
			job.NextRun = entry.Next
		}
	}
}

// cronLogger adapts the structured logger to cron.Logger.
type cronLogger struct {
	l *logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
