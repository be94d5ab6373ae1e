// Package workers provides a bounded worker pool for concurrent probe
// execution in netscan. It supports blocking submission with backpressure,
// optional rate limiting, graceful shutdown, and integrates with the
// structured logging and metrics systems.
package workers

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/anstrom/netscan/internal/logging"
	"github.com/anstrom/netscan/internal/metrics"
)

// ErrPoolClosed is returned when submitting to a pool that has been closed.
var ErrPoolClosed = errors.New("worker pool is closed")

// Job represents a unit of work to be executed by a worker.
type Job interface {
	// Execute performs the job and returns an error if it fails.
	Execute(ctx context.Context) error
	// ID returns a unique identifier for the job.
	ID() string
	// Type returns the job type for metrics and logging.
	Type() string
}

// Config holds configuration for the worker pool.
type Config struct {
	// Size is the number of worker goroutines to create.
	Size int
	// QueueSize is the number of jobs that can wait before Submit blocks.
	QueueSize int
	// RateLimit is the maximum number of jobs started per second (0 = no limit).
	RateLimit float64
	// Burst is the number of jobs that may start at once under a rate limit.
	Burst int
}

// DefaultConfig returns a default worker pool configuration sized to the
// machine. Probe jobs spend nearly all their time waiting on the network.
func DefaultConfig() Config {
	size := runtime.NumCPU() * 8
	return Config{
		Size:      size,
		QueueSize: size * 2,
	}
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Completed uint64
	Failed    uint64
	Skipped   uint64
}

// Pool manages a fixed set of worker goroutines.
type Pool struct {
	config   Config
	jobs     chan Job
	limiter  *rate.Limiter
	recorder metrics.Recorder
	logger   *logging.Logger

	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	startOnce sync.Once
	closeOnce sync.Once

	active    atomic.Int32
	completed atomic.Uint64
	failed    atomic.Uint64
	skipped   atomic.Uint64
}

// New creates a new worker pool. A nil recorder disables metrics.
func New(config Config, recorder metrics.Recorder) *Pool {
	if config.Size < 1 {
		config.Size = 1
	}
	if config.QueueSize < 0 {
		config.QueueSize = 0
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	pool := &Pool{
		config:   config,
		jobs:     make(chan Job, config.QueueSize),
		recorder: recorder,
		logger:   logging.Default().WithComponent("workers"),
	}

	if config.RateLimit > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		pool.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return pool
}

// Start launches the workers. Jobs run with ctx; once ctx is done, queued
// jobs are drained without being executed.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.logger.Debug("Starting worker pool",
			"worker_count", p.config.Size,
			"queue_size", p.config.QueueSize,
			"rate_limit", p.config.RateLimit)

		for i := 0; i < p.config.Size; i++ {
			p.wg.Add(1)
			go p.run(ctx, i)
		}
	})
}

// Submit queues job, blocking while the queue is full. It returns ctx.Err()
// if ctx ends first and ErrPoolClosed after Close.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued jobs to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()

		p.wg.Wait()
		p.recorder.SetActiveWorkers(0)

		stats := p.Stats()
		p.logger.Debug("Worker pool stopped",
			"completed", stats.Completed,
			"failed", stats.Failed,
			"skipped", stats.Skipped)
	})
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Skipped:   p.skipped.Load(),
	}
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	// Workers exit only when the queue is closed so that a blocked Submit
	// can always make progress.
	for job := range p.jobs {
		if ctx.Err() != nil {
			p.skip(job)
			continue
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				p.skip(job)
				continue
			}
		}
		p.execute(ctx, id, job)
	}
}

func (p *Pool) execute(ctx context.Context, workerID int, job Job) {
	p.recorder.SetActiveWorkers(int(p.active.Add(1)))
	defer func() {
		p.recorder.SetActiveWorkers(int(p.active.Add(-1)))
	}()

	start := time.Now()
	err := job.Execute(ctx)
	duration := time.Since(start)

	if err != nil {
		p.failed.Add(1)
		p.recorder.IncrementJobsTotal(job.Type(), "failed")
		p.logger.Debug("Job failed",
			"job_id", job.ID(),
			"job_type", job.Type(),
			"worker_id", workerID,
			"duration", duration,
			"error", err)
		return
	}

	p.completed.Add(1)
	p.recorder.IncrementJobsTotal(job.Type(), "success")
}

func (p *Pool) skip(job Job) {
	p.skipped.Add(1)
	p.recorder.IncrementJobsTotal(job.Type(), "skipped")
}

// FuncJob adapts a function to the Job interface.
type FuncJob struct {
	id      string
	jobType string
	fn      func(ctx context.Context) error
}

// NewFuncJob creates a job that runs fn.
func NewFuncJob(id, jobType string, fn func(ctx context.Context) error) *FuncJob {
	return &FuncJob{id: id, jobType: jobType, fn: fn}
}

// Execute implements the Job interface.
func (j *FuncJob) Execute(ctx context.Context) error {
	return j.fn(ctx)
}

// ID implements the Job interface.
func (j *FuncJob) ID() string {
	return j.id
}

// Type implements the Job interface.
func (j *FuncJob) Type() string {
	return j.jobType
}
