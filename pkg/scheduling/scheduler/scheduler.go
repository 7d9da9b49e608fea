package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
	"github.com/AdamDotNet/recflow/pkg/metrics"
)

// Job is a unit of work run on a schedule. The context is canceled when the
// scheduler stops.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to the Job interface.
type JobFunc func(ctx context.Context) error

// Run implements Job.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Task describes a scheduled job.
type Task struct {
	ID         string
	Expression string
	NextRun    time.Time // zero until the scheduler is started
	LastRun    time.Time
	Created    time.Time
}

// Scheduler runs jobs on cron schedules.
type Scheduler interface {
	// Schedule registers job under id. Expressions take five or six fields
	// (seconds optional) or a descriptor such as "@every 5m" or "@hourly".
	Schedule(id, expr string, job Job) error

	// Cancel removes a job. It reports whether the id was known.
	Cancel(id string) bool

	// CancelAll removes every job.
	CancelAll()

	// List returns the scheduled jobs ordered by next run.
	List() []Task

	// Start begins running jobs.
	Start() error

	// Stop stops scheduling, cancels running jobs and waits for them to
	// return or for ctx to end.
	Stop(ctx context.Context) error
}

// Config holds scheduler configuration.
type Config struct {
	// Location evaluates cron expressions. Default: time.Local
	Location *time.Location

	// MaxTasks caps the number of registered jobs. Default: 100
	MaxTasks int

	// Logger receives cron lifecycle events and job failures.
	Logger zerolog.Logger

	// Metrics records runs, failures and durations per job id.
	Metrics metrics.Config
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Location: time.Local,
		MaxTasks: 100,
		Logger:   zerolog.Nop(),
		Metrics:  metrics.DefaultConfig(),
	}
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateCronExpression reports whether expr can be scheduled.
func ValidateCronExpression(expr string) error {
	if expr == "" {
		return rferrors.NewValidationError("scheduler", "expression", expr, "cannot be empty").
			WithHint(`use a cron expression such as "*/5 * * * *" or "@every 1m"`)
	}
	if _, err := parser.Parse(expr); err != nil {
		return rferrors.NewValidationError("scheduler", "expression", expr, err.Error())
	}
	return nil
}

type entry struct {
	id      cron.EntryID
	expr    string
	created time.Time
}

type scheduler struct {
	cron     *cron.Cron
	logger   zerolog.Logger
	registry *metrics.Registry
	maxTasks int

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	entries map[string]entry
	running bool
	stopped bool
}

// New creates a scheduler with default configuration.
func New() Scheduler {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(config Config) Scheduler {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.MaxTasks <= 0 {
		config.MaxTasks = DefaultConfig().MaxTasks
	}

	log := cronLogger{config.Logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(config.Location),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		logger:   config.Logger,
		registry: config.Metrics.Resolve(),
		maxTasks: config.MaxTasks,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]entry),
	}
}

func (s *scheduler) Schedule(id, expr string, job Job) error {
	if id == "" {
		return rferrors.NewValidationError("scheduler", "id", id, "cannot be empty")
	}
	if len(id) > 255 {
		return rferrors.NewValidationError("scheduler", "id", len(id), "too long (max 255 characters)")
	}
	if job == nil {
		return rferrors.NewValidationError("scheduler", "job", nil, "cannot be nil")
	}
	if err := ValidateCronExpression(expr); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return rferrors.NewStateError("scheduler", "schedule", "stopped")
	}
	if _, exists := s.entries[id]; exists {
		return fmt.Errorf("job with ID %q already exists, use a different ID or cancel the existing job first", id)
	}
	if len(s.entries) >= s.maxTasks {
		return fmt.Errorf("cannot schedule job: maximum number of jobs (%d) reached", s.maxTasks)
	}

	entryID, err := s.cron.AddJob(expr, s.wrap(id, job))
	if err != nil {
		return rferrors.NewOperationError("scheduler", "Schedule", err).WithContext(id)
	}
	s.entries[id] = entry{id: entryID, expr: expr, created: time.Now()}
	return nil
}

// wrap adapts job to cron, adding logging and metrics.
func (s *scheduler) wrap(id string, job Job) cron.Job {
	return cron.FuncJob(func() {
		if s.ctx.Err() != nil {
			return
		}

		start := time.Now()
		err := job.Run(s.ctx)
		duration := time.Since(start)

		if s.registry != nil {
			s.registry.ExportRuns.WithLabelValues(id).Inc()
			s.registry.ExportDuration.WithLabelValues(id).Observe(duration.Seconds())
			if err != nil {
				s.registry.ExportFailures.WithLabelValues(id).Inc()
			}
		}

		if err != nil {
			s.logger.Error().Err(err).Str("job", id).Dur("duration", duration).Msg("scheduled job failed")
			return
		}
		s.logger.Debug().Str("job", id).Dur("duration", duration).Msg("scheduled job finished")
	})
}

func (s *scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[id]
	if !exists {
		return false
	}
	s.cron.Remove(e.id)
	delete(s.entries, id)
	return true
}

func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		s.cron.Remove(e.id)
		delete(s.entries, id)
	}
}

func (s *scheduler) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.entries))
	for id, e := range s.entries {
		ce := s.cron.Entry(e.id)
		tasks = append(tasks, Task{
			ID:         id,
			Expression: e.expr,
			NextRun:    ce.Next,
			LastRun:    ce.Prev,
			Created:    e.created,
		})
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].NextRun.Equal(tasks[j].NextRun) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].NextRun.Before(tasks[j].NextRun)
	})
	return tasks
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return rferrors.NewStateError("scheduler", "start", "stopped")
	}
	if s.running {
		return fmt.Errorf("scheduler already running, call Stop() first")
	}

	s.running = true
	s.cron.Start()
	return nil
}

func (s *scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.running = false
	s.mu.Unlock()

	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
