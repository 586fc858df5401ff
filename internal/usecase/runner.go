package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/metrics"
	"ProductCurator/internal/ports"
)

const interruptedRun = "interrupted before completion"

// JobFunc is the body of a scheduled job. The summary is stored on the job state.
type JobFunc func(ctx context.Context) (summary string, err error)

// Job is a named unit of recurring work.
type Job struct {
	Name     string
	Interval time.Duration
	Enabled  bool
	Run      JobFunc
}

// RunnerDeps wires the runner with its driver and persistence.
type RunnerDeps struct {
	Driver   ports.Scheduler
	States   ports.JobStateStore
	Notifier ports.Notifier
	Logger   *slog.Logger
	Clock    func() time.Time
}

type jobEntry struct {
	job     Job
	state   domain.JobState
	running bool
}

// Runner owns named jobs: it schedules them on the driver, keeps their state machine
// (idle, running, completed or error) and guarantees one run per job at a time.
type Runner struct {
	driver   ports.Scheduler
	states   ports.JobStateStore
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time

	persistMu  sync.Mutex
	mu         sync.Mutex
	jobs       map[string]*jobEntry
	order      []string
	started    bool
	stopped    bool
	restored   bool
	active     int
	idle       chan struct{}
	runCtx     context.Context
	cancelRuns context.CancelFunc
}

// NewRunner registers jobs in the given order. Names must be unique.
func NewRunner(deps RunnerDeps, jobs []Job) (*Runner, error) {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	r := &Runner{
		driver:   deps.Driver,
		states:   deps.States,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		now:      clock,
		jobs:     make(map[string]*jobEntry, len(jobs)),
		runCtx:   context.Background(),
	}
	for _, job := range jobs {
		if job.Name == "" || job.Run == nil {
			return nil, fmt.Errorf("%w: job needs a name and a body", domain.ErrInvalidInput)
		}
		if job.Interval <= 0 {
			return nil, fmt.Errorf("%w: job %s needs a positive interval", domain.ErrInvalidInput, job.Name)
		}
		if _, dup := r.jobs[job.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate job %s", domain.ErrInvalidInput, job.Name)
		}
		r.jobs[job.Name] = &jobEntry{
			job: job,
			state: domain.JobState{
				Name:     job.Name,
				Interval: job.Interval,
				Enabled:  job.Enabled,
				Status:   domain.JobIdle,
			},
		}
		r.order = append(r.order, job.Name)
	}
	return r, nil
}

// Start restores persisted state, schedules enabled jobs and runs overdue ones immediately.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.stopped = false
	r.runCtx, r.cancelRuns = context.WithCancel(context.WithoutCancel(ctx))
	r.mu.Unlock()

	r.ensureRestored(ctx)

	now := r.now().UTC()
	var catchUp []string
	for _, name := range r.order {
		r.mu.Lock()
		entry := r.jobs[name]
		enabled := entry.state.Enabled
		overdue := entry.state.Overdue(now)
		if enabled {
			entry.state.NextRun = now.Add(entry.job.Interval)
		}
		r.mu.Unlock()

		if !enabled {
			continue
		}
		if err := r.schedule(name, entry.job.Interval); err != nil {
			return err
		}
		r.persist(ctx, name)
		if overdue {
			catchUp = append(catchUp, name)
		}
	}

	if r.driver != nil {
		if err := r.driver.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler driver: %w", err)
		}
	}

	for _, name := range catchUp {
		r.info("job overdue, running catch-up", "job", name)
		go r.runScheduled(name, "catch-up")
	}
	r.info("scheduler started", "jobs", len(r.order))
	return nil
}

// Stop removes all timers and refuses new runs until the next Start. It waits for
// in-flight runs until ctx is done, then cancels them.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.stopped = true
		r.mu.Unlock()
		return nil
	}
	r.started = false
	r.stopped = true
	idle := r.idle
	if r.active == 0 {
		idle = nil
	}
	cancelRuns := r.cancelRuns
	r.mu.Unlock()

	var stopErr error
	if r.driver != nil {
		for _, name := range r.order {
			r.driver.Unschedule(name)
		}
		stopErr = r.driver.Stop(ctx)
	}

	if idle != nil {
		select {
		case <-idle:
		case <-ctx.Done():
			cancelRuns()
			return fmt.Errorf("wait for running jobs: %w", ctx.Err())
		}
	}
	cancelRuns()
	r.info("scheduler stopped")
	if stopErr != nil {
		return fmt.Errorf("stop scheduler driver: %w", stopErr)
	}
	return nil
}

// Trigger runs a job now and returns its final state.
func (r *Runner) Trigger(ctx context.Context, name string) (domain.JobState, error) {
	r.ensureRestored(ctx)
	return r.execute(ctx, name, "manual")
}

// SetEnabled turns a job's schedule on or off. Manual triggers keep working either way.
func (r *Runner) SetEnabled(ctx context.Context, name string, enabled bool) (domain.JobState, error) {
	r.ensureRestored(ctx)

	r.mu.Lock()
	entry, ok := r.jobs[name]
	if !ok {
		r.mu.Unlock()
		return domain.JobState{}, fmt.Errorf("%w: %s", domain.ErrUnknownJob, name)
	}
	changed := entry.state.Enabled != enabled
	entry.state.Enabled = enabled
	started := r.started
	if started && enabled {
		entry.state.NextRun = r.now().UTC().Add(entry.job.Interval)
	}
	if !enabled {
		entry.state.NextRun = time.Time{}
	}
	state := entry.state
	interval := entry.job.Interval
	r.mu.Unlock()

	if started && changed {
		if enabled {
			if err := r.schedule(name, interval); err != nil {
				return state, err
			}
		} else if r.driver != nil {
			r.driver.Unschedule(name)
		}
	}
	r.persist(ctx, name)
	r.info("job toggled", "job", name, "enabled", enabled)
	return state, nil
}

// Snapshot returns every job state in registration order.
func (r *Runner) Snapshot() []domain.JobState {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.JobState, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.jobs[name].state)
	}
	return out
}

// State returns one job's state.
func (r *Runner) State(name string) (domain.JobState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.jobs[name]
	if !ok {
		return domain.JobState{}, fmt.Errorf("%w: %s", domain.ErrUnknownJob, name)
	}
	return entry.state, nil
}

func (r *Runner) schedule(name string, interval time.Duration) error {
	if r.driver == nil {
		return nil
	}
	if err := r.driver.Schedule(name, interval, func(time.Time) { r.runScheduled(name, "schedule") }); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

func (r *Runner) runScheduled(name, trigger string) {
	r.mu.Lock()
	ctx := r.runCtx
	r.mu.Unlock()

	_, err := r.execute(ctx, name, trigger)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrJobRunning):
		r.warn("previous run still in progress, skipping tick", "job", name)
	case errors.Is(err, domain.ErrRunnerStopped):
		r.debug("scheduler stopped, skipping tick", "job", name)
	}
}

func (r *Runner) execute(ctx context.Context, name, trigger string) (domain.JobState, error) {
	r.mu.Lock()
	entry, ok := r.jobs[name]
	switch {
	case !ok:
		r.mu.Unlock()
		return domain.JobState{}, fmt.Errorf("%w: %s", domain.ErrUnknownJob, name)
	case r.stopped:
		r.mu.Unlock()
		return domain.JobState{}, domain.ErrRunnerStopped
	case entry.running:
		state := entry.state
		r.mu.Unlock()
		return state, fmt.Errorf("%w: %s", domain.ErrJobRunning, name)
	}
	entry.running = true
	entry.state.Status = domain.JobRunning
	entry.state.LastRun = r.now().UTC()
	if r.active == 0 {
		r.idle = make(chan struct{})
	}
	r.active++
	state := entry.state
	run := entry.job.Run
	r.mu.Unlock()

	r.persist(ctx, name)
	r.info("job started", "job", name, "trigger", trigger)

	started := r.now()
	summary, err := safeRun(ctx, run)
	duration := r.now().Sub(started)

	r.mu.Lock()
	entry.running = false
	entry.state.LastDuration = duration
	entry.state.RunCount++
	entry.state.LastSummary = summary
	if err != nil {
		entry.state.Status = domain.JobError
		entry.state.LastError = err.Error()
	} else {
		entry.state.Status = domain.JobCompleted
		entry.state.LastError = ""
	}
	if entry.state.Enabled && r.started {
		entry.state.NextRun = r.now().UTC().Add(entry.job.Interval)
	}
	state = entry.state
	r.active--
	if r.active == 0 && r.idle != nil {
		close(r.idle)
		r.idle = nil
	}
	r.mu.Unlock()

	r.persist(ctx, name)
	metrics.RecordJob(name, string(state.Status), duration)

	if err != nil {
		schedErr := &domain.SchedulerError{Job: name, Err: err}
		r.logError("job failed", "job", name, "trigger", trigger, "duration", duration, "error", err)
		if r.notifier != nil {
			if nerr := r.notifier.NotifyError(context.WithoutCancel(ctx), name, err.Error()); nerr != nil {
				r.warn("error notification failed", "job", name, "error", nerr)
			}
		}
		return state, schedErr
	}
	r.info("job completed", "job", name, "trigger", trigger, "duration", duration, "summary", summary)
	return state, nil
}

func safeRun(ctx context.Context, run JobFunc) (summary string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return run(ctx)
}

// ensureRestored loads persisted state once, on Start or on the first manual trigger or toggle.
func (r *Runner) ensureRestored(ctx context.Context) {
	r.mu.Lock()
	need := !r.restored
	r.restored = true
	r.mu.Unlock()
	if need {
		r.restore(ctx)
	}
}

// restore overlays persisted state. The configured interval always wins; a run that
// was in flight when the process died is reported as an error.
func (r *Runner) restore(ctx context.Context) {
	if r.states == nil {
		return
	}
	for _, name := range r.order {
		saved, ok, err := r.states.LoadJobState(ctx, name)
		if err != nil {
			r.warn("load job state failed", "job", name, "error", err)
			continue
		}
		if !ok {
			continue
		}
		r.mu.Lock()
		entry := r.jobs[name]
		entry.state.Enabled = saved.Enabled
		entry.state.LastRun = saved.LastRun
		entry.state.LastError = saved.LastError
		entry.state.LastSummary = saved.LastSummary
		entry.state.LastDuration = saved.LastDuration
		entry.state.RunCount = saved.RunCount
		entry.state.Status = saved.Status
		if saved.Status == domain.JobRunning {
			entry.state.Status = domain.JobError
			entry.state.LastError = interruptedRun
		}
		if !entry.state.Status.Valid() {
			entry.state.Status = domain.JobIdle
		}
		r.mu.Unlock()
	}
}

// persist writes the current state of a job. Writes are serialized so the store
// always ends with the newest state.
func (r *Runner) persist(ctx context.Context, name string) {
	if r.states == nil {
		return
	}
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	r.mu.Lock()
	state := r.jobs[name].state
	r.mu.Unlock()
	if err := r.states.SaveJobState(context.WithoutCancel(ctx), state); err != nil {
		r.warn("persist job state failed", "job", name, "error", err)
	}
}

func (r *Runner) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Runner) info(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) warn(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Runner) logError(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Error(msg, args...)
	}
}
