package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ProductCurator/internal/ports"
	"ProductCurator/pkg/logger"
)

// CronDriver fires named jobs at a constant delay using robfig/cron.
type CronDriver struct {
	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

var _ ports.Scheduler = (*CronDriver)(nil)

// NewCronDriver builds a driver evaluating schedules in loc.
func NewCronDriver(loc *time.Location, log *slog.Logger) *CronDriver {
	if loc == nil {
		loc = time.UTC
	}
	cronLog := logger.NewCron(log)
	return &CronDriver{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog)),
		),
		entries: make(map[string]cron.EntryID),
	}
}

// Schedule registers job under name, replacing any previous entry.
// Intervals below one second are rounded up by cron.
func (d *CronDriver) Schedule(name string, every time.Duration, job func(time.Time)) error {
	if every <= 0 {
		return fmt.Errorf("schedule %s: interval must be positive", name)
	}
	if job == nil {
		return fmt.Errorf("schedule %s: nil job", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.entries[name]; ok {
		d.cron.Remove(id)
	}
	d.entries[name] = d.cron.Schedule(cron.Every(every), cron.FuncJob(func() {
		job(time.Now())
	}))
	return nil
}

// Unschedule drops the entry for name, if any.
func (d *CronDriver) Unschedule(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.entries[name]; ok {
		d.cron.Remove(id)
		delete(d.entries, name)
	}
}

// Next reports when name fires next.
func (d *CronDriver) Next(name string) (time.Time, bool) {
	d.mu.Lock()
	id, ok := d.entries[name]
	d.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	entry := d.cron.Entry(id)
	return entry.Next, entry.Valid()
}

// Start begins dispatching. Calling it on a running driver is a no-op.
func (d *CronDriver) Start(context.Context) error {
	d.cron.Start()
	return nil
}

// Stop halts dispatching and waits for running cron callbacks until ctx is done.
func (d *CronDriver) Stop(ctx context.Context) error {
	done := d.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
