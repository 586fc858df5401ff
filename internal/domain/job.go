package domain

import "time"

// JobStatus enumerates the scheduler state machine.
type JobStatus string

const (
	JobIdle      JobStatus = "idle"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobError     JobStatus = "error"
)

// JobState is the runtime record of one named scheduled job.
type JobState struct {
	Name         string        `json:"name"`
	Interval     time.Duration `json:"interval"`
	Enabled      bool          `json:"enabled"`
	Status       JobStatus     `json:"status"`
	LastRun      time.Time     `json:"lastRun,omitempty"`
	NextRun      time.Time     `json:"nextRun,omitempty"`
	LastError    string        `json:"lastError,omitempty"`
	LastSummary  string        `json:"lastSummary,omitempty"`
	LastDuration time.Duration `json:"lastDuration"`
	RunCount     int           `json:"runCount"`
}

// Overdue reports whether the last run is older than 1.5 intervals.
// Jobs that never ran are not overdue.
func (s JobState) Overdue(now time.Time) bool {
	if s.LastRun.IsZero() || s.Interval <= 0 {
		return false
	}
	return now.Sub(s.LastRun) > s.Interval*3/2
}

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobIdle, JobRunning, JobCompleted, JobError:
		return true
	}
	return false
}
