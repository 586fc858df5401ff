package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotPending       = errors.New("not found in pending queue")
	ErrJobRunning       = errors.New("job is already running")
	ErrUnknownJob       = errors.New("unknown job")
	ErrRunnerStopped    = errors.New("scheduler is stopped")
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
)

// FetchError reports a supplier category that could not be fetched.
type FetchError struct {
	Source   string
	Category string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s/%s: %v", e.Source, e.Category, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CandidateProcessingError reports a single candidate that failed mid-pipeline.
type CandidateProcessingError struct {
	CandidateID string
	Stage       string
	Err         error
}

func (e *CandidateProcessingError) Error() string {
	return fmt.Sprintf("candidate %s (%s): %v", e.CandidateID, e.Stage, e.Err)
}

func (e *CandidateProcessingError) Unwrap() error { return e.Err }

// SchedulerError reports a job that failed during dispatch.
type SchedulerError struct {
	Job string
	Err error
}

func (e *SchedulerError) Error() string {
	return fmt.Sprintf("job %s: %v", e.Job, e.Err)
}

func (e *SchedulerError) Unwrap() error { return e.Err }

// QueueStateError reports an approve/reject on an item that is not pending.
type QueueStateError struct {
	ItemID string
	Op     string
}

func (e *QueueStateError) Error() string {
	return fmt.Sprintf("%s review item %s: %v", e.Op, e.ItemID, ErrNotPending)
}

func (e *QueueStateError) Unwrap() error { return ErrNotPending }
