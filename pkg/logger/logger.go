package logger

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// CronLogger routes robfig/cron diagnostics into slog.
type CronLogger struct {
	log *slog.Logger
}

var _ cron.Logger = CronLogger{}

// NewCron wraps a slog.Logger; nil falls back to slog.Default.
func NewCron(log *slog.Logger) CronLogger {
	if log == nil {
		log = slog.Default()
	}
	return CronLogger{log: log}
}

// Info logs routine scheduler events at debug level.
func (c CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug("cron: "+msg, keysAndValues...)
}

// Error logs scheduler failures, including recovered job panics.
func (c CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err}, keysAndValues...)
	c.log.Error("cron: "+msg, args...)
}
