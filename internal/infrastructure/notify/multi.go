// Package notify fans operator notifications out to several channels.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

// Multi delivers every notification to all channels. A failing channel does not
// stop the others; the joined error is returned.
type Multi struct {
	channels []ports.Notifier
	logger   *slog.Logger
}

var _ ports.Notifier = (*Multi)(nil)

// NewMulti skips nil channels.
func NewMulti(logger *slog.Logger, channels ...ports.Notifier) *Multi {
	m := &Multi{logger: logger}
	for _, ch := range channels {
		if ch != nil {
			m.channels = append(m.channels, ch)
		}
	}
	return m
}

// Len reports the number of channels.
func (m *Multi) Len() int {
	return len(m.channels)
}

// NotifyError fans out a job failure.
func (m *Multi) NotifyError(ctx context.Context, job, message string) error {
	return m.each(func(n ports.Notifier) error { return n.NotifyError(ctx, job, message) })
}

// NotifyLowStock fans out a stock warning.
func (m *Multi) NotifyLowStock(ctx context.Context, items []domain.LowStockItem) error {
	return m.each(func(n ports.Notifier) error { return n.NotifyLowStock(ctx, items) })
}

// PublishDigest fans out the weekly digest.
func (m *Multi) PublishDigest(ctx context.Context, digest string) error {
	return m.each(func(n ports.Notifier) error { return n.PublishDigest(ctx, digest) })
}

func (m *Multi) each(send func(ports.Notifier) error) error {
	var errs []error
	for _, ch := range m.channels {
		if err := send(ch); err != nil {
			if m.logger != nil {
				m.logger.Warn("notification channel failed", "error", err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
