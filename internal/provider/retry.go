// Package provider holds model-client plumbing shared by all providers.
package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/Cyclone1070/drift/internal/provider/models"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 60 * time.Second
)

// Retrying wraps a StreamClient and retries opening a stream when the
// failure is retryable. Errors delivered inside an open stream are not
// retried.
type Retrying struct {
	client     models.StreamClient
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     *slog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// RetryOption configures Retrying.
type RetryOption func(*Retrying)

func WithMaxRetries(n int) RetryOption {
	return func(r *Retrying) { r.maxRetries = n }
}

func WithBackoff(base, max time.Duration) RetryOption {
	return func(r *Retrying) { r.baseDelay, r.maxDelay = base, max }
}

func WithLogger(l *slog.Logger) RetryOption {
	return func(r *Retrying) { r.logger = l }
}

// NewRetrying wraps client.
func NewRetrying(client models.StreamClient, opts ...RetryOption) *Retrying {
	r := &Retrying{
		client:     client,
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
		logger:     slog.Default(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stream implements models.StreamClient.
func (r *Retrying) Stream(ctx context.Context, req *models.Request) (models.Stream, error) {
	for attempt := 0; ; attempt++ {
		stream, err := r.client.Stream(ctx, req)
		if err == nil {
			return stream, nil
		}
		if attempt >= r.maxRetries || !models.IsRetryable(err) {
			return nil, err
		}

		wait := r.delay(attempt)
		if after := models.GetRetryAfter(err); after != nil && *after > 0 {
			wait = *after
		}
		r.logger.WarnContext(ctx, "model request failed, retrying",
			"attempt", attempt+1, "max_retries", r.maxRetries, "wait", wait, "error", err)

		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (r *Retrying) delay(attempt int) time.Duration {
	d := r.baseDelay << attempt
	if d <= 0 || d > r.maxDelay {
		return r.maxDelay
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
