package shared

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default [SleepFunc].
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryPolicy retries a single call with exponential backoff.
//
// Delays double from BaseDelay and are capped at MaxDelay. Only errors accepted by
// Retryable are retried; nil Retryable means [IsTransient].
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
	OnRetry     func(attempt int, err error, wait time.Duration)
}

func (p RetryPolicy) exponential() *backoff.ExponentialBackOff {
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = backoff.DefaultMaxInterval
	}
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		MaxInterval:         maxDelay,
		Multiplier:          2,
		RandomizationFactor: 0,
	}
	bo.Reset()
	return bo
}

// Backoff returns the wait before the attempt following attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	bo := p.exponential()
	d := bo.NextBackOff()
	for i := 1; i < attempt; i++ {
		d = bo.NextBackOff()
	}
	return d
}

// RetryAfter wraps err so the next wait is d instead of the computed backoff.
// d is capped at the policy's MaxDelay by [RetryPolicy.Do].
func RetryAfter(err error, d time.Duration) error {
	return &retryAfterError{err: err, after: &backoff.RetryAfterError{Duration: d}}
}

type retryAfterError struct {
	err   error
	after *backoff.RetryAfterError
}

func (e *retryAfterError) Error() string { return e.err.Error() }
func (e *retryAfterError) Unwrap() []error { return []error{e.err, e.after} }

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run out.
// The last error is returned, or the context's error when ctx ends while waiting.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	op := func() (struct{}, error) {
		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		if p.MaxDelay > 0 {
			var after *backoff.RetryAfterError
			if errors.As(err, &after) && after.Duration > p.MaxDelay {
				after.Duration = p.MaxDelay
			}
		}
		return struct{}{}, err
	}

	attempt := 0
	notify := func(err error, wait time.Duration) {
		attempt++
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(p.exponential()),
		backoff.WithMaxTries(uint(max(p.MaxAttempts, 1))),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err != nil && ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		return errors.Join(err, ctx.Err())
	}
	return err
}

// Policies used by the provider clients.
var (
	SourceRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	SearchRetry = RetryPolicy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: 3 * time.Second}
	SinkRetry   = RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second}
)
