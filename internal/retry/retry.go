// Package retry runs outbound calls under a bounded retry policy with
// exponential backoff.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 0.75

	// maxLoggedErrorLen bounds the error text written to the log per attempt.
	maxLoggedErrorLen = 200
)

// Sleeper waits for d. It returns early with ctx.Err() if ctx is done first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy describes how many times a call is attempted and how long to wait
// between attempts. The zero value is not usable; build one with New.
type Policy struct {
	MaxAttempts int
	BackoffBase float64
	Logger      zerolog.Logger
	Sleep       Sleeper
}

// New returns a policy with the given limits. Non-positive values fall back
// to the defaults.
func New(maxAttempts int, backoffBase float64, logger zerolog.Logger) Policy {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	return Policy{
		MaxAttempts: maxAttempts,
		BackoffBase: backoffBase,
		Logger:      logger,
		Sleep:       sleepContext,
	}
}

// Backoff returns the wait after the failed attempt with 0-based index
// attempt: BackoffBase^attempt seconds.
func (p Policy) Backoff(attempt int) time.Duration {
	secs := math.Pow(p.BackoffBase, float64(attempt))
	return time.Duration(secs * float64(time.Second))
}

// Do invokes fn until it succeeds or MaxAttempts attempts have been made.
// Every error is retried the same way. When attempts run out, the error of
// the last attempt is returned as is.
//
// If ctx is cancelled while waiting between attempts, Do stops and returns
// the last attempt's error.
func Do[T any](ctx context.Context, p Policy, target string, fn func(ctx context.Context) (T, error)) (T, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var (
		result T
		err    error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}

		if attempt == maxAttempts-1 {
			break
		}

		wait := p.Backoff(attempt)
		p.Logger.Warn().
			Int("attempt", attempt+1).
			Int("max_attempts", maxAttempts).
			Str("target", target).
			Str("error", truncate(err.Error(), maxLoggedErrorLen)).
			Dur("retry_in", wait).
			Msg("upstream call failed, retrying")

		if serr := sleep(ctx, wait); serr != nil {
			p.Logger.Error().
				Int("attempts", attempt+1).
				Str("target", target).
				Msg("retry aborted: context done")
			return result, err
		}
	}

	p.Logger.Error().
		Int("attempts", maxAttempts).
		Str("target", target).
		Str("error", truncate(err.Error(), maxLoggedErrorLen)).
		Msg("all attempts failed")
	return result, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
