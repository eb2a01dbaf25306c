package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// DefaultBackoff is used by [NewFetcher]: three attempts, starting at one
// second and doubling up to eight.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 8 * time.Second}

// Backoff is a retry policy with doubling delays.
type Backoff struct {
	Attempts int           // total calls, at least 1
	Delay    time.Duration // wait before the second call
	MaxDelay time.Duration // cap for the doubled delay; 0 means no cap
}

// RetryableError marks a transient failure. After, when positive, overrides
// the backoff delay for the next attempt (servers send it as Retry-After).
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a [RetryableError]. It returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// retryAfter reads a Retry-After header given in seconds. HTTP dates are
// ignored and fall back to the backoff delay.
func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Do calls fn until it succeeds, returns an error not marked with
// [Retryable], or the attempts run out. The last error is returned
// unwrapped from its RetryableError. Cancelling ctx while waiting returns
// ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var re *RetryableError
	for i := 1; ; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.As(err, &re) {
			return err
		}
		if i == attempts {
			return re.Err
		}

		wait := delay
		if re.After > 0 {
			wait = re.After
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
}
