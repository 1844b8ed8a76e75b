package responder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jsonmend/jsonmend/pkg/errors"
	"github.com/jsonmend/jsonmend/pkg/logging"
)

// Retry defaults.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 500 * time.Millisecond
)

type retrying struct {
	inner     Responder
	attempts  int
	baseDelay time.Duration
	log       zerolog.Logger
}

// RetryOption configures the retry decorator.
type RetryOption func(*retrying)

// WithAttempts sets the total number of attempts, including the first.
func WithAttempts(n int) RetryOption {
	return func(r *retrying) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithBaseDelay sets the delay before the first retry. Each subsequent
// retry doubles it.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(r *retrying) { r.baseDelay = d }
}

// WithRetryLogger sets the logger.
func WithRetryLogger(log zerolog.Logger) RetryOption {
	return func(r *retrying) { r.log = log }
}

// WithRetry wraps a responder so that transient failures and non-JSON
// replies are retried with exponential backoff. On success the reply is
// returned already stripped of markdown fences and guaranteed to parse as
// JSON.
func WithRetry(inner Responder, opts ...RetryOption) Responder {
	r := &retrying{
		inner:     inner,
		attempts:  DefaultAttempts,
		baseDelay: DefaultBaseDelay,
		log:       *logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Send implements Responder.
func (r *retrying) Send(ctx context.Context, request string) (string, error) {
	delay := r.baseDelay
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		reply, err := r.inner.Send(ctx, request)
		if err == nil {
			text, jsonErr := ExtractJSON(reply)
			if jsonErr == nil {
				return text, nil
			}
			err = jsonErr
		}
		lastErr = err

		if !errors.IsRetryable(err) || attempt == r.attempts {
			break
		}

		r.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("responder call failed; retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return "", lastErr
}
