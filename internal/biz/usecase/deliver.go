package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robomo/discord-bridge/internal/metrics"
)

// RetryPolicy bounds how many times a delivery is attempted and how long the
// calling goroutine waits between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy matches the relay's historical behavior: three tries,
// one second apart.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: time.Second}

// DeliveryError is returned after every attempt of a delivery has failed.
type DeliveryError struct {
	Endpoint string
	Attempts int
	Err      error // last attempt's error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Deliverer runs outbound sends under a bounded retry policy. Backoff only
// suspends the goroutine handling the current message; classification of
// later messages continues elsewhere.
type Deliverer struct {
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
	log    zerolog.Logger
}

// NewDeliverer creates a deliverer. Zero policy fields fall back to
// DefaultRetryPolicy.
func NewDeliverer(policy RetryPolicy, log zerolog.Logger) *Deliverer {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if policy.Backoff <= 0 {
		policy.Backoff = DefaultRetryPolicy.Backoff
	}
	return &Deliverer{
		policy: policy,
		sleep:  sleepContext,
		log:    log.With().Str("component", "deliverer").Logger(),
	}
}

// Deliver runs send until it succeeds or the policy is exhausted. Results
// travel through the send closure; the returned error is nil on success and
// a *DeliveryError otherwise. Never panics; backoff waits are cancellable
// through ctx. Attempt errors are logged without message payloads.
func (d *Deliverer) Deliver(ctx context.Context, endpoint string, send func(ctx context.Context) error) error {
	log := d.log.With().
		Str("delivery_id", uuid.NewString()).
		Str("endpoint", endpoint).
		Logger()

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		attempts = attempt
		err := send(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info().Int("attempt", attempt).Msg("delivery succeeded after retry")
			}
			return nil
		}

		lastErr = err
		metrics.DeliveryAttemptFailures.WithLabelValues(endpoint).Inc()
		log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", d.policy.MaxAttempts).
			Msg("delivery attempt failed")

		if attempt < d.policy.MaxAttempts {
			if serr := d.sleep(ctx, d.policy.Backoff); serr != nil {
				// Shutdown or caller cancellation: stop retrying.
				lastErr = serr
				break
			}
		}
	}

	metrics.DeliveriesExhausted.WithLabelValues(endpoint).Inc()
	return &DeliveryError{Endpoint: endpoint, Attempts: attempts, Err: lastErr}
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
