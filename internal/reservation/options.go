package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const defaultMaxRetries = 3

type Options struct {
	// AutoConfirm creates bookings directly in Confirmed, for callers that
	// pre-authorize payment.
	AutoConfirm bool
	// MaxRetries bounds how often an atomic unit is re-run after ErrContention.
	// Negative disables retries.
	MaxRetries int
	Now        func() time.Time
	NewID      func() string
}

func (o Options) withDefaults() Options {
	if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

func (o Options) initialStatus() Status {
	if o.AutoConfirm {
		return StatusConfirmed
	}
	return StatusPending
}

// retry runs fn until it succeeds, fails with something other than
// ErrContention, or the retry budget is spent.
func retry(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrContention) || attempt >= maxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
		}
	}
}
