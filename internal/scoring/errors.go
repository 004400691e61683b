package scoring

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTransient marks failures worth retrying: timeouts, rate limiting, 5xx.
	ErrTransient = errors.New("transient scoring failure")
	// ErrBudgetExhausted is returned when no call can be issued within today's ceiling.
	ErrBudgetExhausted = errors.New("daily scoring budget exhausted")
)

type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent scoring failure: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func Transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// IsTransient classifies an error returned by a capability. Explicitly
// permanent errors are never retried, timeouts always are.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return false
	}

	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
