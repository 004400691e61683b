package dedup

import (
	"errors"
	"fmt"
)

// ErrConcurrentRun is returned when the persisted store changed after it was loaded.
var ErrConcurrentRun = errors.New("dedup store was modified by a concurrent run")

// StoreIOError wraps a failure of the underlying persistence.
type StoreIOError struct {
	Op  string
	Err error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("dedup store %s failed: %v", e.Op, e.Err)
}

func (e *StoreIOError) Unwrap() error {
	return e.Err
}

func wrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConcurrentRun) {
		return err
	}
	return &StoreIOError{Op: op, Err: err}
}
