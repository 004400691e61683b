package pipeline

import (
	"errors"
	"fmt"
)

// SourceAdapterError means a source returned nothing usable. The run continues
// without postings from that source.
type SourceAdapterError struct {
	Source string
	Err    error
}

func (e *SourceAdapterError) Error() string {
	return fmt.Sprintf("source %s failed: %v", e.Source, e.Err)
}

func (e *SourceAdapterError) Unwrap() error {
	return e.Err
}

var ErrInvalidTransition = errors.New("invalid stage transition")
