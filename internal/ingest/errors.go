package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderEmpty means the provider answered but had no usable days.
	ErrProviderEmpty = errors.New("provider returned no forecast days")
	// ErrLocationUnmatched means no stored provider entry lies within tolerance.
	ErrLocationUnmatched = errors.New("no stored provider entry near location")
	// ErrOutOfRegion means the provider does not cover the location.
	ErrOutOfRegion = errors.New("location outside provider region")
)

// ProviderError wraps a transport, status, or decode failure from one provider.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
