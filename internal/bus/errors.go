package bus

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned once every sender is gone (and, for receivers,
	// the backlog is drained) or after Close on the caller's own handle.
	ErrClosed = errors.New("bus: closed")

	// ErrNoReceivers is returned by Send when nobody is subscribed.
	ErrNoReceivers = errors.New("bus: no receivers")
)

// LaggedError reports that a receiver fell behind the ring capacity.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("bus: receiver lagged, %d messages skipped", e.Skipped)
}

// IsLagged reports whether err is a *LaggedError and returns the skip count.
func IsLagged(err error) (uint64, bool) {
	var lagged *LaggedError
	if errors.As(err, &lagged) {
		return lagged.Skipped, true
	}
	return 0, false
}
