//go:build !linux

package mediactl

import "github.com/rs/zerolog"

// NewMPRIS reports ErrUnsupported: MPRIS only exists on Linux.
func NewMPRIS(_ *Tracker, _ *Controls, _ zerolog.Logger) (Bridge, error) {
	return nil, ErrUnsupported
}
