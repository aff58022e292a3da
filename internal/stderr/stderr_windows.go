//go:build windows

// Package stderr is a no-op on Windows, whose audio stack does not write to
// fd 2.
package stderr

import (
	"os"

	"github.com/rs/zerolog"
)

// Capture does nothing on Windows.
type Capture struct{}

// Start is a no-op on Windows.
func Start(zerolog.Logger) (*Capture, error) {
	return &Capture{}, nil
}

// WriteOriginal writes to stderr.
func (c *Capture) WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Stop is a no-op on Windows.
func (c *Capture) Stop() {}
