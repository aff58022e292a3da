// Package backend opens an output host by name.
package backend

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/config"
	"github.com/llehouerou/riptide/internal/output"
	"github.com/llehouerou/riptide/internal/output/miniaudio"
	"github.com/llehouerou/riptide/internal/output/speaker"
)

// Open returns the host for a config.Backend* name. An empty name selects
// the speaker backend.
func Open(name string, log zerolog.Logger) (output.Host, error) {
	switch name {
	case "", config.BackendSpeaker:
		return speaker.New(0), nil
	case config.BackendMiniaudio:
		h, err := miniaudio.New(log, 0)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
	return nil, fmt.Errorf("unknown output backend %q", name)
}
