package mediactl

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/actor"
	"github.com/llehouerou/riptide/internal/bus"
)

// ErrUnsupported is returned by the bridge on platforms without one.
var ErrUnsupported = errors.New("media controls not supported on this platform")

// Bridge publishes the tracked state to the OS.
type Bridge interface {
	// Changed signals that the given properties moved.
	Changed(c Change)
	Close() error
}

// BridgeFunc creates a bridge reading from tracker and driving controls.
type BridgeFunc func(tracker *Tracker, controls *Controls, log zerolog.Logger) (Bridge, error)

// Actor keeps a Tracker current and feeds the bridge.
type Actor struct {
	log       zerolog.Logger
	tracker   *Tracker
	newBridge BridgeFunc
}

var _ actor.Actor = (*Actor)(nil)

// New creates the media control actor. A nil newBridge selects the
// platform bridge (MPRIS on Linux).
func New(log zerolog.Logger, newBridge BridgeFunc) *Actor {
	if newBridge == nil {
		newBridge = NewMPRIS
	}
	return &Actor{log: log, tracker: NewTracker(), newBridge: newBridge}
}

func (a *Actor) Name() string { return "mediactl" }

// Tracker returns the tracked state.
func (a *Actor) Tracker() *Tracker { return a.tracker }

func (a *Actor) Run(ctx context.Context, rx *bus.Receiver, tx *bus.Sender) error {
	bridge, err := a.newBridge(a.tracker, NewControls(tx, a.tracker), a.log)
	switch {
	case errors.Is(err, ErrUnsupported):
		a.log.Debug().Msg("no media control bridge on this platform")
		bridge = nil
	case err != nil:
		a.log.Warn().Err(err).Msg("start media control bridge")
		bridge = nil
	default:
		defer func() {
			if err := bridge.Close(); err != nil {
				a.log.Debug().Err(err).Msg("close media control bridge")
			}
		}()
	}

	return actor.Consume(ctx, a.log, rx, func(_ context.Context, msg bus.Message) error {
		if c := a.tracker.Apply(msg); c != 0 && bridge != nil {
			bridge.Changed(c)
		}
		return nil
	})
}
