// Package actor runs bus participants on their own OS threads under a
// supervisor.
//
// An actor only ever talks to the rest of the process through the bus: it
// receives on its own subscription and publishes through its own sender
// clone. The supervisor decides what happens when an actor fails.
package actor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/bus"
)

// ErrShutdown is returned by an actor that wants the whole process to stop,
// typically the UI when the user quits. The supervisor treats it as a clean
// exit of the group.
var ErrShutdown = errors.New("actor: shutdown requested")

// Actor is an independently threaded bus participant.
type Actor interface {
	Name() string
	// Run blocks until ctx is cancelled, the bus closes or the actor fails.
	// rx and tx belong to this run; the supervisor closes both afterwards.
	Run(ctx context.Context, rx *bus.Receiver, tx *bus.Sender) error
}

// Func adapts a function to the Actor interface.
type Func struct {
	ActorName string
	Fn        func(ctx context.Context, rx *bus.Receiver, tx *bus.Sender) error
}

func (f Func) Name() string { return f.ActorName }

func (f Func) Run(ctx context.Context, rx *bus.Receiver, tx *bus.Sender) error {
	return f.Fn(ctx, rx, tx)
}

// Handler processes one message. A non-nil error ends the consumer loop.
type Handler func(ctx context.Context, msg bus.Message) error

// Consume is the standard consumer loop. Lag is logged and skipped, a
// closed bus or a cancelled context ends the loop with nil, and a handler
// error is returned as is.
func Consume(ctx context.Context, log zerolog.Logger, rx *bus.Receiver, handle Handler) error {
	for {
		msg, err := rx.Recv(ctx)
		if err != nil {
			if skipped, ok := bus.IsLagged(err); ok {
				log.Warn().Uint64("skipped", skipped).Msg("bus receiver lagged")
				continue
			}
			if errors.Is(err, bus.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := handle(ctx, msg); err != nil {
			return err
		}
	}
}

// PanicError is a recovered panic from an actor body.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
