package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/actor"
	"github.com/llehouerou/riptide/internal/bus"
)

// Actor runs the bubbletea program. Quitting from the UI shuts the whole
// application down.
type Actor struct {
	log  zerolog.Logger
	opts []tea.ProgramOption
}

var _ actor.Actor = (*Actor)(nil)

// New creates the UI actor. opts are passed to tea.NewProgram after the
// defaults (alternate screen, context).
func New(log zerolog.Logger, opts ...tea.ProgramOption) *Actor {
	return &Actor{log: log, opts: opts}
}

func (a *Actor) Name() string { return "ui" }

func (a *Actor) Run(parent context.Context, rx *bus.Receiver, tx *bus.Sender) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	model := NewModel(func(msg bus.Message) {
		if err := tx.Send(msg); err != nil {
			a.log.Debug().Err(err).Str("message", fmt.Sprintf("%T", msg)).Msg("publish request")
		}
	})
	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, a.opts...)
	p := tea.NewProgram(model, opts...)

	fwdDone := make(chan struct{})
	go func() {
		defer close(fwdDone)
		a.forward(ctx, rx, p)
	}()

	final, err := p.Run()
	cancel()
	<-fwdDone

	switch {
	case errors.Is(err, tea.ErrProgramKilled) && parent.Err() != nil:
		return nil
	case err != nil:
		return fmt.Errorf("ui: %w", err)
	}
	if m, ok := final.(Model); ok && m.Quitting() {
		a.log.Info().Msg("quit requested")
		return actor.ErrShutdown
	}
	return nil
}

// forward delivers bus messages to the program until ctx is done or the bus
// closes.
func (a *Actor) forward(ctx context.Context, rx *bus.Receiver, p *tea.Program) {
	for {
		msg, err := rx.Recv(ctx)
		if err != nil {
			if n, lagged := bus.IsLagged(err); lagged {
				a.log.Warn().Uint64("skipped", n).Msg("ui lagging behind the bus")
				continue
			}
			return
		}
		p.Send(BusMsg{Msg: msg})
	}
}
