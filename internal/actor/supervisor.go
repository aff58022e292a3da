package actor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/riptide/internal/bus"
)

// Policy decides what the supervisor does when an actor fails.
type Policy interface {
	policy()
}

// Isolate lets a failed actor stay down. The bus and every other actor keep
// running.
type Isolate struct{}

// Restart resubscribes a failed actor after Backoff, doubling the delay on
// each attempt, and gives up after MaxRestarts.
type Restart struct {
	MaxRestarts int
	Backoff     time.Duration
}

// Critical cancels the whole group when the actor fails.
type Critical struct{}

func (Isolate) policy()  {}
func (Restart) policy()  {}
func (Critical) policy() {}

// maxBackoff caps the restart delay.
const maxBackoff = 30 * time.Second

type member struct {
	actor  Actor
	policy Policy
}

// Supervisor runs actors, each on a goroutine locked to its own OS thread.
type Supervisor struct {
	tx      *bus.Sender
	log     zerolog.Logger
	members []member
}

// NewSupervisor creates a supervisor publishing on tx. Each actor gets its
// own clone of tx.
func NewSupervisor(tx *bus.Sender, log zerolog.Logger) *Supervisor {
	return &Supervisor{tx: tx, log: log}
}

// Add registers a with policy p. It must be called before Run.
func (s *Supervisor) Add(a Actor, p Policy) {
	if p == nil {
		p = Isolate{}
	}
	s.members = append(s.members, member{actor: a, policy: p})
}

// Run starts every actor and blocks until they have all returned. It
// returns the error of a failed Critical actor, or nil when the group ended
// because ctx was cancelled or an actor returned ErrShutdown.
func (s *Supervisor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, m := range s.members {
		// Subscribe before any actor runs so early messages reach everyone.
		rx := s.tx.Subscribe()
		tx := s.tx.Clone()
		g.Go(func() error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			return s.supervise(ctx, m, rx, tx)
		})
	}

	err := g.Wait()
	if errors.Is(err, ErrShutdown) {
		return nil
	}
	return err
}

func (s *Supervisor) supervise(ctx context.Context, m member, rx *bus.Receiver, tx *bus.Sender) error {
	defer tx.Close()
	name := m.actor.Name()
	log := s.log.With().Str("actor", name).Logger()

	restarts := 0
	for {
		log.Debug().Int("restarts", restarts).Msg("actor starting")
		err := runGuarded(ctx, m.actor, rx, tx)
		rx.Close()

		switch {
		case errors.Is(err, ErrShutdown):
			log.Info().Msg("actor requested shutdown")
			return ErrShutdown
		case err == nil || ctx.Err() != nil:
			log.Debug().Msg("actor stopped")
			return nil
		}

		ev := log.Error().Err(err)
		var pe *PanicError
		if errors.As(err, &pe) {
			ev = ev.Str("stack", string(pe.Stack))
		}
		ev.Str("policy", fmt.Sprintf("%T", m.policy)).Msg("actor failed")

		switch p := m.policy.(type) {
		case Critical:
			return fmt.Errorf("actor %s: %w", name, err)
		case Restart:
			if restarts >= p.MaxRestarts {
				log.Error().Int("restarts", restarts).Msg("actor restart limit reached, giving up")
				return nil
			}
			delay := backoff(p.Backoff, restarts)
			restarts++
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
			rx = tx.Subscribe()
		default:
			return nil
		}
	}
}

// runGuarded runs one actor body and turns a panic into a *PanicError.
func runGuarded(ctx context.Context, a Actor, rx *bus.Receiver, tx *bus.Sender) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return a.Run(ctx, rx, tx)
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := base
	for range attempt {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return min(d, maxBackoff)
}
