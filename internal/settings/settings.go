// Package settings publishes the configuration on the bus: once at startup,
// then again whenever the config files change on disk.
package settings

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/actor"
	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/config"
)

// WatchFunc starts watching the configuration. onChange may be called from
// any goroutine.
type WatchFunc func(onChange func(*config.Config, error)) (io.Closer, error)

// Actor is the config actor.
type Actor struct {
	cfg   *config.Config
	log   zerolog.Logger
	watch WatchFunc
	last  bus.ConfigChanged
	sent  bool
}

var _ actor.Actor = (*Actor)(nil)

// New creates the config actor for cfg. A nil watch selects config.Watch.
func New(cfg *config.Config, log zerolog.Logger, watch WatchFunc) *Actor {
	if watch == nil {
		watch = func(onChange func(*config.Config, error)) (io.Closer, error) {
			return config.Watch(onChange)
		}
	}
	return &Actor{cfg: cfg, log: log, watch: watch}
}

func (a *Actor) Name() string { return "settings" }

// Message builds the ConfigChanged announcing cfg.
func Message(cfg *config.Config) bus.ConfigChanged {
	return bus.ConfigChanged{
		Output:    cfg.GetOutputConfig().Settings(),
		Buffering: cfg.GetBufferingConfig(),
	}
}

func (a *Actor) Run(ctx context.Context, rx *bus.Receiver, tx *bus.Sender) error {
	// Publish only.
	rx.Close()

	a.sent = false
	a.publish(tx, a.cfg)

	changes := make(chan *config.Config, 1)
	w, err := a.watch(func(cfg *config.Config, err error) {
		if err != nil {
			a.log.Warn().Err(err).Msg("reload config")
			return
		}
		latest(changes, cfg)
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("watch config files, live reload disabled")
		return nil
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg := <-changes:
			a.cfg = cfg
			a.publish(tx, cfg)
		}
	}
}

func (a *Actor) publish(tx *bus.Sender, cfg *config.Config) {
	msg := Message(cfg)
	if a.sent && msg == a.last {
		return
	}
	a.log.Info().
		Interface("output", msg.Output).
		Interface("buffering", msg.Buffering).
		Msg("configuration published")
	_ = tx.Send(msg)
	a.last, a.sent = msg, true
}

// latest replaces whatever is queued in ch with cfg.
func latest(ch chan *config.Config, cfg *config.Config) {
	for {
		select {
		case ch <- cfg:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
