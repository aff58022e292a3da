package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/actor"
	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/config"
	"github.com/llehouerou/riptide/internal/decoder"
	"github.com/llehouerou/riptide/internal/logging"
	"github.com/llehouerou/riptide/internal/mediactl"
	"github.com/llehouerou/riptide/internal/notify"
	"github.com/llehouerou/riptide/internal/output"
	"github.com/llehouerou/riptide/internal/output/backend"
	"github.com/llehouerou/riptide/internal/playback"
	"github.com/llehouerou/riptide/internal/player"
	"github.com/llehouerou/riptide/internal/reconcile"
	"github.com/llehouerou/riptide/internal/settings"
	"github.com/llehouerou/riptide/internal/stderr"
	"github.com/llehouerou/riptide/internal/ui"
)

// restartPolicy is used for the actors that hold no state worth losing.
var restartPolicy = actor.Restart{MaxRestarts: 5, Backoff: 500 * time.Millisecond}

func main() {
	configPath := flag.String("config", "", "config file (default: $XDG_CONFIG_HOME/riptide/config.toml)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: riptide [-config file] [track ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*configPath, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, tracks []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, logCloser, err := logging.New(cfg.GetLogConfig())
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	capture, err := stderr.Start(logging.Component(log, "stderr"))
	if err != nil {
		log.Warn().Err(err).Msg("stderr capture unavailable")
	} else {
		defer capture.Stop()
	}

	outCfg := cfg.GetOutputConfig()
	host, err := backend.Open(outCfg.Backend, logging.Component(log, "output"))
	if err != nil {
		return err
	}

	_, pref := reconcile.Effective(outCfg.Settings(), nil)
	eng, err := player.New(player.Options{
		Host:       host,
		Logger:     logging.Component(log, "player"),
		Preference: pref,
	})
	if err != nil {
		_ = host.Close()
		return fmt.Errorf("open output: %w", err)
	}

	dec := decoder.New(decoder.Options{
		Player:           eng,
		Logger:           logging.Component(log, "decoder"),
		Buffering:        cfg.GetBufferingConfig(),
		ProgressInterval: time.Duration(cfg.GetProgressIntervalMS()) * time.Millisecond,
	})

	runErr := supervise(cfg, log, host, eng, dec, tracks)

	shutdown(log, dec, eng, host)
	return runErr
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// supervise runs the actor group until the UI quits or a signal arrives.
func supervise(cfg *config.Config, log zerolog.Logger, host output.Host, eng *player.Engine, dec *decoder.Engine, tracks []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tx := bus.New(bus.Capacity)
	defer tx.Close()

	sup := actor.NewSupervisor(tx, logging.Component(log, "supervisor"))
	sup.Add(settings.New(cfg, logging.Component(log, "settings"), nil), restartPolicy)
	sup.Add(playback.New(playback.Options{
		Decoder: dec,
		Player:  eng,
		Host:    host,
		Logger:  logging.Component(log, "playback"),
	}), restartPolicy)
	sup.Add(reconcile.NewActor(logging.Component(log, "reconcile")), restartPolicy)
	if cfg.MPRISEnabled() {
		sup.Add(mediactl.New(logging.Component(log, "mediactl"), nil), actor.Isolate{})
	}
	if cfg.Notifications {
		sup.Add(notify.NewActor(logging.Component(log, "notify"), nil), actor.Isolate{})
	}
	sup.Add(ui.New(logging.Component(log, "ui")), actor.Isolate{})
	if len(tracks) > 0 {
		sup.Add(&enqueue{paths: absPaths(tracks)}, actor.Isolate{})
	}

	log.Info().Str("backend", host.Name()).Int("tracks", len(tracks)).Msg("riptide starting")
	err := sup.Run(ctx)
	log.Info().Err(err).Msg("riptide stopping")
	return err
}

// shutdown stops the pipeline from the producer end so nothing writes into
// a closed stream.
func shutdown(log zerolog.Logger, dec *decoder.Engine, eng *player.Engine, host output.Host) {
	closers := []struct {
		name string
		c    io.Closer
	}{
		{"decoder", dec},
		{"player", eng},
		{"output", host},
	}
	for _, c := range closers {
		if err := c.c.Close(); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("component", c.name).Msg("shutdown")
		}
	}
}

// enqueue publishes the command-line tracks once every actor is subscribed.
type enqueue struct {
	paths []string
}

func (e *enqueue) Name() string { return "enqueue" }

func (e *enqueue) Run(_ context.Context, rx *bus.Receiver, tx *bus.Sender) error {
	rx.Close()
	return tx.Send(bus.PlaylistReplace{Paths: e.paths})
}

func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}
