//go:build linux

package mediactl

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/bus"
)

// mprisBridge serves org.mpris.MediaPlayer2 on the session bus.
type mprisBridge struct {
	server  *server.Server
	events  *events.EventHandler
	tracker *Tracker
	log     zerolog.Logger
}

// NewMPRIS starts the MPRIS server.
func NewMPRIS(tracker *Tracker, controls *Controls, log zerolog.Logger) (Bridge, error) {
	log = log.With().Str("bridge", "mpris").Logger()
	srv := server.NewServer("riptide", &rootAdapter{}, &playerAdapter{tracker: tracker, controls: controls})
	b := &mprisBridge{
		server:  srv,
		events:  events.NewEventHandler(srv),
		tracker: tracker,
		log:     log,
	}

	go func() {
		if err := srv.Listen(); err != nil {
			log.Warn().Err(err).Msg("mpris server stopped")
		}
	}()
	log.Debug().Msg("mpris server started")
	return b, nil
}

func (b *mprisBridge) Changed(c Change) {
	signals := []struct {
		flag Change
		emit func() error
	}{
		{ChangeStatus, b.events.Player.OnPlayPause},
		{ChangeMetadata, b.events.Player.OnTitle},
		{ChangeOptions, b.events.Player.OnOptions},
		{ChangeVolume, b.events.Player.OnVolume},
	}
	for _, s := range signals {
		if c&s.flag == 0 {
			continue
		}
		if err := s.emit(); err != nil {
			b.log.Debug().Err(err).Msg("emit mpris signal")
		}
	}
	if c&ChangeSeeked != 0 {
		pos := types.Microseconds(int64(b.tracker.ControlState().ElapsedMS) * 1000)
		if err := b.events.Player.OnSeek(pos); err != nil {
			b.log.Debug().Err(err).Msg("emit mpris seeked")
		}
	}
}

func (b *mprisBridge) Close() error {
	return b.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error            { return nil }
func (r *rootAdapter) Quit() error             { return nil }
func (r *rootAdapter) CanQuit() (bool, error)  { return false, nil }
func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) { return "Riptide", nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav", "audio/aiff"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter. Reads come
// from the tracker; writes become bus messages.
type playerAdapter struct {
	tracker  *Tracker
	controls *Controls
}

func (p *playerAdapter) Next() error      { return p.controls.Next() }
func (p *playerAdapter) Previous() error  { return p.controls.Previous() }
func (p *playerAdapter) Pause() error     { return p.controls.Pause() }
func (p *playerAdapter) PlayPause() error { return p.controls.Toggle() }
func (p *playerAdapter) Stop() error      { return p.controls.Stop() }
func (p *playerAdapter) Play() error      { return p.controls.Play() }

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.controls.SeekBy(time.Duration(offset) * time.Microsecond)
}

func (p *playerAdapter) SetPosition(trackID string, position types.Microseconds) error {
	if trackID != formatTrackID(p.tracker.Snapshot().Track.Path) {
		return nil
	}
	return p.controls.SeekTo(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error { return nil }

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.tracker.Snapshot().State {
	case bus.StatePlaying, bus.StateBuffering:
		return types.PlaybackStatusPlaying, nil
	case bus.StatePaused:
		return types.PlaybackStatusPaused, nil
	case bus.StateStopped:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error)        { return 1.0, nil }
func (p *playerAdapter) SetRate(_ float64) error       { return nil }
func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	s := p.tracker.Snapshot()
	if s.Track.Path == "" {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(s.Track.Path)),
		Length:  types.Microseconds(int64(s.TotalMS) * 1000),
		Title:   s.Track.Title,
		Album:   s.Track.Album,
	}
	if s.Track.Artist != "" {
		meta.Artist = []string{s.Track.Artist}
	}
	if s.Track.ArtPath != "" {
		meta.ArtUrl = "file://" + s.Track.ArtPath
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.tracker.Snapshot().Volume, nil
}

func (p *playerAdapter) SetVolume(level float64) error {
	return p.controls.SetVolume(level)
}

func (p *playerAdapter) Position() (int64, error) {
	return int64(p.tracker.ControlState().ElapsedMS) * 1000, nil
}

func (p *playerAdapter) CanGoNext() (bool, error)     { return p.tracker.Snapshot().HasNext, nil }
func (p *playerAdapter) CanGoPrevious() (bool, error) { return p.tracker.Snapshot().HasPrevious, nil }
func (p *playerAdapter) CanPlay() (bool, error)       { return p.tracker.Snapshot().HasTracks, nil }
func (p *playerAdapter) CanPause() (bool, error)      { return true, nil }
func (p *playerAdapter) CanSeek() (bool, error)       { return p.tracker.ControlState().TotalMS > 0, nil }
func (p *playerAdapter) CanControl() (bool, error)    { return true, nil }

func formatTrackID(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
