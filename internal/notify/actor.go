package notify

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/llehouerou/riptide/internal/actor"
	"github.com/llehouerou/riptide/internal/bus"
	"github.com/llehouerou/riptide/internal/errmsg"
	"github.com/llehouerou/riptide/internal/mediactl"
)

const (
	trackTimeout = 5000
	errorTimeout = 10000
)

// Actor announces the playing track and playback errors. A track
// notification replaces the previous one.
type Actor struct {
	log      zerolog.Logger
	notifier Notifier
	artFor   func(trackPath string) string

	current string
	lastID  uint32
}

var _ actor.Actor = (*Actor)(nil)

// NewActor creates the notification actor. A nil notifier selects New.
func NewActor(log zerolog.Logger, notifier Notifier) *Actor {
	return &Actor{log: log, notifier: notifier, artFor: mediactl.FindAlbumArt}
}

func (a *Actor) Name() string { return "notify" }

func (a *Actor) Run(ctx context.Context, rx *bus.Receiver, _ *bus.Sender) error {
	if a.notifier == nil {
		n, err := New()
		if err != nil {
			a.log.Warn().Err(err).Msg("desktop notifications unavailable")
			n = stubNotifier{}
		}
		a.notifier = n
	}
	return actor.Consume(ctx, a.log, rx, func(_ context.Context, msg bus.Message) error {
		a.handle(msg)
		return nil
	})
}

func (a *Actor) handle(msg bus.Message) {
	switch m := msg.(type) {
	case bus.PlaybackTrackLoaded:
		a.current = m.Path
	case bus.MetadataUpdated:
		if m.Path != a.current {
			return
		}
		a.send(Notification{
			Title:      m.Title,
			Body:       trackBody(m.Artist, m.Album),
			Icon:       a.artFor(m.Path),
			Timeout:    trackTimeout,
			ReplacesID: a.lastID,
			Urgency:    UrgencyLow,
		}, true)
	case bus.PlaybackError:
		name := ""
		if m.Path != "" {
			name = filepath.Base(m.Path)
		}
		a.send(Notification{
			Title:   "Playback error",
			Body:    errmsg.FormatText(errmsg.Op(m.Op), name, m.Err),
			Icon:    "dialog-error",
			Timeout: errorTimeout,
			Urgency: UrgencyCritical,
		}, false)
	}
}

func (a *Actor) send(n Notification, track bool) {
	id, err := a.notifier.Notify(n)
	if err != nil {
		a.log.Debug().Err(err).Str("title", n.Title).Msg("notify")
		return
	}
	if track {
		a.lastID = id
	}
}

func trackBody(artist, album string) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{artist, album} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " - ")
}
