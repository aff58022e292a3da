package decoder

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/llehouerou/riptide/internal/codec"
	"github.com/llehouerou/riptide/internal/player"
)

// occupancy reports how many samples are queued ahead of the output.
type occupancy interface {
	Buffered() int64
}

// waitForRoom returns at once while fewer than target samples are queued.
// Otherwise it polls every interval until occupancy drops below low.
func waitForRoom(ctx context.Context, p occupancy, target, low int64, interval time.Duration) error {
	if p.Buffered() < target {
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.Buffered() < low {
				return nil
			}
		}
	}
}

// background is a running decode of the rest of a track.
type background struct {
	cancel   context.CancelFunc
	done     chan struct{}
	finished bool // set by the run loop once done is observed
}

func (e *Engine) startBackground(t *track, src codec.Source) *background {
	ctx, cancel := context.WithCancel(e.ctx)
	bg := &background{cancel: cancel, done: make(chan struct{})}

	chunkMS := e.buffering.DecoderRequestChunkMS
	target := SeekOffset(uint64(e.buffering.PlayerTargetBufferMS), t.rate, t.channels)
	low := SeekOffset(uint64(e.buffering.PlayerLowWatermarkMS), t.rate, t.channels)
	interval := time.Duration(e.buffering.PlayerRequestIntervalMS) * time.Millisecond
	log := e.log.With().Str("path", t.path).Logger()

	go func() {
		defer close(bg.done)
		defer src.Close()

		chunk := max(SeekOffset(uint64(chunkMS), t.rate, t.channels), int64(t.channels))
		var pushed int64
		for {
			if err := waitForRoom(ctx, e.player, target, low, interval); err != nil {
				log.Debug().Int64("samples", pushed).Msg("background decode cancelled")
				return
			}

			// The player keeps the slice, so every chunk gets its own.
			buf := make([]float32, chunk)
			n, err := codec.ReadFull(src, buf)
			if n > 0 {
				if perr := e.player.Do(ctx, player.AppendSamples{Samples: buf[:n], Load: t.load}); perr != nil {
					if !errors.Is(perr, context.Canceled) && !errors.Is(perr, player.ErrStaleLoad) {
						log.Debug().Err(perr).Msg("append rejected, stopping background decode")
					}
					return
				}
				pushed += int64(n)
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					log.Warn().Err(err).Msg("decode error, treating as end of stream")
				}
				log.Debug().Int64("samples", pushed).Msg("background decode complete")
				return
			}
		}
	}()

	return bg
}

// stopBackground cancels the running decode and waits for it to return.
func (e *Engine) stopBackground() {
	if e.bg == nil {
		return
	}
	if e.bg.cancel != nil {
		e.bg.cancel()
	}
	<-e.bg.done
	e.bg.finished = true
}
