package player

import "runtime/debug"

// fill is the real-time output callback of the stream opened with gen.
// It only takes e.mu around the copy and never blocks on anything else.
func (e *Engine) fill(out []float32, gen uint64, outChannels int) {
	defer func() {
		if r := recover(); r != nil {
			clear(out)
			e.log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("output callback panicked")
		}
	}()

	if gen != e.gen.Load() || !e.playing.Load() {
		clear(out)
		return
	}

	cursor := e.cursor.Load()
	written, ended, load := e.take(out, cursor, outChannels)
	if ended {
		e.reachedEnd(load)
		return
	}

	// A Seek, Stop or Load that raced with this period wins.
	e.cursor.CompareAndSwap(cursor, cursor+int64(written))
}

// take copies from the buffer under e.mu. The deferred unlock keeps the
// lock released even if the copy panics.
func (e *Engine) take(out []float32, cursor int64, outChannels int) (written int, ended bool, load uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cursor >= e.buf.length {
		clear(out)
		return 0, true, e.loads.Load()
	}
	inChannels := int(e.channels.Load())
	return e.copyFrames(out, cursor, inChannels, outChannels), false, 0
}

// copyFrames copies whole frames from the buffer at cursor into out, mapping
// channels, and zero-pads the rest. It returns the number of buffer samples
// consumed. Caller holds e.mu.
func (e *Engine) copyFrames(out []float32, cursor int64, inChannels, outChannels int) int {
	if inChannels <= 0 || outChannels <= 0 {
		clear(out)
		return 0
	}

	frames := len(out) / outChannels
	if inChannels == outChannels {
		n := e.buf.read(out[:frames*inChannels], cursor)
		n -= n % inChannels
		clear(out[n:])
		return n
	}

	need := frames * inChannels
	if cap(e.scratch) < need {
		e.scratch = make([]float32, need)
	}
	src := e.scratch[:need]
	n := e.buf.read(src, cursor)
	got := n / inChannels

	for f := range got {
		in := src[f*inChannels : (f+1)*inChannels]
		dst := out[f*outChannels : (f+1)*outChannels]
		for c := range dst {
			switch {
			case c < inChannels:
				dst[c] = in[c]
			case inChannels == 1:
				dst[c] = in[0]
			default:
				dst[c] = 0
			}
		}
	}
	clear(out[got*outChannels:])
	return got * inChannels
}

// reachedEnd flips playing off. Only the callback that wins the swap
// reports it.
func (e *Engine) reachedEnd(load uint64) {
	if e.playing.CompareAndSwap(true, false) {
		e.emit(EndReached{Load: load})
	}
}
