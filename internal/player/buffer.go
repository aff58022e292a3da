package player

import "sort"

// sampleBuffer is the retained interleaved sample store. Appends link the
// caller's slice as a new chunk, so growing never copies existing audio
// while the output callback waits on the lock.
type sampleBuffer struct {
	chunks [][]float32
	starts []int64 // starts[i] is the offset of chunks[i]
	length int64
}

func (b *sampleBuffer) reset(samples []float32) {
	clear(b.chunks)
	b.chunks = b.chunks[:0]
	b.starts = b.starts[:0]
	b.length = 0
	b.append(samples)
}

func (b *sampleBuffer) append(samples []float32) {
	if len(samples) == 0 {
		return
	}
	b.chunks = append(b.chunks, samples)
	b.starts = append(b.starts, b.length)
	b.length += int64(len(samples))
}

// read copies samples starting at offset into dst and returns how many were
// copied.
func (b *sampleBuffer) read(dst []float32, offset int64) int {
	if offset < 0 || offset >= b.length || len(dst) == 0 {
		return 0
	}

	// Last chunk starting at or before offset
	i := sort.Search(len(b.starts), func(i int) bool { return b.starts[i] > offset }) - 1

	n := 0
	for ; i < len(b.chunks) && n < len(dst); i++ {
		chunk := b.chunks[i]
		from := int(offset - b.starts[i])
		copied := copy(dst[n:], chunk[from:])
		n += copied
		offset += int64(copied)
	}
	return n
}
