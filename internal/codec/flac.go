package codec

import (
	"io"
	"os"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
)

// beepSource adapts a beep stereo streamer to interleaved samples.
type beepSource struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	buf      [][2]float64
}

func openFLAC(f *os.File) (Source, error) {
	if err := skipID3v2(f); err != nil {
		return nil, err
	}
	streamer, format, err := flac.Decode(f)
	if err != nil {
		return nil, err
	}
	return &beepSource{streamer: streamer, format: format}, nil
}

func (s *beepSource) SampleRate() int { return int(s.format.SampleRate) }
func (s *beepSource) Channels() int   { return s.format.NumChannels }
func (s *beepSource) Frames() int64   { return int64(s.streamer.Len()) }

func (s *beepSource) ReadSamples(dst []float32) (int, error) {
	channels := s.format.NumChannels
	frames := len(dst) / channels
	if frames == 0 {
		return 0, nil
	}
	if cap(s.buf) < frames {
		s.buf = make([][2]float64, frames)
	}
	buf := s.buf[:frames]

	n, ok := s.streamer.Stream(buf)
	for i := range n {
		base := i * channels
		dst[base] = float32(buf[i][0])
		if channels > 1 {
			dst[base+1] = float32(buf[i][1])
		}
		// beep only carries two channels
		for c := 2; c < channels; c++ {
			dst[base+c] = 0
		}
	}

	if !ok {
		if err := s.streamer.Err(); err != nil {
			return n * channels, err
		}
		return n * channels, io.EOF
	}
	return n * channels, nil
}

func (s *beepSource) Close() error {
	return s.streamer.Close()
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of the file.
// Some FLAC files have one prepended, which the FLAC decoder rejects.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && n == 0 {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Syncsafe size: 7 bits per byte
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])

	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
