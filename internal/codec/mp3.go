package codec

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/llehouerou/go-mp3"
)

// mp3Source wraps llehouerou/go-mp3, which always decodes to 16-bit stereo.
type mp3Source struct {
	decoder *mp3.Decoder
	closer  io.Closer
	readBuf []byte
}

func openMP3(f *os.File) (Source, error) {
	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	if decoder.SampleRate() == 0 {
		return nil, errors.New("mp3: invalid sample rate")
	}
	return &mp3Source{
		decoder: decoder,
		closer:  f,
		readBuf: make([]byte, 8192),
	}, nil
}

func (s *mp3Source) SampleRate() int { return s.decoder.SampleRate() }
func (s *mp3Source) Channels() int   { return 2 }

func (s *mp3Source) Frames() int64 {
	count := s.decoder.SampleCount()
	if count < 0 {
		return 0
	}
	return count
}

func (s *mp3Source) ReadSamples(dst []float32) (int, error) {
	// 2 bytes per value
	bytesNeeded := len(dst) * 2
	if len(s.readBuf) < bytesNeeded {
		s.readBuf = make([]byte, bytesNeeded)
	}

	bytesRead, err := io.ReadFull(s.decoder, s.readBuf[:bytesNeeded])
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}

	n := bytesRead / 2
	for i := range n {
		v := int16(binary.LittleEndian.Uint16(s.readBuf[i*2:])) //nolint:gosec // audio samples
		dst[i] = float32(v) / 32768.0
	}
	return n, err
}

func (s *mp3Source) Close() error {
	return s.closer.Close()
}
