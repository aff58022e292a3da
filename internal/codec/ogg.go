package codec

import (
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

type oggSource struct {
	reader *oggvorbis.Reader
	closer io.Closer
}

func openOgg(f *os.File) (Source, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, err
	}
	return &oggSource{reader: reader, closer: f}, nil
}

func (s *oggSource) SampleRate() int { return s.reader.SampleRate() }
func (s *oggSource) Channels() int   { return s.reader.Channels() }
func (s *oggSource) Frames() int64   { return s.reader.Length() }

func (s *oggSource) ReadSamples(dst []float32) (int, error) {
	// Whole frames only
	channels := s.reader.Channels()
	dst = dst[:len(dst)/channels*channels]
	if len(dst) == 0 {
		return 0, nil
	}
	return s.reader.Read(dst)
}

func (s *oggSource) Close() error {
	return s.closer.Close()
}
