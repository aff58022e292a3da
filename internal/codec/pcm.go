package codec

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// pcmReader is the part of the go-audio wav and aiff decoders we use.
type pcmReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// pcmSource converts go-audio integer PCM to float32.
type pcmSource struct {
	dec        pcmReader
	closer     io.Closer
	sampleRate int
	channels   int
	frames     int64
	scale      float32
	intBuf     *goaudio.IntBuffer
}

func newPCMSource(dec pcmReader, closer io.Closer, bitDepth int, frames int64) (*pcmSource, error) {
	format := dec.Format()
	if format == nil || format.SampleRate <= 0 || format.NumChannels <= 0 {
		return nil, errors.New("invalid pcm format")
	}
	scale, err := pcmScale(bitDepth)
	if err != nil {
		return nil, err
	}
	return &pcmSource{
		dec:        dec,
		closer:     closer,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		frames:     frames,
		scale:      scale,
	}, nil
}

func pcmScale(bitDepth int) (float32, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	}
	return 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
}

func (s *pcmSource) SampleRate() int { return s.sampleRate }
func (s *pcmSource) Channels() int   { return s.channels }
func (s *pcmSource) Frames() int64   { return s.frames }

func (s *pcmSource) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	for i := range n {
		dst[i] = float32(s.intBuf.Data[i]) / s.scale
	}

	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return n, err
	}
	if n < len(dst) {
		return n, io.EOF
	}
	return n, nil
}

func (s *pcmSource) Close() error {
	return s.closer.Close()
}

func openWAV(f *os.File) (Source, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("wav: invalid file")
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, err
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("wav: audio format %d is not integer PCM", dec.WavAudioFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, err
	}

	var frames int64
	if blockAlign := int64(dec.NumChans) * int64(dec.BitDepth) / 8; blockAlign > 0 {
		frames = dec.PCMLen() / blockAlign
	}
	return newPCMSource(dec, f, int(dec.BitDepth), frames)
}

func openAIFF(f *os.File) (Source, error) {
	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("aiff: invalid file")
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return newPCMSource(dec, f, int(dec.BitDepth), int64(dec.NumSampleFrames))
}
