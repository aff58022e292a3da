// Package codec opens audio files as streams of interleaved float32 samples.
//
// The file extension picks the decoder first. When that fails or the
// extension is unknown, the content is sniffed and the matching decoder is
// tried, so misnamed files still load.
package codec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedFormat is returned when no decoder accepts the file.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Source decodes one audio track.
type Source interface {
	SampleRate() int
	Channels() int
	// Frames returns the track length in frames, or 0 when the container
	// does not say.
	Frames() int64
	// ReadSamples fills dst with interleaved samples in [-1, 1] and returns
	// the number of values written. It returns io.EOF once the track is
	// exhausted, possibly together with a final partial read.
	ReadSamples(dst []float32) (int, error)
	Close() error
}

// Format identifies a container/codec pair.
type Format string

const (
	FormatUnknown Format = ""
	FormatMP3     Format = "mp3"
	FormatFLAC    Format = "flac"
	FormatWAV     Format = "wav"
	FormatAIFF    Format = "aiff"
	FormatOgg     Format = "ogg"
)

type openFunc func(f *os.File) (Source, error)

var openers = map[Format]openFunc{
	FormatMP3:  openMP3,
	FormatFLAC: openFLAC,
	FormatWAV:  openWAV,
	FormatAIFF: openAIFF,
	FormatOgg:  openOgg,
}

var extensions = map[string]Format{
	".mp3":  FormatMP3,
	".flac": FormatFLAC,
	".wav":  FormatWAV,
	".wave": FormatWAV,
	".aif":  FormatAIFF,
	".aiff": FormatAIFF,
	".ogg":  FormatOgg,
	".oga":  FormatOgg,
}

// mimeFormats maps sniffed MIME types to formats. Order matters: the first
// match wins.
var mimeFormats = []struct {
	mime   string
	format Format
}{
	{"audio/flac", FormatFLAC},
	{"audio/wav", FormatWAV},
	{"audio/aiff", FormatAIFF},
	{"audio/ogg", FormatOgg},
	{"application/ogg", FormatOgg},
	{"audio/mpeg", FormatMP3},
}

// FormatFromExt returns the format implied by the path's extension.
func FormatFromExt(path string) Format {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// IsSupported returns true if the path has a known audio extension.
func IsSupported(path string) bool {
	return FormatFromExt(path) != FormatUnknown
}

// Open probes path and returns a Source positioned at the first sample.
func Open(path string) (Source, Format, error) {
	hint := FormatFromExt(path)

	var hintErr error
	if hint != FormatUnknown {
		src, err := openAs(path, hint)
		if err == nil {
			return src, hint, nil
		}
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, FormatUnknown, err
		}
		hintErr = err
	}

	sniffed, err := Sniff(path)
	if err != nil {
		return nil, FormatUnknown, err
	}
	if sniffed == FormatUnknown || sniffed == hint {
		if hintErr != nil {
			return nil, FormatUnknown, fmt.Errorf("%w: %w", ErrUnsupportedFormat, hintErr)
		}
		return nil, FormatUnknown, ErrUnsupportedFormat
	}

	src, err := openAs(path, sniffed)
	if err != nil {
		return nil, FormatUnknown, fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, sniffed, err)
	}
	return src, sniffed, nil
}

// Sniff detects the format from the file content.
func Sniff(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return FormatUnknown, fmt.Errorf("sniff %s: %w", filepath.Base(path), err)
	}
	for _, m := range mimeFormats {
		if mime.Is(m.mime) {
			return m.format, nil
		}
	}
	return FormatUnknown, nil
}

func openAs(path string, format Format) (Source, error) {
	open, ok := openers[format]
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// Info summarizes a track.
type Info struct {
	Format     Format
	SampleRate int
	Channels   int
	Frames     int64
}

// DurationMS returns the track duration in milliseconds, or 0 when unknown.
func (i Info) DurationMS() uint64 {
	if i.SampleRate <= 0 || i.Frames <= 0 {
		return 0
	}
	return uint64(i.Frames) * 1000 / uint64(i.SampleRate)
}

// Probe opens path, reads its parameters and closes it.
func Probe(path string) (Info, error) {
	src, format, err := Open(path)
	if err != nil {
		return Info{}, err
	}
	defer src.Close()
	return Info{
		Format:     format,
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
		Frames:     src.Frames(),
	}, nil
}

// ReadFull reads until dst is full or the source ends. It returns io.EOF
// only when the source ended.
func ReadFull(src Source, dst []float32) (int, error) {
	total := 0
	for total < len(dst) {
		n, err := src.ReadSamples(dst[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			// A source that makes no progress without an error is done.
			return total, io.EOF
		}
	}
	return total, nil
}
